package parser_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	workbookXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Sales" sheetId="1" r:id="rId7"/></sheets></workbook>`
	relsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId7" Type="worksheet" Target="worksheets/data.xml"/></Relationships>`
	sharedXML = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>region</t></si><si><t>sales</t></si><si><r><t>No</t></r><r><t>rth</t></r></si></sst>`
	sheetXML = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>10.5</v></c></row>
<row r="3"><c r="A3" t="inlineStr"><is><t>South, east</t></is></c><c r="C3"><v>7</v></c></row>
</sheetData></worksheet>`
)

func writeZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for n, body := range entries {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestReadFile_XLSXFirstSheet(t *testing.T) {
	p := writeZip(t, "book.xlsx", map[string]string{
		"xl/workbook.xml":            workbookXML,
		"xl/_rels/workbook.xml.rels": relsXML,
		"xl/sharedStrings.xml":       sharedXML,
		"xl/worksheets/data.xml":     sheetXML,
	})

	out, err := parser.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "region,sales\nNorth,10.5\nSouth  east,,7\n", out)

	tbl := parser.Parse(out)
	assert.Equal(t, []string{"region", "sales"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "NULL", tbl.Rows[1][1])
}

func TestReadFile_XLSXMissingSheet(t *testing.T) {
	p := writeZip(t, "empty.xlsx", map[string]string{"xl/workbook.xml": workbookXML})

	_, err := parser.ReadFile(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrNoSheet))
}
