package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNoSheet indicates a workbook without a readable worksheet.
var ErrNoSheet = errors.New("workbook contains no worksheet")

// xlsxDecoder flattens the first worksheet of a workbook into CSV text.
type xlsxDecoder struct{}

func (xlsxDecoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxDecoder) Decode(p string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var shared []string
	if b, ok := readZipEntry(&zr.Reader, "xl/sharedStrings.xml"); ok {
		var sst struct {
			Items []richText `xml:"si"`
		}
		if err := xml.Unmarshal(b, &sst); err != nil {
			return nil, err
		}
		for _, si := range sst.Items {
			shared = append(shared, si.String())
		}
	}

	target := firstSheetPath(&zr.Reader)
	data, ok := readZipEntry(&zr.Reader, target)
	if !ok {
		return nil, ErrNoSheet
	}
	var ws struct {
		Rows []struct {
			Cells []struct {
				Ref    string   `xml:"r,attr"`
				Type   string   `xml:"t,attr"`
				Value  string   `xml:"v"`
				Inline richText `xml:"is"`
			} `xml:"c"`
		} `xml:"sheetData>row"`
	}
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, row := range ws.Rows {
		var cells []string
		for i, c := range row.Cells {
			col := i
			if c.Ref != "" {
				col = columnIndex(c.Ref)
			}
			for len(cells) <= col {
				cells = append(cells, "")
			}
			switch c.Type {
			case "s":
				if n := leadingInt(c.Value); n >= 0 && n < len(shared) {
					cells[col] = shared[n]
				}
			case "inlineStr":
				cells[col] = c.Inline.String()
			default:
				cells[col] = c.Value
			}
		}
		for i := range cells {
			cells[i] = flattenCell(cells[i])
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return io.NopCloser(strings.NewReader(b.String())), nil
}

// richText covers both plain <t> and run-based <r><t> string items.
type richText struct {
	Text string `xml:"t"`
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (r richText) String() string {
	if len(r.Runs) == 0 {
		return r.Text
	}
	var b strings.Builder
	for _, run := range r.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// firstSheetPath resolves the first sheet listed in the workbook to its zip entry.
func firstSheetPath(zr *zip.Reader) string {
	const fallback = "xl/worksheets/sheet1.xml"
	wbData, ok := readZipEntry(zr, "xl/workbook.xml")
	if !ok {
		return fallback
	}
	var wb struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheets>sheet"`
	}
	if xml.Unmarshal(wbData, &wb) != nil || len(wb.Sheets) == 0 {
		return fallback
	}
	relData, ok := readZipEntry(zr, "xl/_rels/workbook.xml.rels")
	if !ok {
		return fallback
	}
	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if xml.Unmarshal(relData, &rels) != nil {
		return fallback
	}
	for _, r := range rels.Items {
		if r.ID != wb.Sheets[0].RID {
			continue
		}
		// targets are relative to xl/ unless absolute
		t := strings.TrimPrefix(r.Target, "/")
		if strings.HasPrefix(t, "xl/") {
			return t
		}
		return path.Join("xl", t)
	}
	return fallback
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, bool) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		return b, err == nil
	}
	return nil, false
}

// columnIndex maps a cell reference like "C12" to a zero-based column.
func columnIndex(ref string) int {
	idx := 0
	for _, r := range strings.ToUpper(ref) {
		if r < 'A' || r > 'Z' {
			break
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1
}

func leadingInt(s string) int {
	n := -1
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			break
		}
		if n < 0 {
			n = 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// flattenCell keeps a cell on one line and inside one comma-separated field.
func flattenCell(s string) string {
	return strings.NewReplacer(",", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
