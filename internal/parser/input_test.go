package parser_test

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/parser"
	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "region,sales\r\nnorth,10\r\nsouth,12\r\n"

func TestReadFile_Plain(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(p, []byte(sampleCSV), 0o644))

	out, err := parser.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "region,sales\nnorth,10\nsouth,12\n", out)
}

func TestReadFile_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	p := filepath.Join(t.TempDir(), "sales.csv.gz")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	out, err := parser.ReadFile(p)
	require.NoError(t, err)
	assert.Len(t, parser.Parse(out).Rows, 2)
}

func TestReadFile_ZipPicksLargestFile(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	small, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, _ = small.Write([]byte("hi"))
	big, err := zw.Create("data/sales.csv")
	require.NoError(t, err)
	_, _ = big.Write([]byte(sampleCSV))
	require.NoError(t, zw.Close())
	p := filepath.Join(t.TempDir(), "bundle.zip")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	out, err := parser.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales"}, parser.Parse(out).Headers)
}

func TestReadFile_EmptyZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, zip.NewWriter(&buf).Close())
	p := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	_, err := parser.ReadFile(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrEmptyArchive))
	var inErr *parser.InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "open", inErr.Op)
}

func TestReadFile_LZ4(t *testing.T) {
	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)
	_, err := lw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	p := filepath.Join(t.TempDir(), "sales.csv.lz4")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	out, err := parser.ReadFile(p)
	require.NoError(t, err)
	assert.Len(t, parser.Parse(out).Rows, 2)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := parser.ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "stat nope.csv")
}
