package parser

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4"
)

type plainDecoder struct{}

func (plainDecoder) CanDecode(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".txt")
}

func (plainDecoder) Decode(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

type gzipDecoder struct{}

func (gzipDecoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".gz")
}

func (gzipDecoder) Decode(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return multiCloser{Reader: gr, closers: []io.Closer{gr, f}}, nil
}

type lz4Decoder struct{}

func (lz4Decoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".lz4")
}

func (lz4Decoder) Decode(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return multiCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
}

// zipDecoder reads the largest regular file in the archive.
type zipDecoder struct{}

func (zipDecoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".zip")
}

func (zipDecoder) Decode(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	var largest *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largest == nil || f.UncompressedSize64 > largest.UncompressedSize64 {
			largest = f
		}
	}
	if largest == nil {
		zr.Close()
		return nil, ErrEmptyArchive
	}
	rc, err := largest.Open()
	if err != nil {
		zr.Close()
		return nil, err
	}
	return multiCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
