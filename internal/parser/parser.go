package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decoder turns the bytes of an input file into CSV text.
type Decoder interface {
	CanDecode(filename string) bool
	Decode(path string) (io.ReadCloser, error)
}

var registry []Decoder

// Register adds a decoder to the registry. Later registrations take precedence.
func Register(d Decoder) {
	registry = append([]Decoder{d}, registry...)
}

// ErrEmptyArchive indicates an archive without any regular file.
var ErrEmptyArchive = errors.New("archive contains no files")

// InputError wraps an input failure with the operation and file path.
type InputError struct {
	Op   string
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, filepath.Base(e.Path), e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ReadFile reads an input file, decompressing it when the extension calls for it,
// and returns its text with line endings normalized.
func ReadFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", &InputError{Op: "stat", Path: path, Err: err}
	}
	d := decoderFor(path)
	rc, err := d.Decode(path)
	if err != nil {
		return "", &InputError{Op: "open", Path: path, Err: err}
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", &InputError{Op: "read", Path: path, Err: err}
	}
	return normalizeNewlines(string(b)), nil
}

func decoderFor(path string) Decoder {
	for _, d := range registry {
		if d.CanDecode(path) {
			return d
		}
	}
	return plainDecoder{}
}

func init() {
	Register(plainDecoder{})
	Register(gzipDecoder{})
	Register(zipDecoder{})
	Register(lz4Decoder{})
	Register(xlsxDecoder{})
}
