package xmltv

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Writer struct {
	generator string
}

func NewWriter(generator string) *Writer {
	return &Writer{generator: generator}
}

// Run encodes tv as an indented XMLTV document with an XML declaration.
func (w *Writer) Run(tv *TV) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Encode(&buf, tv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) Encode(out io.Writer, tv *TV) error {
	doc := *tv
	if doc.GeneratorName == "" {
		doc.GeneratorName = w.generator
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(out)
	encoder.Indent("", "  ")
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode guide: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush guide: %w", err)
	}

	_, err := io.WriteString(out, "\n")
	return err
}

// Compress gzips an encoded document.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress guide: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress guide: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile stores an encoded document at path through a temp file and rename,
// so readers never observe a partial guide. Paths ending in .gz are gzipped.
func WriteFile(path string, data []byte) error {
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		compressed, err := Compress(data)
		if err != nil {
			return err
		}
		data = compressed
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".epg-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move guide into place: %w", err)
	}

	return nil
}
