package source

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/lysyi3m/epg-comb/app/epg"
)

type Decompressor struct{}

func NewDecompressor() *Decompressor {
	return &Decompressor{}
}

func (d *Decompressor) Decompress(location string, data []byte) ([]byte, error) {
	return MaybeDecompress(location, data)
}

// MaybeDecompress gunzips data when the location ends in .gz or the payload
// starts with the gzip magic number. Anything else is returned unchanged.
func MaybeDecompress(location string, data []byte) ([]byte, error) {
	if !hasGzipExtension(location) && !isGzip(data) {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", epg.ErrDecode, err)
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", epg.ErrDecode, err)
	}

	return out, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// hasGzipExtension ignores any query string on URLs.
func hasGzipExtension(location string) bool {
	path := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}
