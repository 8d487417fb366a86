package region

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	SchemeGzip byte = 1
	SchemeZlib byte = 2
	SchemeNone byte = 3
)

func SchemeName(scheme byte) string {
	switch scheme {
	case SchemeGzip:
		return "gzip"
	case SchemeZlib:
		return "zlib"
	case SchemeNone:
		return "none"
	default:
		return fmt.Sprintf("scheme(%d)", scheme)
	}
}

func ParseScheme(name string) (byte, error) {
	switch strings.ToLower(name) {
	case "gzip":
		return SchemeGzip, nil
	case "zlib", "":
		return SchemeZlib, nil
	case "none":
		return SchemeNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// Compress encodes a raw chunk tree with the given scheme.
func Compress(scheme byte, raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser

	switch scheme {
	case SchemeGzip:
		w = gzip.NewWriter(&buf)
	case SchemeZlib:
		w = zlib.NewWriter(&buf)
	case SchemeNone:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, scheme)
	}

	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress decodes a slot payload. Malformed data and unknown schemes are
// reported as corrupt region data.
func Decompress(scheme byte, data []byte) ([]byte, error) {
	var r io.ReadCloser
	var err error

	switch scheme {
	case SchemeGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case SchemeZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	case SchemeNone:
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %w: %d", ErrCorruptRegion, ErrUnknownScheme, scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRegion, SchemeName(scheme), err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRegion, SchemeName(scheme), err)
	}

	return raw, nil
}
