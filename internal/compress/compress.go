package compress

import (
	"io"
	"strings"
)

// Codec wraps an archive stream with a compression transport.
type Codec interface {
	// Name returns the codec identifier used in archive file extensions.
	Name() string
	// NewWriter wraps w with a compressing writer. The returned writer
	// must be closed to flush the stream.
	NewWriter(w io.Writer) io.WriteCloser
	// NewReader wraps r with a decompressing reader.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// ByName returns the codec registered under name, defaulting to gzip.
func ByName(name string) Codec {
	switch name {
	case "br":
		return NewBrotli()
	case "lz4":
		return NewLZ4()
	case "nop":
		return NewNop()
	default:
		return NewGZip()
	}
}

// ByPath picks a codec from an archive file extension, defaulting to gzip.
func ByPath(path string) Codec {
	switch {
	case strings.HasSuffix(path, ".br"):
		return NewBrotli()
	case strings.HasSuffix(path, ".lz4"):
		return NewLZ4()
	default:
		return NewGZip()
	}
}
