package compress

import (
	"io"

	"github.com/andybalholm/brotli"
)

type Brotli struct {
}

func NewBrotli() Brotli {
	return Brotli{}
}

func (b Brotli) Name() string {
	return "br"
}

func (b Brotli) NewWriter(w io.Writer) io.WriteCloser {
	return brotli.NewWriter(w)
}

func (b Brotli) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
