package archive

import (
	"archive/tar"
	"encoding/json"
	"io"
	"time"

	"github.com/emrgen/recall/internal/compress"
)

// Writer streams entries into a compressed archive. Entries are tar records
// wrapped by the configured compression codec.
type Writer struct {
	raw io.WriteCloser
	tw  *tar.Writer
}

// NewWriter wraps w with the codec and a tar stream. Close must be called
// for the archive to be complete; an unclosed archive is unreadable.
func NewWriter(w io.Writer, codec compress.Codec) *Writer {
	cw := codec.NewWriter(w)
	return &Writer{
		raw: cw,
		tw:  tar.NewWriter(cw),
	}
}

// AddEntry writes a named entry from an in-memory payload.
func (w *Writer) AddEntry(name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}

	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err := w.tw.Write(data)
	return err
}

// AddFile streams size bytes from r into a named entry.
func (w *Writer) AddFile(name string, size int64, r io.Reader) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    size,
		ModTime: time.Now(),
	}

	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err := io.Copy(w.tw, r)
	return err
}

// AddJSON marshals v into a named entry.
func (w *Writer) AddJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return w.AddEntry(name, data)
}

// Close finalizes the tar stream and flushes the compression codec.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		return err
	}

	return w.raw.Close()
}
