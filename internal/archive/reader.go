package archive

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/emrgen/recall/internal/compress"
)

// MaxArchiveSize is the ceiling on archive files accepted for import.
const MaxArchiveSize = 2 << 30

var (
	// ErrTooLarge is returned when an archive exceeds MaxArchiveSize.
	ErrTooLarge = errors.New("archive exceeds maximum size")
	// ErrMalformed is returned when a manifest entry does not decode to
	// its expected structured form. The whole import fails on it.
	ErrMalformed = errors.New("malformed archive manifest")
	// ErrEntryNotFound is returned when a named entry is absent.
	ErrEntryNotFound = errors.New("archive entry not found")
)

// Archive is a readable, fully decoded archive handle with named-entry
// lookup. The whole archive is held in memory; MaxArchiveSize bounds that.
type Archive struct {
	entries map[string][]byte
}

// Open validates and reads an archive file. The compression codec is picked
// from the file extension, defaulting to gzip.
func Open(path string) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.Size() > MaxArchiveSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	codec := compress.ByPath(path)
	cr, err := codec.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer cr.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(cr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		entries[hdr.Name] = data
	}

	return &Archive{entries: entries}, nil
}

// Entry returns the raw bytes of a named entry.
func (a *Archive) Entry(name string) ([]byte, bool) {
	data, ok := a.entries[name]
	return data, ok
}

// Manifest decodes the node+association manifest entry.
func (a *Archive) Manifest() (*Manifest, error) {
	var manifest Manifest
	if err := a.decode(NodesEntry, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Profile decodes the identity-profile entry.
func (a *Archive) Profile() (*Profile, error) {
	var profile Profile
	if err := a.decode(ProfileEntry, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Stamp decodes the version stamp entry.
func (a *Archive) Stamp() (*Stamp, error) {
	var stamp Stamp
	if err := a.decode(StampEntry, &stamp); err != nil {
		return nil, err
	}
	return &stamp, nil
}

func (a *Archive) decode(name string, v any) error {
	data, ok := a.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}

	return nil
}
