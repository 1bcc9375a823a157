package filestore

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Locator assigns on-disk paths for attachment files under a single managed
// root. General uploads are sharded two directory levels deep by a hash of
// the original filename so that no directory accumulates an unbounded number
// of entries. Each file ends up in a private shard, which is what makes the
// empty-directory reclamation in Cleanup safe.
type Locator struct {
	root string
}

func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// Root returns the managed attachment root.
func (l *Locator) Root() string {
	return l.root
}

// UploadPath returns the storage path for a freshly uploaded file:
// <root>/<owner>/<hash[0:3]>/<hash[3:6]>/<filename>. Missing directory
// levels are created lazily; a directory already created by a concurrent
// caller is not an error. A name collision at the final path is resolved by
// inserting a short random suffix before the extension.
func (l *Locator) UploadPath(owner, filename string) (string, error) {
	sum := sha1.Sum([]byte(filename))
	h := hex.EncodeToString(sum[:])

	dir := filepath.Join(l.root, owner, h[0:3], h[3:6])
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	return l.dedupe(filepath.Join(dir, filename)), nil
}

// ImportPath returns the storage path for a file placed during package
// import: <root>/<owner>/<typeName>/<filename>, deduplicated on collision.
func (l *Locator) ImportPath(owner, typeName, filename string) (string, error) {
	dir := filepath.Join(l.root, owner, typeName)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	return l.dedupe(filepath.Join(dir, filename)), nil
}

// IdentityImagePath returns the storage path for an identity asset such as
// an avatar or header image: <root>/<owner>/user/<shortid>-<filename>.
func (l *Locator) IdentityImagePath(owner, filename string) (string, error) {
	dir := filepath.Join(l.root, owner, "user")
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return filepath.Join(dir, fmt.Sprintf("%s-%s", short, filename)), nil
}

// Inside reports whether path resolves inside the managed root. Files
// outside the root are never touched by delete cascades.
func (l *Locator) Inside(path string) bool {
	absRoot, err := filepath.Abs(l.root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Cleanup walks upward from a deleted file's location, removing each
// directory found empty, and stops at the managed root or at the first
// non-empty directory. Correct only because every file occupies a private
// shard path.
func (l *Locator) Cleanup(path string) {
	absRoot, err := filepath.Abs(l.root)
	if err != nil {
		return
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return
	}

	for dir != absRoot && strings.HasPrefix(dir, absRoot+string(filepath.Separator)) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		if err := os.Remove(dir); err != nil {
			logrus.Warnf("failed to remove empty shard directory %s: %v", dir, err)
			return
		}

		dir = filepath.Dir(dir)
	}
}

// dedupe returns path unchanged when it is free, otherwise a variant with a
// short random suffix before the extension.
func (l *Locator) dedupe(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	return fmt.Sprintf("%s-%s%s", base, short, ext)
}
