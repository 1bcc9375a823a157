package jobs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// partialMaxAge is how long a .partial archive may linger before the
// janitor treats it as abandoned by a crashed export.
const partialMaxAge = 24 * time.Hour

// Janitor reclaims leftovers under the attachment root: shard directories
// emptied by deletes that raced the recursive cleanup, and partial archives
// abandoned by failed exports.
type Janitor struct {
	root string
}

func NewJanitor(root string) *Janitor {
	return &Janitor{root: root}
}

func (j *Janitor) Name() string {
	return "storage-janitor"
}

func (j *Janitor) Schedule() string {
	return "@every 1h"
}

func (j *Janitor) Run() {
	j.sweepPartials()
	j.sweepEmptyDirs()
}

func (j *Janitor) sweepPartials() {
	cutoff := time.Now().Add(-partialMaxAge)

	_ = filepath.WalkDir(j.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".partial") {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}

		logrus.Infof("removing abandoned partial archive %s", path)
		if err := os.Remove(path); err != nil {
			logrus.Warnf("failed to remove %s: %v", path, err)
		}

		return nil
	})
}

func (j *Janitor) sweepEmptyDirs() {
	var dirs []string
	_ = filepath.WalkDir(j.root, func(path string, d os.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != j.root {
			dirs = append(dirs, path)
		}
		return nil
	})

	// deepest first so emptied parents are swept in the same pass
	sort.Slice(dirs, func(i, k int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[k], string(filepath.Separator))
	})

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}

		if err := os.Remove(dir); err != nil {
			logrus.Warnf("failed to remove empty directory %s: %v", dir, err)
		}
	}
}
