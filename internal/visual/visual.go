// Package visual finds or generates the header image for a post.
package visual

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoImageFound is returned when no search yielded a usable photo.
var ErrNoImageFound = errors.New("no suitable image found")

// ImageFileName returns the file name used for an image created at t.
func ImageFileName(t time.Time, ext string) string {
	return fmt.Sprintf("blog_image_%s%s", t.Format("20060102-150405"), ext)
}

// ClearDirectory removes every file and subdirectory under dir, keeping dir
// itself. It returns the number of entries removed. A missing directory is
// not an error.
func ClearDirectory(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read image directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Cleaner clears a fixed output directory after a successful publish.
type Cleaner struct {
	Dir string
}

// Clear removes everything under the configured directory.
func (c Cleaner) Clear() (int, error) {
	if c.Dir == "" {
		return 0, nil
	}
	return ClearDirectory(c.Dir)
}

func saveFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
