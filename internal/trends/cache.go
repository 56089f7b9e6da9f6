package trends

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"autoblog/internal/core"
)

// FileCache stores fetched topics as JSON files, one per feed key.
type FileCache struct {
	dir string
	now func() time.Time
}

type cachedTopics struct {
	FetchedAt time.Time    `json:"fetched_at"`
	Topics    []core.Topic `json:"topics"`
}

// NewFileCache returns a cache rooted at dir. An empty dir disables caching.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir, now: time.Now}
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Load returns the topics stored under key when they are younger than maxAge.
func (c *FileCache) Load(key string, maxAge time.Duration) ([]core.Topic, bool) {
	if c == nil || c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var cached cachedTopics
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if c.now().Sub(cached.FetchedAt) > maxAge {
		return nil, false
	}
	return cached.Topics, true
}

// Save stores topics under key.
func (c *FileCache) Save(key string, topics []core.Topic) error {
	if c == nil || c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(cachedTopics{FetchedAt: c.now(), Topics: topics}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}
