package automation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const defaultMaxEntries = 500

// FileRunLog keeps run entries in a JSON array file, oldest first.
type FileRunLog struct {
	path       string
	maxEntries int
	mu         sync.Mutex
}

// NewFileRunLog creates a run log at path holding at most maxEntries entries.
func NewFileRunLog(path string, maxEntries int) *FileRunLog {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &FileRunLog{path: path, maxEntries: maxEntries}
}

// Path returns the backing file.
func (l *FileRunLog) Path() string { return l.path }

// Entries returns every stored entry. A missing or corrupt file reads as empty.
func (l *FileRunLog) Entries() ([]core.RunLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Recent returns up to n entries, newest first.
func (l *FileRunLog) Recent(n int) ([]core.RunLogEntry, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	return newestFirst(entries, n), nil
}

// Append stores entry, evicting the oldest entries beyond the cap.
func (l *FileRunLog) Append(entry core.RunLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > l.maxEntries {
		entries = entries[len(entries)-l.maxEntries:]
	}
	return l.write(entries)
}

func (l *FileRunLog) read() ([]core.RunLogEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []core.RunLogEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	if len(data) == 0 {
		return []core.RunLogEntry{}, nil
	}

	var entries []core.RunLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Run log is corrupt, starting empty", "path", l.path, "error", err.Error())
		return []core.RunLogEntry{}, nil
	}
	return entries, nil
}

func (l *FileRunLog) write(entries []core.RunLogEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run log directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".runlog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp run log: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write run log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp run log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("failed to replace run log: %w", err)
	}
	return nil
}

// newestFirst returns up to n entries in reverse order. n <= 0 means all.
func newestFirst(entries []core.RunLogEntry, n int) []core.RunLogEntry {
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]core.RunLogEntry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}

// lastSuccess returns the most recent successful entry.
func lastSuccess(entries []core.RunLogEntry) (core.RunLogEntry, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status == core.RunSuccess {
			return entries[i], true
		}
	}
	return core.RunLogEntry{}, false
}
