package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"autoblog/internal/core"
)

func TestFileRunLogAppendAndEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "automation_log.json")
	log := NewFileRunLog(path, 10)

	entries, err := log.Entries()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty log for missing file, got %v, %v", entries, err)
	}

	for i := 1; i <= 3; i++ {
		if err := log.Append(core.RunLogEntry{ID: fmt.Sprintf("run-%d", i), Status: core.RunSuccess}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, _ = log.Entries()
	if len(entries) != 3 || entries[0].ID != "run-1" || entries[2].ID != "run-3" {
		t.Errorf("unexpected entries %+v", entries)
	}

	recent, _ := log.Recent(2)
	if len(recent) != 2 || recent[0].ID != "run-3" || recent[1].ID != "run-2" {
		t.Errorf("expected newest first, got %+v", recent)
	}

	files, _ := os.ReadDir(filepath.Dir(path))
	if len(files) != 1 {
		t.Errorf("expected only the log file to remain, got %d files", len(files))
	}
}

func TestFileRunLogEvictsOldest(t *testing.T) {
	log := NewFileRunLog(filepath.Join(t.TempDir(), "log.json"), 3)
	for i := 1; i <= 5; i++ {
		_ = log.Append(core.RunLogEntry{ID: fmt.Sprintf("run-%d", i)})
	}

	entries, _ := log.Entries()
	if len(entries) != 3 || entries[0].ID != "run-3" || entries[2].ID != "run-5" {
		t.Errorf("expected the newest three entries, got %+v", entries)
	}
}

func TestFileRunLogCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	_ = os.WriteFile(path, []byte("{not json"), 0644)
	log := NewFileRunLog(path, 10)

	entries, err := log.Entries()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected corrupt file to read as empty, got %v, %v", entries, err)
	}

	if err := log.Append(core.RunLogEntry{ID: "fresh"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	entries, _ = log.Entries()
	if len(entries) != 1 || entries[0].ID != "fresh" {
		t.Errorf("expected corrupt log to be replaced, got %+v", entries)
	}
}

func TestLastSuccess(t *testing.T) {
	entries := []core.RunLogEntry{
		{ID: "a", Status: core.RunSuccess},
		{ID: "b", Status: core.RunSuccess},
		{ID: "c", Status: core.RunPartial},
	}
	if entry, ok := lastSuccess(entries); !ok || entry.ID != "b" {
		t.Errorf("expected b, got %+v %v", entry, ok)
	}
	if _, ok := lastSuccess(nil); ok {
		t.Error("expected no success in empty log")
	}
}
