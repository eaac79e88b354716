package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"songforge/internal/logging"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.log")
	fresh := filepath.Join(dir, "fresh.log")
	kept := filepath.Join(dir, "active.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, fresh, kept, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "*.log",
		Exclude: []string{kept},
	})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("old log should be pruned: %v", err)
	}
	for _, path := range []string{fresh, kept, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s should survive: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stale := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir, Pattern: "*.log"})

	if _, err := os.Stat(old); err != nil {
		t.Fatalf("retention 0 must not prune: %v", err)
	}
}
