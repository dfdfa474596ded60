package reclaim

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeAged creates a file whose modification time is the given number of
// days in the past.
func writeAged(t *testing.T, dir, name string, ageDays int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("log"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	when := time.Now().AddDate(0, 0, -ageDays)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestPruneAgedFiles_DeletesOnlyOlderThanRetention(t *testing.T) {
	dir := t.TempDir()
	old1 := writeAged(t, dir, "old1.log", 45)
	old2 := writeAged(t, dir, "old2.log", 31)
	fresh := writeAged(t, dir, "fresh.log", 10)

	r := &Reclaimer{}
	n, err := r.PruneAgedFiles(dir, "*.log", "", 30)
	if err != nil {
		t.Fatalf("PruneAgedFiles failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	for _, gone := range []string{old1, old2} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("%s should have been deleted", gone)
		}
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh.log should survive: %v", err)
	}
}

func TestPruneAgedFiles_ExcludesActiveLog(t *testing.T) {
	dir := t.TempDir()
	active := writeAged(t, dir, "CBS.log", 90)
	writeAged(t, dir, "CbsPersist_1.log", 90)

	r := &Reclaimer{}
	n, err := r.PruneAgedFiles(dir, "*.log", "CBS.log", 30)
	if err != nil {
		t.Fatalf("PruneAgedFiles failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := os.Stat(active); err != nil {
		t.Errorf("active log must never be deleted: %v", err)
	}
}

func TestPruneAgedFiles_ExclusionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	active := writeAged(t, dir, "cbs.LOG", 90)

	r := &Reclaimer{}
	n, err := r.PruneAgedFiles(dir, "*.log", "CBS.log", 30)
	if err != nil {
		t.Fatalf("PruneAgedFiles failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 deleted, got %d", n)
	}
	if _, err := os.Stat(active); err != nil {
		t.Errorf("active log deleted despite case difference: %v", err)
	}
}

func TestPruneAgedFiles_MissingDirIsZero(t *testing.T) {
	r := &Reclaimer{}
	n, err := r.PruneAgedFiles(filepath.Join(t.TempDir(), "absent"), "*.log", "", 30)
	if err != nil {
		t.Fatalf("missing directory must not error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}

func TestPruneAgedFiles_PatternFilter(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "trace.etl", 60)
	keep := writeAged(t, dir, "notes.txt", 60)

	r := &Reclaimer{}
	n, err := r.PruneAgedFiles(dir, "*.etl", "", 30)
	if err != nil {
		t.Fatalf("PruneAgedFiles failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("non-matching file deleted: %v", err)
	}
}

func TestPruneAgedFiles_DryRunCountsWithoutDeleting(t *testing.T) {
	dir := t.TempDir()
	path := writeAged(t, dir, "old.log", 60)

	r := &Reclaimer{DryRun: true}
	n, err := r.PruneAgedFiles(dir, "*.log", "", 30)
	if err != nil {
		t.Fatalf("PruneAgedFiles failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("dry run deleted file: %v", err)
	}
}

func TestPruneAgedFiles_RetentionBoundaries(t *testing.T) {
	for _, retention := range []int{1, 30, 365} {
		dir := t.TempDir()
		writeAged(t, dir, "older.log", retention+1)
		newer := writeAged(t, dir, "newer.log", retention-1)

		r := &Reclaimer{}
		n, err := r.PruneAgedFiles(dir, "*.log", "", retention)
		if err != nil {
			t.Fatalf("retention %d: %v", retention, err)
		}
		if n != 1 {
			t.Errorf("retention %d: expected 1 deleted, got %d", retention, n)
		}
		if _, err := os.Stat(newer); err != nil {
			t.Errorf("retention %d: newer file deleted: %v", retention, err)
		}
	}
}
