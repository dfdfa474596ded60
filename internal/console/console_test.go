package console

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestTranscriptPath(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local)
	got := TranscriptPath(`C:\ProgramData\winsweep\Logs`, "PC01", now)
	if !strings.HasSuffix(got, "PC01-CleanupLogs_20240315-093000.txt") {
		t.Errorf("unexpected transcript name: %q", got)
	}
}

func TestSilentModeStillWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	c := New(false, true, dir, "host1")

	c.Infof("probing %s", "C:")
	c.Successf("stage done")
	c.Verbosef("detail line")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := c.TranscriptFile()
	if path == "" {
		t.Fatal("no transcript opened")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	text := string(data)
	for _, want := range []string{"probing C:", "stage done", "detail line"} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
	if !strings.Contains(text, "[INFO]") || !strings.Contains(text, "[DEBUG]") {
		t.Error("transcript should carry level tags")
	}
}

func TestTranscriptSurvivesBadDirectory(t *testing.T) {
	// A transcript failure degrades to console-only; it must not panic
	// and messages must still be accepted.
	c := New(false, true, string([]byte{0}), "host1")
	c.Infof("still works")
	if c.TranscriptFile() != "" {
		t.Error("expected no transcript for an unusable directory")
	}
	if err := c.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
