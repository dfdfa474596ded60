package space

import (
	"testing"
)

func TestRoundGB(t *testing.T) {
	cases := []struct {
		bytes uint64
		want  float64
	}{
		{0, 0},
		{1073741824, 1.0},
		{1610612736, 1.5},
		{123456789012, 114.98},
	}
	for _, tc := range cases {
		if got := RoundGB(tc.bytes); got != tc.want {
			t.Errorf("RoundGB(%d) = %v, want %v", tc.bytes, got, tc.want)
		}
	}
}

func TestParseRemoteFreeSpace(t *testing.T) {
	output := "\n\nFreeSpace : 53687091200\n\n\n"
	got, err := ParseRemoteFreeSpace(output, "C:")
	if err != nil {
		t.Fatalf("ParseRemoteFreeSpace failed: %v", err)
	}
	if got != 53687091200 {
		t.Errorf("expected 53687091200, got %d", got)
	}
}

func TestParseRemoteFreeSpace_MissingDrive(t *testing.T) {
	// Get-CimInstance prints nothing for a filter with no matches.
	if _, err := ParseRemoteFreeSpace("", "Q:"); err == nil {
		t.Fatal("empty output must be a distinct error, not zero")
	}
}
