// Package recycle reclaims Recycle Bin entries older than a retention
// threshold, enumerated through the shell namespace.
package recycle

import (
	"fmt"
	"strings"
	"time"
)

// deletedTimeLayouts are the observed formats of the shell's "Date deleted"
// detail column across locales. Tried in order.
var deletedTimeLayouts = []string{
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"02/01/2006 15:04",
	"02.01.2006 15:04",
	"2006-01-02 15:04",
	"2/1/2006 15:04:05",
}

// StripBidiControls removes the Unicode bidirectional control characters
// the shell injects into detail strings (LRM/RLM, embedding and isolate
// marks). Without this the timestamp never parses.
func StripBidiControls(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x200E || r == 0x200F:
			return -1
		case r >= 0x202A && r <= 0x202E:
			return -1
		case r >= 0x2066 && r <= 0x2069:
			return -1
		}
		return r
	}, s)
}

// ParseDeletedTime parses the shell's "Date deleted" detail value into a
// timestamp, tolerating injected bidi controls and surrounding whitespace.
func ParseDeletedTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(StripBidiControls(raw))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date-deleted value")
	}
	for _, layout := range deletedTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-deleted value %q", s)
}

// AgeDays returns the whole-day age of deletedAt relative to now. Entries
// with timestamps in the future age as zero.
func AgeDays(now, deletedAt time.Time) int {
	d := now.Sub(deletedAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
