package reclaim

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneAgedFiles deletes files in dir matching the filename pattern whose
// last-modified time is strictly before now minus retentionDays. A file
// whose name equals exclude (case-insensitive) is never deleted. A missing
// directory counts as zero matches, not an error. Per-file failures are
// skipped. Returns the number of files deleted (or that would be, in
// dry-run).
func (r *Reclaimer) PruneAgedFiles(dir, pattern, exclude string, retentionDays int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		matched, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(name))
		if err != nil {
			return deleted, err
		}
		if !matched {
			continue
		}
		if exclude != "" && strings.EqualFold(name, exclude) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, name)
		if r.DryRun {
			deleted++
			continue
		}
		if err := os.Remove(path); err != nil {
			if r.Log != nil {
				r.Log(path, err)
			}
			continue
		}
		deleted++
	}

	return deleted, nil
}
