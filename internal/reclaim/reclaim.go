// Package reclaim implements best-effort filesystem space recovery:
// glob-pattern deletion tolerant of locked files, and age-based log
// pruning. Every operation is idempotent; a pattern with no matches is a
// no-op, never an error.
package reclaim

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// Skip reasons recorded on items that could not be deleted.
const (
	SkipInUse        = "in use"
	SkipAccessDenied = "access denied"
	SkipDryRun       = "dry run"
	SkipOther        = "delete failed"
)

// ItemResult records the outcome for one matched filesystem entry.
type ItemResult struct {
	Path    string
	Deleted bool
	Reason  string // empty when Deleted
}

// PatternResult aggregates one pattern's processing.
type PatternResult struct {
	Pattern string
	Items   []ItemResult
}

// Affected counts entries that were deleted (or would be, in dry-run).
func (r PatternResult) Affected() int {
	n := 0
	for _, it := range r.Items {
		if it.Deleted || it.Reason == SkipDryRun {
			n++
		}
	}
	return n
}

// Reclaimer deletes everything matching glob patterns. Per-entry failures
// are recorded and skipped; the pattern as a whole never fails once
// enumeration has run.
type Reclaimer struct {
	DryRun bool

	// Log, when set, receives per-item detail for verbose output.
	Log func(path string, err error)
}

// ReclaimPattern enumerates the pattern at call time and deletes each
// match, deepest entries first, with a secondary pass over directories
// left behind by locked descendants. The returned error is non-nil only
// for a malformed pattern.
func (r *Reclaimer) ReclaimPattern(pattern string) (PatternResult, error) {
	res := PatternResult{Pattern: pattern}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return res, err
	}
	if len(matches) == 0 {
		return res, nil
	}

	// Deeper entries first reduces "directory not empty" failures.
	sort.SliceStable(matches, func(i, j int) bool {
		return depth(matches[i]) > depth(matches[j])
	})

	for _, m := range matches {
		res.Items = append(res.Items, r.removeEntry(m)...)
	}

	// Secondary pass: directories that survived because one descendant was
	// locked may be removable now that siblings are gone.
	for _, m := range matches {
		if r.DryRun {
			break
		}
		info, err := os.Lstat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := os.RemoveAll(m); err == nil {
			markDeleted(res.Items, m)
		}
	}

	return res, nil
}

// removeEntry deletes a single match. Directories are emptied bottom-up so
// one locked file does not shield its siblings.
func (r *Reclaimer) removeEntry(path string) []ItemResult {
	info, err := os.Lstat(path)
	if err != nil {
		// Vanished between glob and delete; nothing to record.
		return nil
	}

	if !info.IsDir() {
		return []ItemResult{r.removeOne(path)}
	}

	var paths []string
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if r.Log != nil {
				r.Log(p, err)
			}
			return nil
		}
		paths = append(paths, p)
		return nil
	})

	// Bottom-up: files and leaf directories before their parents.
	sort.SliceStable(paths, func(i, j int) bool {
		return depth(paths[i]) > depth(paths[j])
	})

	results := make([]ItemResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, r.removeOne(p))
	}
	return results
}

// removeOne deletes one file or (empty) directory, forcing read-only
// entries, and classifies any failure.
func (r *Reclaimer) removeOne(path string) ItemResult {
	if r.DryRun {
		return ItemResult{Path: path, Reason: SkipDryRun}
	}

	err := os.Remove(path)
	if err != nil && isAccessDenied(err) {
		// Read-only or hidden attribute; clear and retry once.
		if chmodErr := os.Chmod(path, 0o666); chmodErr == nil {
			err = os.Remove(path)
		}
	}
	if err == nil {
		return ItemResult{Path: path, Deleted: true}
	}

	if r.Log != nil {
		r.Log(path, err)
	}
	return ItemResult{Path: path, Reason: classify(err)}
}

// markDeleted flips items under root to deleted after a successful
// secondary-pass removal.
func markDeleted(items []ItemResult, root string) {
	prefix := strings.ToLower(root)
	for i := range items {
		if items[i].Deleted {
			continue
		}
		p := strings.ToLower(items[i].Path)
		if p == prefix || strings.HasPrefix(p, prefix+string(os.PathSeparator)) {
			items[i].Deleted = true
			items[i].Reason = ""
		}
	}
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(os.PathSeparator))
}

// ─── Error classification ────────────────────────────────────────────────────

const (
	// Windows sharing/lock violations surfaced through os.PathError.
	errSharingViolation = syscall.Errno(32)
	errLockViolation    = syscall.Errno(33)
)

func isFileInUse(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == errSharingViolation || errno == errLockViolation
	}
	return strings.Contains(err.Error(), "being used by another process")
}

func isAccessDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		strings.Contains(strings.ToLower(err.Error()), "access is denied")
}

func classify(err error) string {
	switch {
	case isFileInUse(err):
		return SkipInUse
	case isAccessDenied(err):
		return SkipAccessDenied
	default:
		return SkipOther
	}
}
