package recycle

import (
	"fmt"
	"os"
	"runtime"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

const (
	// ssfBITBUCKET is the shell namespace identifier for the Recycle Bin.
	ssfBITBUCKET = 0x0A

	// detailDateDeleted is the "Date deleted" detail column index within
	// the Recycle Bin folder (0=Name, 1=Original Location, 2=Date Deleted).
	detailDateDeleted = 2
)

// EntryResult records the outcome for one Recycle Bin entry.
type EntryResult struct {
	Name    string
	AgeDays int
	Deleted bool
	Reason  string // empty when Deleted
}

// Result aggregates a Recycle Bin reclamation pass.
type Result struct {
	Scanned int
	Entries []EntryResult
}

// Affected counts entries deleted (or that would be, in dry-run).
func (r Result) Affected() int {
	n := 0
	for _, e := range r.Entries {
		if e.Deleted || e.Reason == "dry run" {
			n++
		}
	}
	return n
}

// Reclaimer permanently deletes Recycle Bin entries at or past the
// retention age. Entries whose deletion date cannot be parsed are kept:
// deletion requires a provable age.
type Reclaimer struct {
	RetentionDays int
	DryRun        bool

	// Log, when set, receives per-entry detail for verbose output.
	Log func(name string, err error)
}

// Reclaim enumerates the Recycle Bin through the Shell.Application COM
// namespace and deletes every entry whose whole-day age is >= the
// retention threshold. The returned error is non-nil only when the
// namespace itself cannot be opened; individual entry failures are
// recorded and skipped. All COM wrappers are released before return and a
// collection is forced so repeated invocations do not accumulate handles.
func (r *Reclaimer) Reclaim() (Result, error) {
	var res Result

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		// S_FALSE means the thread was already initialized; not a failure.
		if !ok || oleErr.Code() != uintptr(1) {
			return res, fmt.Errorf("initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()
	defer runtime.GC()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		return res, fmt.Errorf("create Shell.Application: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return res, fmt.Errorf("query IDispatch: %w", err)
	}
	defer shell.Release()

	folderV, err := oleutil.CallMethod(shell, "Namespace", ssfBITBUCKET)
	if err != nil {
		return res, fmt.Errorf("open Recycle Bin namespace: %w", err)
	}
	folder := folderV.ToIDispatch()
	if folder == nil {
		return res, fmt.Errorf("open Recycle Bin namespace: nil folder")
	}
	defer folder.Release()

	itemsV, err := oleutil.CallMethod(folder, "Items")
	if err != nil {
		return res, fmt.Errorf("enumerate Recycle Bin items: %w", err)
	}
	items := itemsV.ToIDispatch()
	if items == nil {
		return res, fmt.Errorf("enumerate Recycle Bin items: nil collection")
	}
	defer items.Release()

	countV, err := oleutil.GetProperty(items, "Count")
	if err != nil {
		return res, fmt.Errorf("count Recycle Bin items: %w", err)
	}
	count := int(countV.Val)
	res.Scanned = count

	now := time.Now()
	for _, i := range sweepOrder(count) {
		entry := r.reclaimEntry(folder, items, i, now)
		if entry != nil {
			res.Entries = append(res.Entries, *entry)
		}
	}

	return res, nil
}

// sweepOrder returns collection indices highest-first. Deleting an entry
// can shift a live FolderItems collection; descending order keeps the
// indices still to be visited valid.
func sweepOrder(count int) []int {
	order := make([]int, 0, count)
	for i := count - 1; i >= 0; i-- {
		order = append(order, i)
	}
	return order
}

// reclaimEntry processes a single bin entry; a nil return means the item
// handle could not be obtained.
func (r *Reclaimer) reclaimEntry(folder, items *ole.IDispatch, index int, now time.Time) *EntryResult {
	itemV, err := oleutil.CallMethod(items, "Item", index)
	if err != nil {
		return nil
	}
	item := itemV.ToIDispatch()
	if item == nil {
		return nil
	}
	defer item.Release()

	name := ""
	if nameV, err := oleutil.GetProperty(item, "Name"); err == nil {
		name = nameV.ToString()
	}

	detailV, err := oleutil.CallMethod(folder, "GetDetailsOf", item, detailDateDeleted)
	if err != nil {
		return &EntryResult{Name: name, Reason: "no deletion date"}
	}
	deletedAt, err := ParseDeletedTime(detailV.ToString())
	if err != nil {
		if r.Log != nil {
			r.Log(name, err)
		}
		return &EntryResult{Name: name, Reason: "unparseable deletion date"}
	}

	age := AgeDays(now, deletedAt)
	entry := &EntryResult{Name: name, AgeDays: age}
	if age < r.RetentionDays {
		entry.Reason = "within retention"
		return entry
	}

	if r.DryRun {
		entry.Reason = "dry run"
		return entry
	}

	pathV, err := oleutil.GetProperty(item, "Path")
	if err != nil {
		entry.Reason = "no path"
		return entry
	}
	// The entry already lives in the bin; deletion is permanent by design.
	if err := os.RemoveAll(pathV.ToString()); err != nil {
		if r.Log != nil {
			r.Log(name, err)
		}
		entry.Reason = "delete failed"
		return entry
	}
	entry.Deleted = true
	return entry
}
