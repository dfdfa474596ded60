// Package space probes a volume's free space on the local or remote
// target and collects the system summary written to the transcript
// header. A volume that cannot be queried is a hard error, never a silent
// zero: the engine aborts the run on it before any destructive stage.
package space

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/yusufpapurcu/wmi"

	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// win32LogicalDisk maps the WMI class used as the local fallback query.
type win32LogicalDisk struct {
	DeviceID  string
	FreeSpace uint64
}

var remoteFreePattern = regexp.MustCompile(`FreeSpace\s*:?\s*(\d+)`)

// FreeGB returns the drive's free space in gigabytes rounded to two
// decimals. The drive is a letter plus colon ("C:").
func FreeGB(ctx context.Context, exec target.Executor, drive string) (float64, error) {
	bytes, err := freeBytes(ctx, exec, drive)
	if err != nil {
		return 0, err
	}
	return RoundGB(bytes), nil
}

// RoundGB converts a byte count to gigabytes with two-decimal rounding.
func RoundGB(bytes uint64) float64 {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	return math.Round(gb*100) / 100
}

func freeBytes(ctx context.Context, exec target.Executor, drive string) (uint64, error) {
	if exec.IsRemote() {
		return remoteFreeBytes(ctx, exec, drive)
	}
	return localFreeBytes(drive)
}

func localFreeBytes(drive string) (uint64, error) {
	usage, err := disk.Usage(drive + `\`)
	if err == nil {
		return usage.Free, nil
	}

	// gopsutil can miss volumes without a mount path; fall back to WMI.
	var disks []win32LogicalDisk
	query := fmt.Sprintf("SELECT DeviceID, FreeSpace FROM Win32_LogicalDisk WHERE DeviceID = '%s'", drive)
	if wmiErr := wmi.Query(query, &disks); wmiErr != nil {
		return 0, fmt.Errorf("query free space on %s: %w (wmi: %v)", drive, err, wmiErr)
	}
	if len(disks) == 0 {
		return 0, fmt.Errorf("drive %s does not exist", drive)
	}
	return disks[0].FreeSpace, nil
}

func remoteFreeBytes(ctx context.Context, exec target.Executor, drive string) (uint64, error) {
	script := fmt.Sprintf(
		"Get-CimInstance Win32_LogicalDisk -Filter \"DeviceID='%s'\" | Select-Object FreeSpace | Format-List",
		drive)
	res, err := exec.PowerShell(ctx, script)
	if err != nil {
		return 0, fmt.Errorf("query free space on %s %s: %w", exec.Host(), drive, err)
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("query free space on %s %s: exit %d: %s",
			exec.Host(), drive, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return ParseRemoteFreeSpace(res.Stdout, drive)
}

// ParseRemoteFreeSpace extracts the FreeSpace value from a Format-List
// rendering of Win32_LogicalDisk. Empty output means the drive does not
// exist on the target.
func ParseRemoteFreeSpace(output, drive string) (uint64, error) {
	m := remoteFreePattern.FindStringSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("drive %s does not exist on target", drive)
	}
	v, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse free space %q: %w", m[1], err)
	}
	return v, nil
}
