package space

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sys/windows"

	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// Summary is the system snapshot written to the transcript header.
type Summary struct {
	Hostname string
	OS       string
	Uptime   time.Duration
	TotalRAM uint64 // bytes, zero when unknown
}

// Collect gathers the summary for the target. Remote collection goes over
// the executor; any partial failure degrades to empty fields since the
// summary is informational only.
func Collect(ctx context.Context, exec target.Executor) Summary {
	if exec.IsRemote() {
		return collectRemote(ctx, exec)
	}
	return collectLocal(exec.Host())
}

func collectLocal(hostname string) Summary {
	s := Summary{Hostname: hostname, OS: windowsVersionString()}
	if info, err := host.Info(); err == nil {
		s.Uptime = time.Duration(info.Uptime) * time.Second
		if s.Hostname == "" {
			s.Hostname = info.Hostname
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalRAM = vm.Total
	}
	return s
}

func collectRemote(ctx context.Context, exec target.Executor) Summary {
	s := Summary{Hostname: exec.Host()}
	res, err := exec.PowerShell(ctx,
		"Get-CimInstance Win32_OperatingSystem | Select-Object Caption | Format-List")
	if err == nil && res.ExitCode == 0 {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if i := strings.Index(line, ":"); i > 0 && strings.Contains(line, "Caption") {
				s.OS = strings.TrimSpace(line[i+1:])
				break
			}
		}
	}
	return s
}

// windowsVersionString returns a human-readable Windows version string.
// RtlGetNtVersionNumbers works on all Windows versions without manifest
// requirements; the build number's high bits must be masked off.
func windowsVersionString() string {
	major, minor, build := windows.RtlGetNtVersionNumbers()
	build &= 0xFFFF

	var name string
	switch {
	case major == 10 && build >= 22000:
		name = "Windows 11"
	case major == 10:
		name = "Windows 10"
	case major == 6 && minor == 3:
		name = "Windows 8.1"
	case major == 6 && minor == 1:
		name = "Windows 7"
	default:
		name = fmt.Sprintf("Windows %d.%d", major, minor)
	}
	return fmt.Sprintf("%s (Build %d)", name, build)
}
