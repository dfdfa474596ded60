// Package exttools invokes the OS maintenance utilities: Disk Cleanup
// (cleanmgr), component-store cleanup (DISM), and WMI repository repair
// (winmgmt). Invocations block until the tool exits; component-store
// cleanup in particular can run for tens of minutes and that wait is
// accepted behavior for a maintenance task.
package exttools

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"

	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// DiskCleanupMode selects how cleanmgr runs.
type DiskCleanupMode int

const (
	// DiskCleanupUnattended runs the low-disk handler set with no UI.
	DiskCleanupUnattended DiskCleanupMode = iota
	// DiskCleanupVisible runs the seeded sageset with a progress window.
	DiskCleanupVisible
)

// ComponentCleanupMode selects the DISM pass.
type ComponentCleanupMode int

const (
	// ComponentCleanupConservative removes superseded service-pack files
	// only; applied updates stay uninstallable.
	ComponentCleanupConservative ComponentCleanupMode = iota
	// ComponentCleanupAggressive removes all superseded components and
	// resets the rollback baseline. Irreversible: updates applied before
	// this pass can no longer be uninstalled.
	ComponentCleanupAggressive
)

// sagesetID is the StateFlags profile number seeded before cleanmgr runs
// (StateFlags0064 <-> /sagerun:64).
const sagesetID = 64

// volumeCachesKey is the registry parent of the Disk Cleanup handlers.
const volumeCachesKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\VolumeCaches`

// dismSuccess is the substring DISM prints on a completed operation; exit
// codes alone are unreliable across DISM versions.
const dismSuccess = "The operation completed successfully"

// Invoker shells out to the maintenance utilities on the resolved target.
type Invoker struct {
	Exec       target.Executor
	DryRun     bool
	Categories []string // Disk Cleanup handlers to mark selected
}

// ─── Disk Cleanup (cleanmgr) ─────────────────────────────────────────────────

// RunDiskCleanup seeds the configured handler categories and launches
// cleanmgr in the given mode, waiting for it to finish. In unattended
// mode any exit is treated as success; cleanmgr's exit codes carry no
// meaning there.
func (iv *Invoker) RunDiskCleanup(ctx context.Context, mode DiskCleanupMode) error {
	if iv.DryRun {
		return nil
	}
	if err := iv.seedCategories(ctx); err != nil {
		return fmt.Errorf("seed cleanup categories: %w", err)
	}

	var args []string
	switch mode {
	case DiskCleanupUnattended:
		args = []string{"/verylowdisk"}
	case DiskCleanupVisible:
		args = []string{fmt.Sprintf("/sagerun:%d", sagesetID)}
	}

	res, err := iv.Exec.Run(ctx, "cleanmgr.exe", args...)
	if err != nil {
		return fmt.Errorf("launch cleanmgr: %w", err)
	}
	if mode == DiskCleanupVisible && res.ExitCode != 0 {
		return fmt.Errorf("cleanmgr exited with code %d", res.ExitCode)
	}
	return nil
}

// seedCategories marks each configured handler as selected for the
// sageset profile. Locally this writes the registry directly; remotely it
// goes through PowerShell on the target.
func (iv *Invoker) seedCategories(ctx context.Context) error {
	if iv.Exec.IsRemote() {
		return iv.seedCategoriesRemote(ctx)
	}

	flag := fmt.Sprintf("StateFlags%04d", sagesetID)
	for _, cat := range iv.Categories {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, volumeCachesKey+`\`+cat, registry.SET_VALUE)
		if err != nil {
			// Handler not present on this Windows build; skip it.
			continue
		}
		err = key.SetDWordValue(flag, 2)
		key.Close()
		if err != nil {
			return fmt.Errorf("set %s on %s: %w", flag, cat, err)
		}
	}
	return nil
}

func (iv *Invoker) seedCategoriesRemote(ctx context.Context) error {
	var b strings.Builder
	flag := fmt.Sprintf("StateFlags%04d", sagesetID)
	for _, cat := range iv.Categories {
		fmt.Fprintf(&b,
			"Set-ItemProperty -Path 'HKLM:\\%s\\%s' -Name %s -Value 2 -Type DWord -ErrorAction SilentlyContinue\n",
			volumeCachesKey, cat, flag)
	}
	res, err := iv.Exec.PowerShell(ctx, b.String())
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("remote seeding exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ─── Component store (DISM) ──────────────────────────────────────────────────

// RunComponentCleanup invokes DISM against the online image. Success is
// determined by the completion message in the tool's output, not the exit
// code. The aggressive mode's rollback foreclosure is the caller's
// decision; it is surfaced through ComponentCleanupMode, never defaulted.
func (iv *Invoker) RunComponentCleanup(ctx context.Context, mode ComponentCleanupMode) error {
	if iv.DryRun {
		return nil
	}

	args := []string{"/Online", "/Cleanup-Image"}
	switch mode {
	case ComponentCleanupConservative:
		args = append(args, "/SPSuperseded")
	case ComponentCleanupAggressive:
		args = append(args, "/StartComponentCleanup", "/ResetBase")
	}

	res, err := iv.Exec.Run(ctx, "Dism.exe", args...)
	if err != nil {
		return fmt.Errorf("launch dism: %w", err)
	}
	if !strings.Contains(res.Stdout, dismSuccess) {
		return fmt.Errorf("dism did not report success (exit %d): %s", res.ExitCode, lastLine(res.Stdout))
	}
	return nil
}

// ─── WMI repository (winmgmt) ────────────────────────────────────────────────

// RepairWMIRepository runs a consistency salvage on the WMI repository.
// Any invocation that launches and exits is treated as success.
func (iv *Invoker) RepairWMIRepository(ctx context.Context) error {
	if iv.DryRun {
		return nil
	}
	_, err := iv.Exec.Run(ctx, "Winmgmt", "/salvagerepository")
	if err != nil {
		return fmt.Errorf("launch winmgmt: %w", err)
	}
	return nil
}

// lastLine returns the final non-empty output line for error context.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
