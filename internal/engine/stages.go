package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakshaymaurya-felt/winsweep/internal/config"
	"github.com/lakshaymaurya-felt/winsweep/internal/exttools"
	"github.com/lakshaymaurya-felt/winsweep/internal/reclaim"
	"github.com/lakshaymaurya-felt/winsweep/internal/recycle"
	"github.com/lakshaymaurya-felt/winsweep/internal/svcguard"
	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// buildStages assembles the fixed-order stage list from the options.
func (e *Engine) buildStages() []Stage {
	opts := e.Opts
	return []Stage{
		{Name: "Temporary files", Skip: opts.SkipTemp, Run: e.reclaimStage("temp", nil)},
		{Name: "Browser caches", Skip: opts.SkipBrowsers, Run: e.reclaimStage("browser", nil)},
		{Name: "Office installer cache", Skip: opts.SkipOffice,
			Run: e.reclaimStage("office", []string{"ClickToRunSvc"})},
		{Name: "Windows Update cache", Skip: opts.SkipUpdates,
			Run: e.reclaimStage("updates", []string{"wuauserv", "bits"})},
		{Name: "System log pruning", Skip: opts.SkipLogs, Run: e.logPruneStage},
		{Name: "Recycle Bin", Skip: opts.SkipRecycleBin, Run: e.recycleStage},
		{Name: "Disk Cleanup utility", Skip: opts.SkipDiskCleanup, Run: e.diskCleanupStage},
		{Name: "Component store cleanup", Skip: opts.SkipComponentStore, Run: e.componentStoreStage},
		{Name: "WMI repository repair", Skip: !opts.RepairWMI, Run: e.wmiRepairStage},
	}
}

// ─── Path reclamation stages ─────────────────────────────────────────────────

// reclaimStage builds a stage that deletes everything matching the given
// target group's patterns, optionally guarded by services that hold the
// paths open.
func (e *Engine) reclaimStage(group string, services []string) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		cleanup := func(ctx context.Context) (int, error) {
			return e.reclaimGroup(ctx, group)
		}
		if len(services) == 0 {
			return cleanup(ctx)
		}

		guard := &svcguard.Guard{
			Services:   services,
			Controller: e.Controller,
			DryRun:     e.Opts.DryRun,
		}
		res, err := guard.Run(ctx, cleanup)
		for _, name := range res.ServicesAbsent {
			e.Console.Infof("Service %s is not installed; cleaning without guard", name)
		}
		for _, name := range res.ServicesStopped {
			e.Console.Verbosef("Stopped service %s for the duration of the cleanup", name)
		}
		for _, name := range res.RestartFailed {
			e.Console.Warnf("Service %s did not restart; it will start on next demand", name)
		}
		return res.ItemsAffected, err
	}
}

func (e *Engine) reclaimGroup(ctx context.Context, group string) (int, error) {
	targets := config.TargetsForStage(group)
	if e.Exec.IsRemote() {
		return e.reclaimGroupRemote(ctx, targets)
	}

	r := &reclaim.Reclaimer{
		DryRun: e.Opts.DryRun,
		Log: func(path string, err error) {
			e.Console.Verbosef("skip %s: %v", path, err)
		},
	}

	total := 0
	for _, t := range targets {
		e.Console.Verbosef("%s: %s", t.Name, t.Description)
		for _, pattern := range t.Patterns {
			expanded := config.ExpandLocal(pattern)
			// An unset environment variable leaves a rootless pattern;
			// never let that glob from the filesystem root.
			if expanded == "" || strings.HasPrefix(expanded, `\`) {
				continue
			}
			res, err := r.ReclaimPattern(expanded)
			if err != nil {
				e.Console.Verbosef("bad pattern %s: %v", expanded, err)
				continue
			}
			total += res.Affected()
		}
	}
	return total, nil
}

func (e *Engine) reclaimGroupRemote(ctx context.Context, targets []config.CleanTarget) (int, error) {
	var patterns []string
	for _, t := range targets {
		for _, p := range t.Patterns {
			patterns = append(patterns, config.ToRemoteScript(p))
		}
	}
	res, err := e.Exec.PowerShell(ctx, remoteReclaimScript(patterns, e.Opts.DryRun))
	if err != nil {
		return 0, err
	}
	return target.ParseAffected(res.Stdout)
}

// ─── Aged log pruning ────────────────────────────────────────────────────────

func (e *Engine) logPruneStage(ctx context.Context) (int, error) {
	if e.Exec.IsRemote() {
		return e.logPruneRemote(ctx)
	}

	r := &reclaim.Reclaimer{
		DryRun: e.Opts.DryRun,
		Log: func(path string, err error) {
			e.Console.Verbosef("skip %s: %v", path, err)
		},
	}

	total := 0
	for _, d := range config.LogPruneDirs() {
		dir := config.ExpandLocal(d.Dir)
		n, err := r.PruneAgedFiles(dir, d.Pattern, d.Exclude, e.Opts.LogAgeDays)
		if err != nil {
			e.Console.Verbosef("prune %s: %v", dir, err)
			continue
		}
		total += n
	}
	return total, nil
}

func (e *Engine) logPruneRemote(ctx context.Context) (int, error) {
	var b strings.Builder
	b.WriteString("$n = 0\n")
	fmt.Fprintf(&b, "$cutoff = (Get-Date).AddDays(-%d)\n", e.Opts.LogAgeDays)
	for _, d := range config.LogPruneDirs() {
		dir := config.ToRemoteScript(d.Dir)
		fmt.Fprintf(&b, "$files = @(Get-ChildItem -Path \"%s\" -Filter \"%s\" -File -ErrorAction SilentlyContinue |"+
			" Where-Object { $_.LastWriteTime -lt $cutoff", dir, d.Pattern)
		if d.Exclude != "" {
			fmt.Fprintf(&b, " -and $_.Name -ne \"%s\"", d.Exclude)
		}
		b.WriteString(" })\n")
		if e.Opts.DryRun {
			b.WriteString("$n += $files.Count\n")
		} else {
			b.WriteString("foreach ($f in $files) { Remove-Item -LiteralPath $f.FullName -Force -ErrorAction SilentlyContinue; if (-not (Test-Path -LiteralPath $f.FullName)) { $n++ } }\n")
		}
	}
	b.WriteString("Write-Output (\"Affected: \" + $n)\n")

	res, err := e.Exec.PowerShell(ctx, b.String())
	if err != nil {
		return 0, err
	}
	return target.ParseAffected(res.Stdout)
}

// ─── Recycle Bin ─────────────────────────────────────────────────────────────

func (e *Engine) recycleStage(ctx context.Context) (int, error) {
	if e.Exec.IsRemote() {
		res, err := e.Exec.PowerShell(ctx, recycle.RemoteScript(e.Opts.RecycleAgeDays, e.Opts.DryRun))
		if err != nil {
			return 0, err
		}
		if res.ExitCode != 0 {
			return 0, fmt.Errorf("remote recycle sweep exited %d: %s",
				res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		return target.ParseAffected(res.Stdout)
	}

	if size, items, err := recycle.QueryBin(); err == nil {
		e.Console.Verbosef("Recycle Bin holds %d item(s), %.2f GB", items, float64(size)/(1024*1024*1024))
	}

	r := &recycle.Reclaimer{
		RetentionDays: e.Opts.RecycleAgeDays,
		DryRun:        e.Opts.DryRun,
		Log: func(name string, err error) {
			e.Console.Verbosef("skip recycle entry %s: %v", name, err)
		},
	}
	res, err := r.Reclaim()
	if err != nil {
		return 0, err
	}
	e.Console.Verbosef("Scanned %d Recycle Bin entries", res.Scanned)
	return res.Affected(), nil
}

// ─── External tools ──────────────────────────────────────────────────────────

func (e *Engine) invoker() *exttools.Invoker {
	return &exttools.Invoker{
		Exec:       e.Exec,
		DryRun:     e.Opts.DryRun,
		Categories: e.Opts.SagesetCategories,
	}
}

func (e *Engine) diskCleanupStage(ctx context.Context) (int, error) {
	// Visible progress only for a verbose local run; automation and
	// remote runs get the unattended low-disk pass.
	mode := exttools.DiskCleanupUnattended
	if e.Opts.Verbose && !e.Exec.IsRemote() {
		mode = exttools.DiskCleanupVisible
	}
	return 0, e.invoker().RunDiskCleanup(ctx, mode)
}

func (e *Engine) componentStoreStage(ctx context.Context) (int, error) {
	mode := exttools.ComponentCleanupConservative
	if e.Opts.Aggressive {
		mode = exttools.ComponentCleanupAggressive
		e.Console.Warnf("Aggressive component cleanup: previously applied updates can no longer be rolled back")
	}
	return 0, e.invoker().RunComponentCleanup(ctx, mode)
}

func (e *Engine) wmiRepairStage(ctx context.Context) (int, error) {
	return 0, e.invoker().RepairWMIRepository(ctx)
}

// ─── Remote helpers ──────────────────────────────────────────────────────────

// remoteReclaimScript builds the PowerShell sweep for a pattern list,
// deleting deepest entries via -Recurse and tolerating locked files. In
// dry-run mode entries are counted only.
func remoteReclaimScript(patterns []string, dryRun bool) string {
	var b strings.Builder
	b.WriteString("$n = 0\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "$items = @(Get-ChildItem -Path \"%s\" -Force -ErrorAction SilentlyContinue)\n", p)
		if dryRun {
			b.WriteString("$n += $items.Count\n")
		} else {
			b.WriteString("foreach ($i in $items) { Remove-Item -LiteralPath $i.FullName -Recurse -Force -ErrorAction SilentlyContinue; if (-not (Test-Path -LiteralPath $i.FullName)) { $n++ } }\n")
		}
	}
	b.WriteString("Write-Output (\"Affected: \" + $n)\n")
	return b.String()
}
