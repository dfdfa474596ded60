package config

import (
	"fmt"
	"regexp"
)

// drivePattern matches a single drive letter followed by a colon (e.g., "C:").
var drivePattern = regexp.MustCompile(`^[A-Za-z]:$`)

// Options holds the full run configuration. It is populated once from the
// command line and must not be mutated after Validate succeeds.
type Options struct {
	// Target selection. Local and ComputerName are mutually exclusive;
	// if neither is set the caller prompts for a host name.
	Local        bool
	ComputerName string
	Username     string
	Password     string

	// Behavior flags.
	Verbose    bool
	Silent     bool
	DryRun     bool
	Aggressive bool
	RepairWMI  bool

	// Per-stage skip flags.
	SkipTemp           bool
	SkipBrowsers       bool
	SkipOffice         bool
	SkipUpdates        bool
	SkipLogs           bool
	SkipRecycleBin     bool
	SkipDiskCleanup    bool
	SkipComponentStore bool

	// Numeric parameters.
	RecycleAgeDays int    // 0–365, default 3
	LogAgeDays     int    // 1–365, default 30
	Drive          string // single letter + colon, default %SystemDrive%

	// SagesetCategories is the list of Disk Cleanup handlers marked as
	// selected before cleanmgr runs. Defaults to DefaultSagesetCategories;
	// callers may narrow it but the engine never filters it from skip
	// flags (cleanmgr decides what its handlers actually touch).
	SagesetCategories []string
}

// Default returns an Options populated with the documented defaults.
func Default() *Options {
	return &Options{
		RecycleAgeDays:    3,
		LogAgeDays:        30,
		Drive:             SystemDriveLetter(),
		SagesetCategories: DefaultSagesetCategories(),
	}
}

// Validate checks flag combinations and numeric ranges.
func (o *Options) Validate() error {
	if o.Local && o.ComputerName != "" {
		return fmt.Errorf("--local and --computer are mutually exclusive")
	}
	if o.Verbose && o.Silent {
		return fmt.Errorf("--verbose and --silent are mutually exclusive")
	}
	if o.RecycleAgeDays < 0 || o.RecycleAgeDays > 365 {
		return fmt.Errorf("recycle-age must be between 0 and 365 days, got %d", o.RecycleAgeDays)
	}
	if o.LogAgeDays < 1 || o.LogAgeDays > 365 {
		return fmt.Errorf("log-age must be between 1 and 365 days, got %d", o.LogAgeDays)
	}
	if !drivePattern.MatchString(o.Drive) {
		return fmt.Errorf("drive must be a single letter followed by a colon (e.g. C:), got %q", o.Drive)
	}
	return nil
}

// IsRemote reports whether the run targets another machine.
func (o *Options) IsRemote() bool {
	return o.ComputerName != ""
}

// DefaultSagesetCategories is the fixed list of Disk Cleanup volume-cache
// handlers marked as selected before an unattended cleanmgr pass. These are
// the registry key names under Explorer\VolumeCaches.
func DefaultSagesetCategories() []string {
	return []string{
		"Active Setup Temp Folders",
		"BranchCache",
		"Content Indexer Cleaner",
		"D3D Shader Cache",
		"Delivery Optimization Files",
		"Device Driver Packages",
		"Diagnostic Data Viewer database files",
		"Downloaded Program Files",
		"Internet Cache Files",
		"Language Pack",
		"Memory Dump Files",
		"Offline Pages Files",
		"Old ChkDsk Files",
		"Previous Installations",
		"Recycle Bin",
		"RetailDemo Offline Content",
		"Service Pack Cleanup",
		"Setup Log Files",
		"System error memory dump files",
		"System error minidump files",
		"Temporary Files",
		"Temporary Setup Files",
		"Temporary Sync Files",
		"Thumbnail Cache",
		"Update Cleanup",
		"Upgrade Discarded Files",
		"Windows Defender",
		"Windows Error Reporting Files",
	}
}
