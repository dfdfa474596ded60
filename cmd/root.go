package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/winsweep/internal/config"
	"github.com/lakshaymaurya-felt/winsweep/internal/console"
	"github.com/lakshaymaurya-felt/winsweep/internal/engine"
	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

var (
	opts = config.Default()

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "winsweep",
	Short: "Free up disk space before Microsoft 365 upgrades",
	Long: `winsweep - free up disk space on Windows machines.

Deletes temp files, browser caches, Windows Update and Office installer
caches, aged system logs, and old Recycle Bin entries, and optionally runs
the built-in maintenance utilities (Disk Cleanup, DISM component store
cleanup, WMI repository repair). Runs locally or against a remote host
over WinRM. Intended as pre-flight maintenance before Microsoft 365
upgrades, where installer failures are usually low-disk failures.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()

	f.BoolVar(&opts.Local, "local", false, "Run against this machine")
	f.StringVar(&opts.ComputerName, "computer", "", "Remote host to clean over WinRM")
	f.StringVar(&opts.Username, "user", "", "Remote logon user")
	f.StringVar(&opts.Password, "password", "", "Remote logon password")

	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-item detail")
	f.BoolVar(&opts.Silent, "silent", false, "Suppress interactive messages (transcript still written)")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Enumerate and count without deleting anything")
	f.BoolVar(&opts.Aggressive, "aggressive", false, "DISM /ResetBase: more space, update rollback permanently foreclosed")
	f.BoolVar(&opts.RepairWMI, "repair-wmi", false, "Run a WMI repository salvage")

	f.BoolVar(&opts.SkipTemp, "skip-temp", false, "Skip temporary file cleanup")
	f.BoolVar(&opts.SkipBrowsers, "skip-browsers", false, "Skip browser cache cleanup")
	f.BoolVar(&opts.SkipOffice, "skip-office", false, "Skip Office installer cache cleanup")
	f.BoolVar(&opts.SkipUpdates, "skip-updates", false, "Skip Windows Update cache cleanup")
	f.BoolVar(&opts.SkipLogs, "skip-logs", false, "Skip system log pruning")
	f.BoolVar(&opts.SkipRecycleBin, "skip-recycle-bin", false, "Skip Recycle Bin cleanup")
	f.BoolVar(&opts.SkipDiskCleanup, "skip-disk-cleanup", false, "Skip the Disk Cleanup utility")
	f.BoolVar(&opts.SkipComponentStore, "skip-component-store", false, "Skip DISM component store cleanup")

	f.IntVar(&opts.RecycleAgeDays, "recycle-age", opts.RecycleAgeDays, "Recycle Bin retention in days (0-365)")
	f.IntVar(&opts.LogAgeDays, "log-age", opts.LogAgeDays, "System log retention in days (1-365)")
	f.StringVar(&opts.Drive, "drive", opts.Drive, "Target drive letter (e.g. C:)")

	rootCmd.AddCommand(versionCmd)
}

func runSweep(cmd *cobra.Command) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	// Neither --local nor --computer: ask. Empty answer means here.
	if !opts.Local && opts.ComputerName == "" {
		host, err := console.PromptHostName()
		if err != nil {
			return err
		}
		opts.ComputerName = host
	}

	ctx := cmd.Context()
	tgt, err := target.Resolve(ctx, opts.ComputerName, target.Credential{
		Username: opts.Username,
		Password: opts.Password,
	})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "ERROR:", err)
		return err
	}

	c := console.New(opts.Verbose, opts.Silent, config.TranscriptDir(), tgt.HostName)
	defer c.Close()
	if path := c.TranscriptFile(); path != "" {
		c.Verbosef("Transcript: %s", path)
	}

	return engine.New(opts, c, tgt.Exec).Run(ctx)
}
