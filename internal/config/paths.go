package config

import (
	"os"
	"regexp"
	"strings"
)

// envPattern matches Windows-style %VAR% references.
var envPattern = regexp.MustCompile(`%[A-Za-z_()][A-Za-z0-9_()]*%`)

// CleanTarget represents one category of files a stage reclaims.
type CleanTarget struct {
	// Name is the unique identifier for this target.
	Name string

	// Patterns is the list of glob path patterns to clean. Patterns may
	// contain %VAR% environment references and wildcard segments (the
	// "all user profiles" case). They are resolved lazily at stage
	// execution time, never pre-expanded.
	Patterns []string

	// Description is a human-readable description.
	Description string

	// Stage groups targets by the stage that owns them
	// ("temp", "browser", "office", "updates").
	Stage string
}

// ExpandLocal resolves %VAR% references against the local environment.
// Unset variables expand to the empty string, which drops the pattern
// from globbing (a non-match, not an error).
func ExpandLocal(path string) string {
	return envPattern.ReplaceAllStringFunc(path, func(ref string) string {
		return os.Getenv(ref[1 : len(ref)-1])
	})
}

// ToRemoteScript rewrites %VAR% references into PowerShell $env: syntax
// so the same pattern table drives remote invocations.
func ToRemoteScript(path string) string {
	return envPattern.ReplaceAllStringFunc(path, func(ref string) string {
		return "$env:" + ref[1:len(ref)-1]
	})
}

// SystemDriveLetter returns the system drive (e.g., "C:"), defaulting to
// C: when %SYSTEMDRIVE% is not set.
func SystemDriveLetter() string {
	if d := os.Getenv("SYSTEMDRIVE"); d != "" {
		return strings.ToUpper(d)
	}
	return "C:"
}

// CleanTargets returns the full cleanup target table. Patterns keep their
// %VAR% references so both the local and remote legs can resolve them.
func CleanTargets() []CleanTarget {
	return []CleanTarget{
		// ── Temp files ──────────────────────────────────────────
		{
			Name: "UserTemp",
			Patterns: []string{
				`%TEMP%\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Temp\*`,
			},
			Description: "User temporary files (all profiles)",
			Stage:       "temp",
		},
		{
			Name: "SystemTemp",
			Patterns: []string{
				`%WINDIR%\Temp\*`,
			},
			Description: "System temporary files",
			Stage:       "temp",
		},
		{
			Name: "CrashDumps",
			Patterns: []string{
				`%SYSTEMDRIVE%\Users\*\AppData\Local\CrashDumps\*`,
				`%WINDIR%\Minidump\*`,
			},
			Description: "Application and kernel crash dumps",
			Stage:       "temp",
		},
		{
			Name: "ErrorReports",
			Patterns: []string{
				`%PROGRAMDATA%\Microsoft\Windows\WER\ReportArchive\*`,
				`%PROGRAMDATA%\Microsoft\Windows\WER\ReportQueue\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Windows\WER\ReportArchive\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Windows\WER\ReportQueue\*`,
			},
			Description: "Windows Error Reporting queues",
			Stage:       "temp",
		},

		// ── Browser caches ──────────────────────────────────────
		{
			Name: "ChromeCache",
			Patterns: []string{
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Google\Chrome\User Data\*\Cache\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Google\Chrome\User Data\*\Code Cache\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Google\Chrome\User Data\*\GPUCache\*`,
			},
			Description: "Google Chrome browser cache (all profiles)",
			Stage:       "browser",
		},
		{
			Name: "EdgeCache",
			Patterns: []string{
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Edge\User Data\*\Cache\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Edge\User Data\*\Code Cache\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Edge\User Data\*\GPUCache\*`,
			},
			Description: "Microsoft Edge browser cache (all profiles)",
			Stage:       "browser",
		},
		{
			Name: "FirefoxCache",
			Patterns: []string{
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Mozilla\Firefox\Profiles\*\cache2\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Mozilla\Firefox\Profiles\*\startupCache\*`,
			},
			Description: "Mozilla Firefox browser cache (all profiles)",
			Stage:       "browser",
		},
		{
			Name: "INetCache",
			Patterns: []string{
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Windows\INetCache\*`,
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Windows\Temporary Internet Files\*`,
			},
			Description: "Internet Explorer / legacy WinINet cache",
			Stage:       "browser",
		},

		// ── Office installer cache (guarded by ClickToRunSvc) ───
		{
			Name: "OfficeFileCache",
			Patterns: []string{
				`%SYSTEMDRIVE%\Users\*\AppData\Local\Microsoft\Office\16.0\OfficeFileCache\*`,
				`%PROGRAMDATA%\Microsoft\ClickToRun\ProductReleases\*`,
			},
			Description: "Office Click-to-Run installer and document cache",
			Stage:       "office",
		},

		// ── Windows Update cache (guarded by wuauserv/bits) ─────
		{
			Name: "UpdateDownloads",
			Patterns: []string{
				`%WINDIR%\SoftwareDistribution\Download\*`,
			},
			Description: "Windows Update download cache",
			Stage:       "updates",
		},
	}
}

// TargetsForStage returns the clean targets owned by the given stage.
func TargetsForStage(stage string) []CleanTarget {
	var result []CleanTarget
	for _, t := range CleanTargets() {
		if t.Stage == stage {
			result = append(result, t)
		}
	}
	return result
}

// LogPruneDir describes one directory swept by the aged-log stage: the
// filename pattern to match and the active file excluded from deletion.
type LogPruneDir struct {
	Dir     string // %VAR% references allowed
	Pattern string // filename glob, matched case-insensitively
	Exclude string // active file never deleted
}

// LogPruneDirs lists the system log locations eligible for age-based
// pruning. CBS.log is the currently active servicing log and must survive.
func LogPruneDirs() []LogPruneDir {
	return []LogPruneDir{
		{Dir: `%WINDIR%\Logs\CBS`, Pattern: "*.log", Exclude: "CBS.log"},
		{Dir: `%WINDIR%\Logs\CBS`, Pattern: "*.cab", Exclude: ""},
		{Dir: `%WINDIR%\Logs\WindowsUpdate`, Pattern: "*.etl", Exclude: ""},
		{Dir: `%WINDIR%\Logs\DISM`, Pattern: "*.log", Exclude: "dism.log"},
	}
}

// TranscriptDir is the fixed directory for per-run transcript logs.
func TranscriptDir() string {
	if p := os.Getenv("PROGRAMDATA"); p != "" {
		return p + `\winsweep\Logs`
	}
	return `C:\ProgramData\winsweep\Logs`
}
