package config

import (
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	opts := Default()
	if err := opts.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if opts.RecycleAgeDays != 3 {
		t.Errorf("expected recycle-age default 3, got %d", opts.RecycleAgeDays)
	}
	if opts.LogAgeDays != 30 {
		t.Errorf("expected log-age default 30, got %d", opts.LogAgeDays)
	}
	if len(opts.SagesetCategories) != 28 {
		t.Errorf("expected 28 sageset categories, got %d", len(opts.SagesetCategories))
	}
}

func TestValidate_Ranges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		ok     bool
	}{
		{"recycle age zero", func(o *Options) { o.RecycleAgeDays = 0 }, true},
		{"recycle age max", func(o *Options) { o.RecycleAgeDays = 365 }, true},
		{"recycle age negative", func(o *Options) { o.RecycleAgeDays = -1 }, false},
		{"recycle age over", func(o *Options) { o.RecycleAgeDays = 366 }, false},
		{"log age min", func(o *Options) { o.LogAgeDays = 1 }, true},
		{"log age zero", func(o *Options) { o.LogAgeDays = 0 }, false},
		{"log age over", func(o *Options) { o.LogAgeDays = 400 }, false},
		{"drive lower", func(o *Options) { o.Drive = "d:" }, true},
		{"drive no colon", func(o *Options) { o.Drive = "C" }, false},
		{"drive path", func(o *Options) { o.Drive = `C:\` }, false},
		{"drive multi", func(o *Options) { o.Drive = "CD:" }, false},
		{"local and computer", func(o *Options) { o.Local = true; o.ComputerName = "pc1" }, false},
		{"verbose and silent", func(o *Options) { o.Verbose = true; o.Silent = true }, false},
	}
	for _, tc := range cases {
		opts := Default()
		tc.mutate(opts)
		err := opts.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestExpandLocal(t *testing.T) {
	t.Setenv("WINDIR", `C:\Windows`)
	got := ExpandLocal(`%WINDIR%\Temp\*`)
	if got != `C:\Windows\Temp\*` {
		t.Errorf("expected C:\\Windows\\Temp\\*, got %q", got)
	}

	t.Setenv("WINSWEEP_UNSET_TEST", "")
	got = ExpandLocal(`%WINSWEEP_UNSET_TEST%\x`)
	if got != `\x` {
		t.Errorf("unset variable should expand empty, got %q", got)
	}
}

func TestToRemoteScript(t *testing.T) {
	got := ToRemoteScript(`%WINDIR%\Temp\*`)
	if got != `$env:WINDIR\Temp\*` {
		t.Errorf("expected $env:WINDIR\\Temp\\*, got %q", got)
	}
}

func TestTargetsForStage(t *testing.T) {
	stages := map[string]bool{}
	for _, tgt := range CleanTargets() {
		stages[tgt.Stage] = true
		if len(tgt.Patterns) == 0 {
			t.Errorf("target %s has no patterns", tgt.Name)
		}
	}
	for _, want := range []string{"temp", "browser", "office", "updates"} {
		if !stages[want] {
			t.Errorf("no targets for stage %q", want)
		}
		if len(TargetsForStage(want)) == 0 {
			t.Errorf("TargetsForStage(%q) empty", want)
		}
	}
}

func TestLogPruneDirs_ProtectsActiveCBSLog(t *testing.T) {
	found := false
	for _, d := range LogPruneDirs() {
		if strings.Contains(d.Dir, "CBS") && d.Exclude == "CBS.log" {
			found = true
		}
	}
	if !found {
		t.Error("CBS.log must be excluded from pruning")
	}
}
