package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/lakshaymaurya-felt/winsweep/internal/config"
	"github.com/lakshaymaurya-felt/winsweep/internal/console"
	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// scriptedExec plays a reachable (or unreachable) remote host. Reachable
// hosts answer each script by what it queries for.
type scriptedExec struct {
	unreachable bool
	scripts     []string
	runs        [][]string
}

func (s *scriptedExec) Host() string   { return "remotebox" }
func (s *scriptedExec) IsRemote() bool { return true }

func (s *scriptedExec) Run(ctx context.Context, name string, args ...string) (target.Result, error) {
	s.runs = append(s.runs, append([]string{name}, args...))
	return target.Result{}, nil
}

func (s *scriptedExec) PowerShell(ctx context.Context, script string) (target.Result, error) {
	s.scripts = append(s.scripts, script)
	if s.unreachable {
		return target.Result{}, errors.New("winrm remotebox: connection refused")
	}
	switch {
	case strings.Contains(script, "FreeSpace"):
		return target.Result{Stdout: "FreeSpace : 53687091200"}, nil
	case strings.Contains(script, "Affected"):
		return target.Result{Stdout: "Affected: 0"}, nil
	default:
		return target.Result{Stdout: "Caption : Microsoft Windows 10 Pro"}, nil
	}
}

func testEngine(t *testing.T, opts *config.Options) *Engine {
	t.Helper()
	return &Engine{
		Opts:    opts,
		Console: console.New(false, true, t.TempDir(), "test"),
	}
}

func TestRun_UnreachableTargetAbortsBeforeStages(t *testing.T) {
	exec := &scriptedExec{unreachable: true}
	c := console.New(false, true, t.TempDir(), "remotebox")
	defer c.Close()

	e := New(config.Default(), c, exec)
	if err := e.Run(context.Background()); err == nil {
		t.Fatal("an undeterminable free-space probe must abort the run")
	}

	// Only the summary collection and the failed probe may have gone
	// over the wire; no stage script and no command.
	if len(exec.scripts) != 2 {
		t.Fatalf("expected 2 scripts (summary, probe), got %d", len(exec.scripts))
	}
	if len(exec.runs) != 0 {
		t.Errorf("no commands may run after a failed probe: %v", exec.runs)
	}
}

func TestRun_DryRunSucceedsAndWritesTranscript(t *testing.T) {
	exec := &scriptedExec{}
	opts := config.Default()
	opts.DryRun = true
	c := console.New(false, true, t.TempDir(), "remotebox")

	e := New(opts, c, exec)
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("dry run must succeed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close transcript: %v", err)
	}

	// Dry run issues counting scripts and service queries only; nothing
	// that launches a tool or changes state.
	for _, r := range exec.runs {
		if r[0] != "sc" || len(r) < 2 || r[1] != "query" {
			t.Errorf("dry run issued state-changing command %v", r)
		}
	}

	path := c.TranscriptFile()
	if path == "" {
		t.Fatal("no transcript opened")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("transcript must not be empty")
	}
	if !strings.Contains(string(data), "Dry run") {
		t.Error("transcript should record the dry-run notice")
	}
}

func TestRunStages_FailOpen(t *testing.T) {
	e := testEngine(t, config.Default())

	var order []string
	stages := []Stage{
		{Name: "first", Run: func(ctx context.Context) (int, error) {
			order = append(order, "first")
			return 1, nil
		}},
		{Name: "failing", Run: func(ctx context.Context) (int, error) {
			order = append(order, "failing")
			return 0, errors.New("boom")
		}},
		{Name: "last", Run: func(ctx context.Context) (int, error) {
			order = append(order, "last")
			return 2, nil
		}},
	}

	results := e.RunStages(context.Background(), stages)

	if len(order) != 3 || order[2] != "last" {
		t.Fatalf("a stage failure must not stop later stages, ran %v", order)
	}
	if results[1].Err == nil {
		t.Error("failing stage's error must be recorded")
	}
	if results[0].Items != 1 || results[2].Items != 2 {
		t.Errorf("item counts not recorded: %+v", results)
	}
}

func TestRunStages_SkipIsRecordedAndNotRun(t *testing.T) {
	e := testEngine(t, config.Default())

	ran := false
	stages := []Stage{
		{Name: "skipped", Skip: true, Run: func(ctx context.Context) (int, error) {
			ran = true
			return 0, nil
		}},
	}
	results := e.RunStages(context.Background(), stages)

	if ran {
		t.Error("skipped stage must not run")
	}
	if len(results) != 1 || !results[0].Skipped {
		t.Errorf("skip not recorded: %+v", results)
	}
}

func TestBuildStages_OrderAndSkips(t *testing.T) {
	opts := config.Default()
	opts.SkipBrowsers = true
	opts.SkipComponentStore = true
	e := testEngine(t, opts)

	stages := e.buildStages()
	wantOrder := []string{
		"Temporary files",
		"Browser caches",
		"Office installer cache",
		"Windows Update cache",
		"System log pruning",
		"Recycle Bin",
		"Disk Cleanup utility",
		"Component store cleanup",
		"WMI repository repair",
	}
	if len(stages) != len(wantOrder) {
		t.Fatalf("expected %d stages, got %d", len(wantOrder), len(stages))
	}
	for i, want := range wantOrder {
		if stages[i].Name != want {
			t.Errorf("stage %d = %q, want %q", i, stages[i].Name, want)
		}
	}

	skips := map[string]bool{}
	for _, st := range stages {
		skips[st.Name] = st.Skip
	}
	if !skips["Browser caches"] || !skips["Component store cleanup"] {
		t.Error("skip flags not honored")
	}
	if skips["Temporary files"] {
		t.Error("unskipped stage marked skipped")
	}
	// WMI repair is opt-in: skipped unless --repair-wmi.
	if !skips["WMI repository repair"] {
		t.Error("WMI repair must be skipped by default")
	}
}

func TestBuildStages_RepairWMIOptIn(t *testing.T) {
	opts := config.Default()
	opts.RepairWMI = true
	e := testEngine(t, opts)

	for _, st := range e.buildStages() {
		if st.Name == "WMI repository repair" && st.Skip {
			t.Error("--repair-wmi must enable the repair stage")
		}
	}
}

func TestRemoteReclaimScript(t *testing.T) {
	patterns := []string{`$env:WINDIR\Temp\*`}

	real := remoteReclaimScript(patterns, false)
	if !strings.Contains(real, "Remove-Item") {
		t.Error("real script must delete")
	}
	if !strings.Contains(real, patterns[0]) {
		t.Error("pattern missing from script")
	}

	dry := remoteReclaimScript(patterns, true)
	if strings.Contains(dry, "Remove-Item") {
		t.Error("dry-run script must not delete")
	}
	if !strings.Contains(dry, "Affected:") {
		t.Error("dry-run script must still report a count")
	}
}
