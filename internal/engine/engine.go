// Package engine drives a cleanup run: resolve free space, execute the
// enabled stages in a fixed order, probe again, report the delta. Stages
// are fail-open: a failed stage is reported and the run continues. Only
// the initial free-space probe (and, upstream, target resolution) aborts
// the run.
package engine

import (
	"context"
	"time"

	"github.com/lakshaymaurya-felt/winsweep/internal/config"
	"github.com/lakshaymaurya-felt/winsweep/internal/console"
	"github.com/lakshaymaurya-felt/winsweep/internal/space"
	"github.com/lakshaymaurya-felt/winsweep/internal/svcguard"
	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// Stage is one independently skippable cleanup operation.
type Stage struct {
	Name string
	Skip bool
	Run  func(ctx context.Context) (int, error)
}

// StageResult records one stage's outcome for the final report.
type StageResult struct {
	Name     string
	Skipped  bool
	Items    int
	Err      error
	Duration time.Duration
}

// Engine holds everything one run needs.
type Engine struct {
	Opts       *config.Options
	Console    *console.Console
	Exec       target.Executor
	Controller svcguard.Controller
}

// New wires an engine for the resolved target, choosing the service
// controller to match the transport.
func New(opts *config.Options, c *console.Console, exec target.Executor) *Engine {
	var ctrl svcguard.Controller
	if exec.IsRemote() {
		ctrl = svcguard.RemoteController{Exec: exec}
	} else {
		ctrl = svcguard.LocalController{}
	}
	return &Engine{Opts: opts, Console: c, Exec: exec, Controller: ctrl}
}

// Run performs the full cleanup pass. The returned error is non-nil only
// for the fatal precondition (free space undeterminable); stage failures
// are reported through the console and do not surface here.
func (e *Engine) Run(ctx context.Context) error {
	c := e.Console
	opts := e.Opts

	sum := space.Collect(ctx, e.Exec)
	c.Infof("Target: %s", sum.Hostname)
	if sum.OS != "" {
		c.Infof("OS: %s", sum.OS)
	}
	if sum.Uptime > 0 {
		c.Verbosef("Uptime: %s, RAM: %.1f GB", sum.Uptime.Round(time.Minute), space.RoundGB(sum.TotalRAM))
	}
	if opts.DryRun {
		c.Infof("Dry run: nothing will be deleted")
	}

	initial, err := space.FreeGB(ctx, e.Exec, opts.Drive)
	if err != nil {
		c.Errorf("Cannot determine free space on %s: %v", opts.Drive, err)
		return err
	}
	c.Infof("Free space on %s before cleanup: %.2f GB", opts.Drive, initial)

	e.RunStages(ctx, e.buildStages())

	final, err := space.FreeGB(ctx, e.Exec, opts.Drive)
	if err != nil {
		// The destructive work already happened; a failed final probe
		// costs only the delta line.
		c.Warnf("Cannot determine free space after cleanup: %v", err)
		return nil
	}
	c.Infof("Free space on %s after cleanup: %.2f GB", opts.Drive, final)
	c.Successf("Recovered %.2f GB on %s", final-initial, opts.Drive)
	return nil
}

// RunStages executes stages strictly sequentially in order, fail-open.
func (e *Engine) RunStages(ctx context.Context, stages []Stage) []StageResult {
	results := make([]StageResult, 0, len(stages))
	for _, st := range stages {
		if st.Skip {
			e.Console.Verbosef("Skipping stage: %s", st.Name)
			results = append(results, StageResult{Name: st.Name, Skipped: true})
			continue
		}

		e.Console.Rule(st.Name)
		start := time.Now()
		items, err := st.Run(ctx)
		res := StageResult{Name: st.Name, Items: items, Err: err, Duration: time.Since(start)}
		results = append(results, res)

		if err != nil {
			e.Console.Errorf("%s failed after %s: %v", st.Name, res.Duration.Round(time.Millisecond), err)
			continue
		}
		e.Console.Successf("%s done: %d item(s) affected in %s",
			st.Name, items, res.Duration.Round(time.Millisecond))
	}
	return results
}
