package svcguard

import (
	"context"
	"errors"
	"time"
)

// handleReleaseDelay is the pause after stopping a service before touching
// its files, giving the kernel time to release outstanding handles.
const handleReleaseDelay = 3 * time.Second

// CleanupFunc performs the guarded file cleanup and returns the number of
// items affected.
type CleanupFunc func(ctx context.Context) (int, error)

// GuardResult reports what the guard observed and did.
type GuardResult struct {
	ServicesAbsent  []string // services not installed (informational)
	ServicesStopped []string // services we stopped and will restart
	RestartFailed   []string // services that did not come back (tolerated)
	ItemsAffected   int
}

// Guard holds the services protecting a set of paths.
type Guard struct {
	Services   []string
	Controller Controller
	DryRun     bool

	// SettleDelay overrides the post-stop pause; zero means the default.
	SettleDelay time.Duration
}

// Run stops each running guarded service, waits for handle release, runs
// the cleanup, then restarts what it stopped. Absent services are skipped
// and reported as informational. A failed restart is tolerated: demand-
// start services come back on next use. In dry-run mode service state is
// never changed but the cleanup (itself dry-run aware) still runs for
// accurate counts.
func (g *Guard) Run(ctx context.Context, cleanup CleanupFunc) (GuardResult, error) {
	var res GuardResult

	for _, name := range g.Services {
		state, err := g.Controller.Status(ctx, name)
		if errors.Is(err, ErrServiceNotFound) {
			res.ServicesAbsent = append(res.ServicesAbsent, name)
			continue
		}
		if err != nil {
			// Query failure: leave the service alone and clean anyway;
			// locked files are skipped item-by-item downstream.
			continue
		}
		if state != StateRunning {
			continue
		}
		if g.DryRun {
			continue
		}
		if err := g.Controller.Stop(ctx, name); err != nil {
			continue
		}
		res.ServicesStopped = append(res.ServicesStopped, name)
	}

	if len(res.ServicesStopped) > 0 {
		delay := g.SettleDelay
		if delay == 0 {
			delay = handleReleaseDelay
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(delay):
		}
	}

	affected, cleanErr := cleanup(ctx)
	res.ItemsAffected = affected

	for _, name := range res.ServicesStopped {
		if err := g.Controller.Start(ctx, name); err != nil {
			res.RestartFailed = append(res.RestartFailed, name)
		}
	}

	return res, cleanErr
}
