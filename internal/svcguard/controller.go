// Package svcguard wraps cleanups against paths held open by a running
// service: stop the service, reclaim, restart. A service that does not
// exist on the machine is an expected condition, not an error.
package svcguard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/lakshaymaurya-felt/winsweep/internal/target"
)

// ErrServiceNotFound marks a service absent from the target machine.
var ErrServiceNotFound = errors.New("service not installed")

// State is a coarse service run state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateOther
)

// Controller queries and changes service run state on the target.
type Controller interface {
	Status(ctx context.Context, name string) (State, error)
	Stop(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
}

// ─── Local controller (service control manager) ──────────────────────────────

// LocalController drives services through the Windows service control
// manager API.
type LocalController struct{}

func (LocalController) open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("connect service manager: %w", err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		m.Disconnect()
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil, nil, ErrServiceNotFound
		}
		return nil, nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return m, s, nil
}

func (c LocalController) Status(ctx context.Context, name string) (State, error) {
	m, s, err := c.open(name)
	if err != nil {
		return StateOther, err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return StateOther, fmt.Errorf("query service %s: %w", name, err)
	}
	switch status.State {
	case svc.Stopped:
		return StateStopped, nil
	case svc.Running:
		return StateRunning, nil
	default:
		return StateOther, nil
	}
}

func (c LocalController) Stop(ctx context.Context, name string) error {
	m, s, err := c.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	status, err := s.Control(svc.Stop)
	if err != nil {
		return fmt.Errorf("stop service %s: %w", name, err)
	}

	// Poll until the SCM reports stopped; dependent services can take a
	// few seconds to unwind.
	deadline := time.Now().Add(30 * time.Second)
	for status.State != svc.Stopped {
		if time.Now().After(deadline) {
			return fmt.Errorf("service %s did not stop in time", name)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		status, err = s.Query()
		if err != nil {
			return fmt.Errorf("query service %s: %w", name, err)
		}
	}
	return nil
}

func (c LocalController) Start(ctx context.Context, name string) error {
	m, s, err := c.open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("start service %s: %w", name, err)
	}
	return nil
}

// ─── Remote controller (sc.exe over the executor) ────────────────────────────

// scServiceNotFound is sc.exe's exit code for ERROR_SERVICE_DOES_NOT_EXIST.
const scServiceNotFound = 1060

// RemoteController drives services with sc.exe through the remote
// executor.
type RemoteController struct {
	Exec target.Executor
}

func (c RemoteController) Status(ctx context.Context, name string) (State, error) {
	res, err := c.Exec.Run(ctx, "sc", "query", name)
	if err != nil {
		return StateOther, err
	}
	if res.ExitCode == scServiceNotFound {
		return StateOther, ErrServiceNotFound
	}
	if res.ExitCode != 0 {
		return StateOther, fmt.Errorf("sc query %s exited %d", name, res.ExitCode)
	}
	out := strings.ToUpper(res.Stdout)
	switch {
	case strings.Contains(out, "RUNNING"):
		return StateRunning, nil
	case strings.Contains(out, "STOPPED"):
		return StateStopped, nil
	default:
		return StateOther, nil
	}
}

func (c RemoteController) Stop(ctx context.Context, name string) error {
	res, err := c.Exec.Run(ctx, "sc", "stop", name)
	if err != nil {
		return err
	}
	if res.ExitCode == scServiceNotFound {
		return ErrServiceNotFound
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("sc stop %s exited %d", name, res.ExitCode)
	}
	return nil
}

func (c RemoteController) Start(ctx context.Context, name string) error {
	res, err := c.Exec.Run(ctx, "sc", "start", name)
	if err != nil {
		return err
	}
	if res.ExitCode == scServiceNotFound {
		return ErrServiceNotFound
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("sc start %s exited %d", name, res.ExitCode)
	}
	return nil
}
