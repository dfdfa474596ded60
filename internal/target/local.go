package target

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// LocalExecutor launches processes directly on this machine.
type LocalExecutor struct {
	host string
}

// NewLocalExecutor creates an in-process executor for the named host.
func NewLocalExecutor(host string) *LocalExecutor {
	return &LocalExecutor{host: host}
}

func (e *LocalExecutor) Host() string   { return e.host }
func (e *LocalExecutor) IsRemote() bool { return false }

// Run launches the program and waits for it. Exit codes are surfaced in the
// Result, not as errors, so callers decide what failure means per tool.
func (e *LocalExecutor) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("launch %s: %w", name, err)
	}
	return res, nil
}

// PowerShell runs the script in a non-interactive powershell.exe. The
// script is passed as a single argument, so no cmd.exe quoting applies.
func (e *LocalExecutor) PowerShell(ctx context.Context, script string) (Result, error) {
	return e.Run(ctx, "powershell.exe",
		"-NoProfile", "-NonInteractive", "-Command", script)
}
