// Package target abstracts where cleanup commands run: in-process on the
// local machine or over WinRM against a remote host. Stage logic is written
// once against Executor; the engine never branches on transport beyond
// choosing in-process filesystem calls for local runs.
package target

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Result captures one finished command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs commands on the resolved target machine.
type Executor interface {
	// Host returns the target's display name.
	Host() string

	// IsRemote reports whether commands cross the wire.
	IsRemote() bool

	// Run launches a program with arguments and blocks until it exits.
	// A non-zero exit code is not an error; err is reserved for failures
	// to launch or to reach the target.
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// PowerShell runs a script through powershell.exe on the target.
	PowerShell(ctx context.Context, script string) (Result, error)
}

// Target is the resolved execution target for one run.
type Target struct {
	HostName string
	Exec     Executor
}

// Credential is an optional remote logon.
type Credential struct {
	Username string
	Password string
}

// Resolve establishes the execution target. For remote hosts it creates a
// WinRM client and probes connectivity; a failed probe is returned as an
// error so the caller can fail fast before any destructive work.
func Resolve(ctx context.Context, host string, cred Credential) (*Target, error) {
	if host == "" || isLocalName(host) {
		name, err := os.Hostname()
		if err != nil {
			name = "localhost"
		}
		return &Target{HostName: name, Exec: NewLocalExecutor(name)}, nil
	}

	exec, err := NewWinRMExecutor(host, cred)
	if err != nil {
		return nil, fmt.Errorf("remote target %s: %w", host, err)
	}
	if err := exec.Probe(ctx); err != nil {
		return nil, fmt.Errorf("remoting unavailable on %s: %w", host, err)
	}
	return &Target{HostName: host, Exec: exec}, nil
}

// isLocalName reports whether the given host name resolves to this machine
// without remoting.
func isLocalName(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", ".", "::1":
		return true
	}
	if self, err := os.Hostname(); err == nil && strings.EqualFold(self, host) {
		return true
	}
	return false
}

// ─── Remote script output ────────────────────────────────────────────────────

var affectedPattern = regexp.MustCompile(`Affected:\s*(\d+)`)

// ParseAffected extracts the count from the single "Affected: N" line every
// generated remote script prints as its result.
func ParseAffected(output string) (int, error) {
	m := affectedPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("no affected count in remote output")
	}
	return strconv.Atoi(m[1])
}
