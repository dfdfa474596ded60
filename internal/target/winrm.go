package target

import (
	"context"
	"fmt"
	"strings"

	"github.com/masterzen/winrm"
)

// winrmPort is the default WinRM HTTP listener port.
const winrmPort = 5985

// WinRMExecutor runs commands on a remote host over WinRM.
type WinRMExecutor struct {
	host   string
	client *winrm.Client
}

// NewWinRMExecutor creates a WinRM client for the host. Client creation
// validates parameters only; Probe performs the actual round-trip.
func NewWinRMExecutor(host string, cred Credential) (*WinRMExecutor, error) {
	endpoint := winrm.NewEndpoint(
		host,
		winrmPort,
		false, // HTTPS
		true,  // skip SSL verification
		nil,   // CA certificate
		nil,   // client certificate
		nil,   // client key
		0,     // timeout (unbounded; maintenance tools can run for a long time)
	)
	client, err := winrm.NewClient(endpoint, cred.Username, cred.Password)
	if err != nil {
		return nil, fmt.Errorf("create winrm client: %w", err)
	}
	return &WinRMExecutor{host: host, client: client}, nil
}

func (e *WinRMExecutor) Host() string   { return e.host }
func (e *WinRMExecutor) IsRemote() bool { return true }

// Probe verifies the remote listener accepts commands. Any failure means
// remoting is unavailable and the run must not proceed.
func (e *WinRMExecutor) Probe(ctx context.Context) error {
	res, err := e.Run(ctx, "hostname")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("probe command exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Run executes a command line on the remote host and blocks until it exits.
func (e *WinRMExecutor) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmdLine := name
	for _, a := range args {
		cmdLine += " " + quoteArg(a)
	}
	stdout, stderr, code, err := e.client.RunWithContextWithString(ctx, cmdLine, "")
	if err != nil {
		return Result{}, fmt.Errorf("winrm %s: %w", e.host, err)
	}
	return Result{Stdout: stdout, Stderr: stderr, ExitCode: code}, nil
}

// PowerShell encodes the script (UTF-16LE base64) and runs it remotely.
func (e *WinRMExecutor) PowerShell(ctx context.Context, script string) (Result, error) {
	stdout, stderr, code, err := e.client.RunWithContextWithString(ctx, winrm.Powershell(script), "")
	if err != nil {
		return Result{}, fmt.Errorf("winrm %s: %w", e.host, err)
	}
	return Result{Stdout: stdout, Stderr: stderr, ExitCode: code}, nil
}

// quoteArg wraps arguments containing whitespace in double quotes for the
// remote cmd.exe line.
func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
