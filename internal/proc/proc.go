// Package proc runs external tools as blocking subprocesses and classifies
// their failures.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrToolNotFound is returned when the tool binary cannot be located.
	ErrToolNotFound = errors.New("tool not found in PATH")

	// ErrMalformedOutput is returned when a tool ran but its output could
	// not be parsed.
	ErrMalformedOutput = errors.New("malformed tool output")
)

// ToolError describes a subprocess that failed to start or exited non-zero.
type ToolError struct {
	Tool     string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + firstLine(e.Stderr)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Output is the captured result of a completed subprocess.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Executor runs a command to completion and captures its output.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (*Output, error)
}

// Exec is the os/exec backed Executor.
type Exec struct {
	// Timeout bounds each invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run executes name with args and waits for it to exit. A non-zero exit or
// a start failure is reported as *ToolError.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, &ToolError{Tool: name, ExitCode: -1, Err: fmt.Errorf("%w: %v", ErrToolNotFound, err)}
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	logger.Debug("running command", "cmd", CommandLine(name, args))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren holding the pipes open must not block Wait forever.
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	runErr := cmd.Run()
	out := &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: time.Since(start)}

	logger.Debug("command finished",
		"tool", name,
		"duration", out.Duration.Round(time.Millisecond),
		"stdout_bytes", len(out.Stdout),
		"stderr_bytes", len(out.Stderr))

	if runErr != nil {
		te := &ToolError{Tool: name, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String()), Err: runErr}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			te.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			te.Err = ctxErr
		}
		return out, te
	}
	return out, nil
}

// CommandLine renders a command for logs, quoting arguments that contain spaces.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
