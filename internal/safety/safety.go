// Package safety checks that the target detects an out-of-bounds access:
// it must exit nonzero and name the violation on stderr.
package safety

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deixis/boundsgate/internal/runner"
)

var (
	// ErrNotDetected means the target exited 0 on the unsafe path.
	ErrNotDetected = errors.New("expected program to exit with nonzero status")
	// ErrNoDiagnostic means stderr lacked the expected diagnostic.
	ErrNoDiagnostic = errors.New("diagnostic missing from stderr")
)

// Runner executes a single invocation. Implemented by runner.Runner.
type Runner interface {
	Run(ctx context.Context, inv runner.Invocation) (*runner.Result, error)
}

// AssertionError is a failed expectation about a process that did run.
type AssertionError struct {
	Err        error  // ErrNotDetected or ErrNoDiagnostic
	ExitCode   int    // observed exit status
	Diagnostic string // expected substring
	Stderr     []byte // observed stderr
}

func (e *AssertionError) Error() string {
	if errors.Is(e.Err, ErrNoDiagnostic) {
		return fmt.Sprintf("%v: want %q, got %q", e.Err, e.Diagnostic, bytes.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%v (exit status %d)", e.Err, e.ExitCode)
}

func (e *AssertionError) Unwrap() error { return e.Err }

// Outcome records what the target did on the unsafe path.
type Outcome struct {
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stderr   string   `json:"stderr,omitempty"`
	Detected bool     `json:"detected"`
}

// Check runs the target on an argument vector known to perform an
// out-of-bounds access.
type Check struct {
	Runner     Runner
	Target     string
	Args       []string // e.g. ["100", "1000", "1"]
	Diagnostic string   // e.g. "Illegal memory access"
	Logger     *slog.Logger
}

// Run invokes the target without treating a nonzero exit as an error and
// asserts that the violation was detected and reported. The Outcome is
// returned whenever the process ran, including on assertion failure.
func (c *Check) Run(ctx context.Context) (*Outcome, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res, err := c.Runner.Run(ctx, runner.Invocation{
		Path:          c.Target,
		Args:          c.Args,
		CaptureStdout: true,
		CaptureStderr: true,
		AllowFailure:  true,
		Watch:         c.Diagnostic,
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Args:     c.Args,
		ExitCode: res.ExitCode,
		Stderr:   string(res.Stderr),
	}

	logger.InfoContext(ctx, "unsafe path finished",
		slog.Any("args", c.Args),
		slog.Int("exit_code", res.ExitCode),
	)

	if res.ExitCode == 0 {
		return out, &AssertionError{Err: ErrNotDetected, ExitCode: res.ExitCode, Diagnostic: c.Diagnostic, Stderr: res.Stderr}
	}
	// The runner matches the whole stream; the kept stderr may be truncated.
	if !res.WatchFound && !bytes.Contains(res.Stderr, []byte(c.Diagnostic)) {
		return out, &AssertionError{Err: ErrNoDiagnostic, ExitCode: res.ExitCode, Diagnostic: c.Diagnostic, Stderr: res.Stderr}
	}

	out.Detected = true
	return out, nil
}
