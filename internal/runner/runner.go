// Package runner executes the target program as a child process with
// captured output, exit-status handling, timeouts, and output size limits.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxOutput caps each captured stream when Runner.MaxOutput is unset.
const DefaultMaxOutput = 1 << 20 // 1 MB

// WaitDelay bounds how long Run waits for output pipes to close once the
// process has been killed. Descendants that escaped the kill can otherwise
// hold them open indefinitely.
const WaitDelay = 2 * time.Second

// Runner starts one child process per call and waits for it to exit.
// It holds no state between calls.
type Runner struct {
	Dir       string        // working directory; empty means the current one
	Timeout   time.Duration // per-invocation limit; 0 disables it
	MaxOutput int           // bytes kept per captured stream

	// Stdout and Stderr receive the streams that are not captured.
	// Nil discards them.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes inv and waits for the process to exit and its output to be
// collected. A process that cannot be started yields an *InvocationError.
// A nonzero exit yields an *ExitError together with the Result, unless
// inv.AllowFailure is set.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Path == "" {
		return nil, fmt.Errorf("empty executable path")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = WaitDelay
	killProcessGroup(cmd)

	stdout := &limitWriter{limit: maxOutput}
	stderr := &limitWriter{limit: maxOutput, watch: []byte(inv.Watch)}
	if inv.CaptureStdout {
		cmd.Stdout = stdout
	} else if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if inv.CaptureStderr {
		cmd.Stderr = stderr
	} else if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	runErr := cmd.Run()

	res := &Result{
		RunID:      uuid.New().String(),
		Stdout:     stdout.buf.Bytes(),
		Stderr:     stderr.buf.Bytes(),
		Truncated:  stdout.dropped || stderr.dropped,
		WatchFound: stderr.matched,
	}

	if runErr != nil {
		// A killed process may surface as an exit error or, when its pipes
		// outlive WaitDelay, as exec.ErrWaitDelay. Both mean the context won.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Timeout > 0 {
			res.ExitCode = -1
			return res, &TimeoutError{Path: inv.Path, Timeout: r.Timeout}
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("running %s: %w", inv.Path, ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Binary not found or other exec error.
			return nil, &InvocationError{Path: inv.Path, Err: runErr}
		}
		res.ExitCode = exitErr.ExitCode()
	}

	if res.ExitCode != 0 && !inv.AllowFailure {
		return res, &ExitError{
			Path:     inv.Path,
			Args:     inv.Args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return res, nil
}

// limitWriter keeps up to limit bytes and discards the rest, recording
// whether anything was dropped. When watch is set it also reports whether
// watch occurred anywhere in the stream, including the discarded part.
type limitWriter struct {
	buf     bytes.Buffer
	limit   int
	dropped bool

	watch   []byte
	tail    []byte // last len(watch)-1 bytes, for matches spanning writes
	matched bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	w.scan(p)

	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.dropped = true
		}
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Report all bytes as consumed so io.Copy does not fail with a
		// short write.
		w.buf.Write(p[:remaining])
		w.dropped = true
		return len(p), nil
	}
	return w.buf.Write(p)
}

func (w *limitWriter) scan(p []byte) {
	if len(w.watch) == 0 || w.matched {
		return
	}
	window := append(w.tail, p...)
	if bytes.Contains(window, w.watch) {
		w.matched = true
		w.tail = nil
		return
	}
	if keep := len(w.watch) - 1; len(window) > keep {
		window = window[len(window)-keep:]
	}
	w.tail = bytes.Clone(window)
}
