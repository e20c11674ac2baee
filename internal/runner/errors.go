package runner

import (
	"fmt"
	"strings"
	"time"
)

// InvocationError is returned when the executable could not be started,
// for example because it does not exist or is not executable.
type InvocationError struct {
	Path string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Path, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ExitError is returned when a checked invocation exits with a nonzero status.
type ExitError struct {
	Path     string
	Args     []string
	ExitCode int
	Stderr   []byte
}

func (e *ExitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s exited with status %d", Invocation{Path: e.Path, Args: e.Args}, e.ExitCode)
	if msg := strings.TrimSpace(string(e.Stderr)); msg != "" {
		fmt.Fprintf(&b, "\nstderr: %s", msg)
	}
	return b.String()
}

// TimeoutError is returned when an invocation outlives the runner timeout
// and is killed.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not exit within %s", e.Path, e.Timeout)
}
