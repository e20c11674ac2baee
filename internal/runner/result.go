package runner

import "strings"

// Invocation describes a single execution of the target executable.
// The zero value of AllowFailure means a nonzero exit is returned as an
// *ExitError.
type Invocation struct {
	Path          string   // executable path (resolved via PATH when it has no separator)
	Args          []string // positional arguments, in order
	CaptureStdout bool     // collect stdout into Result.Stdout
	CaptureStderr bool     // collect stderr into Result.Stderr
	AllowFailure  bool     // report a nonzero exit as data instead of an error

	// Watch is searched for in the whole captured stderr stream, before
	// MaxOutput truncation. Requires CaptureStderr.
	Watch string
}

// String renders the invocation as a shell-like command line for logs.
func (inv Invocation) String() string {
	if len(inv.Args) == 0 {
		return inv.Path
	}
	return inv.Path + " " + strings.Join(inv.Args, " ")
}

// Result holds the output of a command execution.
type Result struct {
	RunID     string // unique identifier for this invocation
	ExitCode  int    // process exit code; -1 when killed by a signal
	Stdout    []byte // captured stdout (may be truncated)
	Stderr    []byte // captured stderr (may be truncated)
	Truncated bool   // true if bytes beyond the size cap were dropped

	WatchFound bool // Invocation.Watch occurred in stderr
}
