package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{
		Dir:       t.TempDir(),
		Timeout:   10 * time.Second,
		MaxOutput: 1 << 20,
	}
}

func shell(script string) Invocation {
	return Invocation{
		Path:          "sh",
		Args:          []string{"-c", script},
		CaptureStdout: true,
		CaptureStderr: true,
	}
}

func TestRun_Success(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), shell("echo hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(string(res.Stdout), "hello") {
		t.Errorf("Stdout = %q, want to contain 'hello'", res.Stdout)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRun_PositionalArgs(t *testing.T) {
	r := newTestRunner(t)
	inv := Invocation{
		Path:          "sh",
		Args:          []string{"-c", `echo "$1 $2"`, "sh", "1000", "10000"},
		CaptureStdout: true,
	}
	res, err := r.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "1000 10000" {
		t.Errorf("Stdout = %q, want %q", got, "1000 10000")
	}
}

func TestRun_CapturesStderr(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), shell("echo oops >&2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(res.Stderr), "oops") {
		t.Errorf("Stderr = %q, want to contain 'oops'", res.Stderr)
	}
	if len(res.Stdout) != 0 {
		t.Errorf("Stdout = %q, want empty", res.Stdout)
	}
}

func TestRun_NonZeroExitChecked(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), shell("echo boom >&2; exit 3"))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.ExitCode != 3 {
		t.Errorf("ExitError.ExitCode = %d, want 3", exitErr.ExitCode)
	}
	if !strings.Contains(exitErr.Error(), "boom") {
		t.Errorf("error = %q, want stderr included", exitErr)
	}
	if res == nil || res.ExitCode != 3 {
		t.Errorf("Result = %+v, want ExitCode 3 alongside the error", res)
	}
}

func TestRun_NonZeroExitAllowed(t *testing.T) {
	r := newTestRunner(t)
	inv := shell("exit 255")
	inv.AllowFailure = true
	res, err := r.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 255 {
		t.Errorf("ExitCode = %d, want 255", res.ExitCode)
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), Invocation{Path: "nonexistent-binary-xyz-123"})
	var invErr *InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("err = %v, want *InvocationError", err)
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestRun_BinaryNotFoundIgnoresAllowFailure(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), Invocation{Path: "./missing.out", AllowFailure: true})
	var invErr *InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("err = %v, want *InvocationError", err)
	}
}

func TestRun_EmptyPath(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), Invocation{})
	if err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRun_Timeout(t *testing.T) {
	r := newTestRunner(t)
	r.Timeout = 100 * time.Millisecond

	_, err := r.Run(context.Background(), Invocation{Path: "sleep", Args: []string{"10"}})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want *TimeoutError", err)
	}
	if timeoutErr.Timeout != 100*time.Millisecond {
		t.Errorf("Timeout = %s, want 100ms", timeoutErr.Timeout)
	}
}

func TestRun_TimeoutKillsDescendantsHoldingPipes(t *testing.T) {
	r := newTestRunner(t)
	r.Timeout = 200 * time.Millisecond

	// The shell forks sleep, which inherits the captured stdout and stderr.
	start := time.Now()
	res, err := r.Run(context.Background(), shell("sleep 5; echo done"))
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want *TimeoutError", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Run returned after %s, want well under the 5s sleep", elapsed)
	}
	if res == nil || strings.Contains(string(res.Stdout), "done") {
		t.Errorf("Result = %+v, want partial result without output", res)
	}
}

func TestRun_OutputTruncation(t *testing.T) {
	r := newTestRunner(t)
	r.MaxOutput = 100 // very small cap

	res, err := r.Run(context.Background(), shell("dd if=/dev/zero bs=200 count=1 2>/dev/null"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if len(res.Stdout) > r.MaxOutput {
		t.Errorf("len(Stdout) = %d, want <= %d", len(res.Stdout), r.MaxOutput)
	}
}

func TestRun_OutputAtCapNotTruncated(t *testing.T) {
	r := newTestRunner(t)
	r.MaxOutput = 100

	res, err := r.Run(context.Background(), shell("dd if=/dev/zero bs=100 count=1 2>/dev/null"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Stdout) != 100 {
		t.Fatalf("len(Stdout) = %d, want 100", len(res.Stdout))
	}
	if res.Truncated {
		t.Error("Truncated = true for output exactly at the cap")
	}
}

func TestRun_WatchFoundBeyondCap(t *testing.T) {
	r := newTestRunner(t)
	r.MaxOutput = 64

	inv := shell(`dd if=/dev/zero bs=4096 count=1 2>/dev/null | tr '\0' x >&2; echo "Illegal memory access at 0x10 [load]" >&2; exit 255`)
	inv.AllowFailure = true
	inv.Watch = "Illegal memory access"

	res, err := r.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if strings.Contains(string(res.Stderr), "Illegal") {
		t.Fatalf("diagnostic unexpectedly within the kept stderr")
	}
	if !res.WatchFound {
		t.Error("WatchFound = false, want true for a match past the cap")
	}
}

func TestLimitWriter_WatchSpansWrites(t *testing.T) {
	w := &limitWriter{limit: 1 << 10, watch: []byte("Illegal memory access")}
	for _, chunk := range []string{"noise Illeg", "al mem", "ory acc", "ess at 0x1\n"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatal(err)
		}
	}
	if !w.matched {
		t.Error("matched = false, want true for a match split across writes")
	}
	if w.dropped {
		t.Error("dropped = true under the cap")
	}
}

func TestLimitWriter_NoWatchNoMatch(t *testing.T) {
	w := &limitWriter{limit: 4}
	_, _ = w.Write([]byte("abcdef"))
	if w.matched {
		t.Error("matched without a watch pattern")
	}
	if !w.dropped || w.buf.String() != "abcd" {
		t.Errorf("buf = %q dropped = %t, want \"abcd\" true", w.buf.String(), w.dropped)
	}
}

func TestRun_PassthroughWhenNotCaptured(t *testing.T) {
	var passthrough bytes.Buffer
	r := newTestRunner(t)
	r.Stderr = &passthrough

	inv := shell("echo visible >&2")
	inv.CaptureStderr = false
	res, err := r.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Stderr) != 0 {
		t.Errorf("Stderr = %q, want nothing captured", res.Stderr)
	}
	if !strings.Contains(passthrough.String(), "visible") {
		t.Errorf("passthrough = %q, want to contain 'visible'", passthrough.String())
	}
}

func TestInvocation_String(t *testing.T) {
	inv := Invocation{Path: "build/performance.out", Args: []string{"100", "1000", "1"}}
	if got := inv.String(); got != "build/performance.out 100 1000 1" {
		t.Errorf("String() = %q", got)
	}
}
