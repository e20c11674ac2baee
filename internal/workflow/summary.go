package workflow

import (
	"fmt"
	"strings"

	"github.com/deixis/boundsgate/internal/report"
)

// FormatSummary renders the body of a run report: per-step status, the
// measured scaling factors, and the failing step's message. The status
// header is left to the caller.
func FormatSummary(rr *report.RunResult, verbose bool) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	w("Run: %s\n", rr.ID)
	w("Target: %s\n", rr.Target)
	w("\n")

	for _, s := range rr.Steps {
		switch s.Status {
		case report.Pass:
			w("  %-15s ok\n", s.Name)
		case report.Fail:
			w("  %-15s FAIL\n", s.Name)
		default:
			w("  %-15s -\n", s.Name)
		}
	}
	w("\n")

	if len(rr.Scaling) > 0 {
		w("Scaling factors:\n")
		for _, s := range rr.Scaling {
			verdict := "ok"
			if !s.Pass {
				verdict = "regression"
			}
			w("  %-15s %10.4f  (threshold %g) %s\n", "scale "+s.Axis, s.Ratio, s.Threshold, verdict)
		}
		w("\n")
	}

	if verbose && len(rr.Benchmarks) > 0 {
		w("Benchmarks:\n")
		for _, bm := range rr.Benchmarks {
			w("  N=%-8d M=%-8d mean %s over %d trials\n", bm.N, bm.M, bm.Mean, len(bm.Samples))
		}
		w("\n")
	}

	if failed := rr.FailedStep(); failed != nil {
		w("Failed step: %s\n", failed.Name)
		msg := failed.Message
		if !verbose {
			msg = FirstLine(msg)
		}
		for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
			w("  %s\n", line)
		}
		if verbose && rr.Safety != nil && failed.Name == "safety" && rr.Safety.Stderr != "" {
			w("\nTarget stderr:\n")
			for _, line := range strings.Split(strings.TrimRight(rr.Safety.Stderr, "\n"), "\n") {
				w("    %s\n", line)
			}
		}
	}

	return string(b)
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
