// Package report provides structured persistence and retrieval of harness
// run results. Results are stored as typed structs and can be queried by
// subtest.
package report

import (
	"fmt"
	"math"
	"time"
)

// Status is the outcome of a run or one of its subtests.
type Status string

const (
	Pass    Status = "pass"
	Fail    Status = "fail"
	Skipped Status = "skipped"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the structured output from one harness run.
type RunResult struct {
	ID        string        `json:"id"`
	Target    string        `json:"target"`
	Status    Status        `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Steps      []SubtestOutcome `json:"steps"`
	Safety     *SafetyEntry     `json:"safety,omitempty"`
	Benchmarks []BenchmarkEntry `json:"benchmarks,omitempty"`
	Scaling    []ScalingEntry   `json:"scaling,omitempty"`
}

// FailedStep returns the first failed subtest, or nil when none failed.
func (r *RunResult) FailedStep() *SubtestOutcome {
	for i := range r.Steps {
		if r.Steps[i].Status == Fail {
			return &r.Steps[i]
		}
	}
	return nil
}

// SubtestOutcome is the reported result of one named subtest.
type SubtestOutcome struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// SafetyEntry records the out-of-bounds detection check.
type SafetyEntry struct {
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stderr   string   `json:"stderr,omitempty"`
	Detected bool     `json:"detected"`
}

// BenchmarkEntry records one benchmarked configuration.
type BenchmarkEntry struct {
	N           int             `json:"n"`
	M           int             `json:"m"`
	Repetitions int             `json:"repetitions"`
	Samples     []time.Duration `json:"samples"`
	Mean        time.Duration   `json:"mean"`
}

// ScalingEntry records one scaling-axis comparison.
type ScalingEntry struct {
	Axis      string        `json:"axis"`
	Baseline  time.Duration `json:"baseline"`
	Scaled    time.Duration `json:"scaled"`
	Ratio     float64       `json:"ratio"`
	Threshold float64       `json:"threshold"`
	Pass      bool          `json:"pass"`
}

// FiniteRatio clamps an infinite ratio so the entry survives JSON encoding.
func FiniteRatio(r float64) float64 {
	if math.IsInf(r, 1) || math.IsNaN(r) {
		return math.MaxFloat64
	}
	return r
}

// Diagnostic is a uniform view over the facts recorded for a subtest.
type Diagnostic struct {
	Step    string // subtest name
	Source  string // "status", "safety", "benchmark", "scaling"
	Detail  string // axis, configuration, etc.
	Message string
	Output  string // captured stderr (safety only)
}

// ByStep returns the diagnostics recorded for a subtest. An empty name
// returns diagnostics for every subtest.
func ByStep(result *RunResult, name string) []Diagnostic {
	var out []Diagnostic
	for _, d := range toDiagnostics(result) {
		if name == "" || d.Step == name {
			out = append(out, d)
		}
	}
	return out
}

func toDiagnostics(r *RunResult) []Diagnostic {
	var out []Diagnostic

	for _, s := range r.Steps {
		msg := string(s.Status)
		if s.Message != "" {
			msg += ": " + s.Message
		}
		out = append(out, Diagnostic{Step: s.Name, Source: "status", Message: msg})
	}

	if s := r.Safety; s != nil {
		msg := fmt.Sprintf("exit status %d, detected=%t", s.ExitCode, s.Detected)
		out = append(out, Diagnostic{
			Step:    "safety",
			Source:  "safety",
			Detail:  fmt.Sprint(s.Args),
			Message: msg,
			Output:  s.Stderr,
		})
	}

	for _, b := range r.Benchmarks {
		out = append(out, Diagnostic{
			Step:    "performance",
			Source:  "benchmark",
			Detail:  fmt.Sprintf("N=%d M=%d", b.N, b.M),
			Message: fmt.Sprintf("mean %s over %d trials", b.Mean, len(b.Samples)),
		})
	}

	for _, s := range r.Scaling {
		verdict := "ok"
		if !s.Pass {
			verdict = "regression"
		}
		out = append(out, Diagnostic{
			Step:    "performance",
			Source:  "scaling",
			Detail:  s.Axis,
			Message: fmt.Sprintf("factor %.4f (threshold %g): %s", s.Ratio, s.Threshold, verdict),
		})
	}

	return out
}
