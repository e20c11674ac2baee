// Package workflow provides the harness engine: an ordered list of named
// subtests run sequentially with fail-fast semantics. It is consumed by
// both the CLI and the MCP server.
package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deixis/boundsgate/internal/config"
	"github.com/deixis/boundsgate/internal/report"
	"github.com/deixis/boundsgate/internal/runner"
	"github.com/google/uuid"
)

// CommandRunner executes a single invocation of the target.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, inv runner.Invocation) (*runner.Result, error)
}

// State is the harness lifecycle position.
type State int

const (
	NotStarted State = iota
	RunningSafetyCheck
	RunningScalingChecks
	Passed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case RunningSafetyCheck:
		return "running-safety-check"
	case RunningScalingChecks:
		return "running-scaling-checks"
	case Passed:
		return "pass"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Engine holds shared dependencies for a harness run.
type Engine struct {
	Config *config.Config
	Runner CommandRunner
	Target string // resolved path of the target executable
	Logger *slog.Logger
	Out    io.Writer        // progress output; nil discards
	Now    func() time.Time // clock for trial timing; defaults to time.Now

	// OnStateChange, if set, observes every state transition.
	OnStateChange func(State)
}

// Subtest is a named, independently reported unit of the harness.
type Subtest struct {
	Name  string
	State State
	Run   func(ctx context.Context, rr *report.RunResult) error
}

// StepError attributes a failure to the subtest that raised it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// HarnessResult holds the full outcome of a harness run.
type HarnessResult struct {
	RunResult *report.RunResult
	State     State // Passed or Failed
	FailedIdx int   // -1 if all passed
	Err       error // *StepError of the failed subtest
}

// Subtests builds the ordered subtest list from the configured steps.
func (e *Engine) Subtests() []Subtest {
	steps := e.Config.HarnessSteps()
	out := make([]Subtest, 0, len(steps))
	for _, step := range steps {
		switch step {
		case "safety":
			out = append(out, Subtest{Name: step, State: RunningSafetyCheck, Run: e.runSafety})
		case "performance":
			out = append(out, Subtest{Name: step, State: RunningScalingChecks, Run: e.runPerformance})
		default:
			name := step
			out = append(out, Subtest{Name: name, Run: func(context.Context, *report.RunResult) error {
				return fmt.Errorf("unknown step: %s", name)
			}})
		}
	}
	return out
}

// Run executes the subtests in order, stopping at the first failure.
// Subtests after a failure are reported as skipped.
func (e *Engine) Run(ctx context.Context) (*HarnessResult, error) {
	if e.Target == "" {
		return nil, fmt.Errorf("no target executable configured")
	}

	logger := e.logger()
	now := e.clock()
	out := e.out()

	rr := &report.RunResult{
		ID:        uuid.New().String(),
		Target:    e.Target,
		StartedAt: now(),
	}
	logger = logger.With(slog.String("run_id", rr.ID))

	subtests := e.Subtests()
	rr.Steps = make([]report.SubtestOutcome, len(subtests))
	for i, st := range subtests {
		rr.Steps[i] = report.SubtestOutcome{Name: st.Name, Status: report.Skipped}
	}

	e.transition(NotStarted)

	failedIdx := -1
	var failure error
	for i, st := range subtests {
		if st.State != NotStarted {
			e.transition(st.State)
		}
		fmt.Fprintf(out, "=== RUN   %s\n", st.Name)
		logger.InfoContext(ctx, "subtest started", slog.String("subtest", st.Name))

		start := now()
		err := st.Run(ctx, rr)
		elapsed := now().Sub(start)

		if err != nil {
			rr.Steps[i] = report.SubtestOutcome{Name: st.Name, Status: report.Fail, Message: err.Error()}
			fmt.Fprintf(out, "--- FAIL: %s\n    %s\n", st.Name, err)
			logger.ErrorContext(ctx, "subtest failed",
				slog.String("subtest", st.Name),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
			failedIdx = i
			failure = &StepError{Step: st.Name, Err: err}
			break
		}

		rr.Steps[i] = report.SubtestOutcome{Name: st.Name, Status: report.Pass}
		fmt.Fprintf(out, "--- PASS: %s\n", st.Name)
		logger.InfoContext(ctx, "subtest passed",
			slog.String("subtest", st.Name),
			slog.Duration("elapsed", elapsed),
		)
	}

	rr.Elapsed = now().Sub(rr.StartedAt)

	final := Passed
	rr.Status = report.Pass
	if failedIdx >= 0 {
		final = Failed
		rr.Status = report.Fail
	}
	e.transition(final)

	return &HarnessResult{
		RunResult: rr,
		State:     final,
		FailedIdx: failedIdx,
		Err:       failure,
	}, nil
}

func (e *Engine) transition(s State) {
	if e.OnStateChange != nil {
		e.OnStateChange(s)
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Engine) clock() func() time.Time {
	if e.Now != nil {
		return e.Now
	}
	return time.Now
}

func (e *Engine) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return io.Discard
}
