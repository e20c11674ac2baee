package workflow

import (
	"context"

	"github.com/deixis/boundsgate/internal/report"
	"github.com/deixis/boundsgate/internal/safety"
)

// runSafety asserts that the unsafe path is detected and reported.
func (e *Engine) runSafety(ctx context.Context, rr *report.RunResult) error {
	c := &safety.Check{
		Runner:     e.Runner,
		Target:     e.Target,
		Args:       e.Config.SafetyArgs(),
		Diagnostic: e.Config.Diagnostic(),
		Logger:     e.logger(),
	}

	out, err := c.Run(ctx)
	if out != nil {
		rr.Safety = &report.SafetyEntry{
			Args:     out.Args,
			ExitCode: out.ExitCode,
			Stderr:   out.Stderr,
			Detected: out.Detected,
		}
	}
	return err
}
