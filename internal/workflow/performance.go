package workflow

import (
	"context"
	"fmt"

	"github.com/deixis/boundsgate/internal/bench"
	"github.com/deixis/boundsgate/internal/report"
	"github.com/deixis/boundsgate/internal/scaling"
)

// runPerformance benchmarks the baseline and both scaled configurations,
// prints both scaling factors, then fails on the first axis over the
// threshold.
func (e *Engine) runPerformance(ctx context.Context, rr *report.RunResult) error {
	n, m := e.Config.BaselineSizes()
	plan := scaling.NewPlan(bench.Config{N: n, M: m, Repetitions: e.Config.Repetitions()}, e.Config.ScaleFactor())
	threshold := e.Config.Threshold()

	b := &bench.Benchmark{
		Timer:  &bench.Timer{Runner: e.Runner, Now: e.Now},
		Target: e.Target,
		Logger: e.logger(),
	}

	base, err := e.benchmark(ctx, b, rr, plan.Baseline)
	if err != nil {
		return err
	}

	scaled := make(map[scaling.Axis]*bench.Summary, len(plan.Scaled))
	for _, axis := range plan.Axes() {
		s, err := e.benchmark(ctx, b, rr, plan.Scaled[axis])
		if err != nil {
			return err
		}
		scaled[axis] = s
	}

	out := e.out()
	results := make([]scaling.Result, 0, len(scaled))
	for _, axis := range plan.Axes() {
		r := scaling.Analyze(axis, base.Mean, scaled[axis].Mean, threshold)
		results = append(results, r)
		rr.Scaling = append(rr.Scaling, report.ScalingEntry{
			Axis:      string(r.Axis),
			Baseline:  r.Baseline,
			Scaled:    r.Scaled,
			Ratio:     report.FiniteRatio(r.Ratio),
			Threshold: r.Threshold,
			Pass:      r.Pass,
		})
		fmt.Fprintf(out, "Scaling factor (%s x%d): %.4f\n", axis, e.Config.ScaleFactor(), r.Ratio)
	}

	return scaling.FirstFailure(results)
}

func (e *Engine) benchmark(ctx context.Context, b *bench.Benchmark, rr *report.RunResult, cfg bench.Config) (*bench.Summary, error) {
	s, err := b.Run(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", cfg, err)
	}
	rr.Benchmarks = append(rr.Benchmarks, report.BenchmarkEntry{
		N:           cfg.N,
		M:           cfg.M,
		Repetitions: cfg.Repetitions,
		Samples:     s.Samples,
		Mean:        s.Mean,
	})
	return s, nil
}
