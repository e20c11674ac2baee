package workflow

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/deixis/boundsgate/internal/report"
)

const testTarget = "memory-safety/build/performance.out"

func trials(mean time.Duration) report.BenchmarkEntry {
	samples := make([]time.Duration, 10)
	for i := range samples {
		samples[i] = mean
	}
	return report.BenchmarkEntry{Repetitions: 10, Samples: samples, Mean: mean}
}

func TestFormatSummary(t *testing.T) {
	base := trials(10 * time.Millisecond)
	base.N, base.M = 1000, 10000
	scaledN := trials(100 * time.Millisecond)
	scaledN.N, scaledN.M = 10000, 10000
	scaledM := trials(105 * time.Millisecond)
	scaledM.N, scaledM.M = 1000, 100000

	tests := []struct {
		name    string
		verbose bool
		rr      *report.RunResult
	}{
		{
			name: "regression",
			rr: &report.RunResult{
				ID:     "3f8c2a1e-0000-4000-8000-000000000001",
				Target: testTarget,
				Status: report.Fail,
				Steps: []report.SubtestOutcome{
					{Name: "safety", Status: report.Pass},
					{Name: "performance", Status: report.Fail, Message: "performance regression scaling N: factor 97.1000 exceeds threshold 12"},
				},
				Scaling: []report.ScalingEntry{
					{Axis: "N", Ratio: 97.1, Threshold: 12},
					{Axis: "M", Ratio: 9.8765, Threshold: 12, Pass: true},
				},
			},
		},
		{
			name:    "safety_verbose",
			verbose: true,
			rr: &report.RunResult{
				ID:     "3f8c2a1e-0000-4000-8000-000000000002",
				Target: testTarget,
				Status: report.Fail,
				Steps: []report.SubtestOutcome{
					{Name: "safety", Status: report.Fail, Message: `diagnostic missing from stderr: want "Illegal memory access", got "Segmentation fault"`},
					{Name: "performance", Status: report.Skipped},
				},
				Safety: &report.SafetyEntry{
					Args:     []string{"100", "1000", "1"},
					ExitCode: 139,
					Stderr:   "Segmentation fault\n",
				},
			},
		},
		{
			name:    "pass_verbose",
			verbose: true,
			rr: &report.RunResult{
				ID:     "3f8c2a1e-0000-4000-8000-000000000003",
				Target: testTarget,
				Status: report.Pass,
				Steps: []report.SubtestOutcome{
					{Name: "safety", Status: report.Pass},
					{Name: "performance", Status: report.Pass},
				},
				Benchmarks: []report.BenchmarkEntry{base, scaledN, scaledM},
				Scaling: []report.ScalingEntry{
					{Axis: "N", Ratio: 10, Threshold: 12, Pass: true},
					{Axis: "M", Ratio: 10.5, Threshold: 12, Pass: true},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := goldie.New(t)
			g.Assert(t, tt.name, []byte(FormatSummary(tt.rr, tt.verbose)))
		})
	}
}

func TestFirstLine(t *testing.T) {
	got := FirstLine("\n  ./perf.out 1000 10000 exited with status 1\nstderr: boom\n")
	if got != "./perf.out 1000 10000 exited with status 1" {
		t.Errorf("FirstLine = %q", got)
	}
	if FirstLine("") != "" {
		t.Error("FirstLine(\"\") should be empty")
	}
}
