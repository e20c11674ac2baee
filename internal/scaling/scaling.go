// Package scaling compares benchmark durations across configurations that
// differ in one input dimension and gates the ratio against a threshold.
//
// A 10x larger input is expected to cost more than 1x, but well under the
// 100x of a quadratic algorithm. The default threshold of 12 allows for
// constant-factor overhead and measurement noise.
package scaling

import (
	"fmt"
	"math"
	"time"

	"github.com/deixis/boundsgate/internal/bench"
)

// Axis names the input dimension that is scaled.
type Axis string

const (
	AxisN Axis = "N"
	AxisM Axis = "M"
)

// Result is the outcome of comparing one scaled configuration to the baseline.
type Result struct {
	Axis      Axis          `json:"axis"`
	Baseline  time.Duration `json:"baseline"`
	Scaled    time.Duration `json:"scaled"`
	Ratio     float64       `json:"ratio"`
	Threshold float64       `json:"threshold"`
	Pass      bool          `json:"pass"`
}

// Analyze computes scaled/baseline and compares it against threshold.
// The check passes when the ratio does not exceed the threshold. A
// non-positive baseline cannot be compared and fails with an infinite ratio.
func Analyze(axis Axis, baseline, scaled time.Duration, threshold float64) Result {
	ratio := math.Inf(1)
	if baseline > 0 {
		ratio = float64(scaled) / float64(baseline)
	}
	return Result{
		Axis:      axis,
		Baseline:  baseline,
		Scaled:    scaled,
		Ratio:     ratio,
		Threshold: threshold,
		Pass:      ratio <= threshold,
	}
}

// Err returns a *RegressionError when the result failed, nil otherwise.
func (r Result) Err() error {
	if r.Pass {
		return nil
	}
	return &RegressionError{Axis: r.Axis, Ratio: r.Ratio, Threshold: r.Threshold}
}

// RegressionError reports a scaling factor above the threshold.
type RegressionError struct {
	Axis      Axis
	Ratio     float64
	Threshold float64
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("performance regression scaling %s: factor %.4f exceeds threshold %g", e.Axis, e.Ratio, e.Threshold)
}

// Plan is the set of benchmark configurations needed for both axes.
type Plan struct {
	Baseline bench.Config
	Scaled   map[Axis]bench.Config
}

// Axes returns the axes in the order they are checked.
func (p Plan) Axes() []Axis {
	return []Axis{AxisN, AxisM}
}

// NewPlan builds a plan that scales N and, separately, M by factor.
func NewPlan(baseline bench.Config, factor int) Plan {
	scaledN := baseline
	scaledN.N *= factor
	scaledM := baseline
	scaledM.M *= factor
	return Plan{
		Baseline: baseline,
		Scaled: map[Axis]bench.Config{
			AxisN: scaledN,
			AxisM: scaledM,
		},
	}
}

// FirstFailure returns the error of the first failing result, or nil.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if err := r.Err(); err != nil {
			return err
		}
	}
	return nil
}
