package scaling

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/boundsgate/internal/bench"
)

func TestAnalyze_Linear(t *testing.T) {
	r := Analyze(AxisN, 100*time.Millisecond, time.Second, 12)
	assert.InDelta(t, 10.0, r.Ratio, 1e-9)
	assert.True(t, r.Pass)
	assert.NoError(t, r.Err())
}

func TestAnalyze_AtThresholdPasses(t *testing.T) {
	r := Analyze(AxisM, 100*time.Millisecond, 1200*time.Millisecond, 12)
	assert.InDelta(t, 12.0, r.Ratio, 1e-9)
	assert.True(t, r.Pass, "ratio equal to the threshold is allowed")
}

func TestAnalyze_Quadratic(t *testing.T) {
	r := Analyze(AxisN, 10*time.Millisecond, time.Second, 12)
	assert.InDelta(t, 100.0, r.Ratio, 1e-9)
	assert.False(t, r.Pass)

	var regErr *RegressionError
	require.True(t, errors.As(r.Err(), &regErr))
	assert.Equal(t, AxisN, regErr.Axis)
	assert.Contains(t, regErr.Error(), "100.0000")
	assert.Contains(t, regErr.Error(), "threshold 12")
}

func TestAnalyze_ZeroBaseline(t *testing.T) {
	r := Analyze(AxisN, 0, time.Millisecond, 12)
	assert.True(t, math.IsInf(r.Ratio, 1))
	assert.False(t, r.Pass)
}

func TestNewPlan(t *testing.T) {
	p := NewPlan(bench.Config{N: 1000, M: 10000, Repetitions: 10}, 10)
	assert.Equal(t, bench.Config{N: 10000, M: 10000, Repetitions: 10}, p.Scaled[AxisN])
	assert.Equal(t, bench.Config{N: 1000, M: 100000, Repetitions: 10}, p.Scaled[AxisM])
	assert.Equal(t, []Axis{AxisN, AxisM}, p.Axes())
}

func TestFirstFailure(t *testing.T) {
	results := []Result{
		Analyze(AxisN, time.Millisecond, 5*time.Millisecond, 12),
		Analyze(AxisM, time.Millisecond, 50*time.Millisecond, 12),
	}
	err := FirstFailure(results)
	var regErr *RegressionError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, AxisM, regErr.Axis)

	assert.NoError(t, FirstFailure(results[:1]))
}
