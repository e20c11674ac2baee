package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/boundsgate/internal/runner"
)

// fakeRunner records invocations and returns a fixed error after a number
// of successful calls.
type fakeRunner struct {
	calls   []runner.Invocation
	failAt  int // 1-based call index that fails; 0 never fails
	failErr error
}

func (f *fakeRunner) Run(_ context.Context, inv runner.Invocation) (*runner.Result, error) {
	f.calls = append(f.calls, inv)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return &runner.Result{ExitCode: 1}, f.failErr
	}
	return &runner.Result{}, nil
}

// stepClock advances by the next step on every call that closes a
// measurement, so trial i lasts steps[i].
type stepClock struct {
	now   time.Time
	steps []time.Duration
	calls int
}

func (c *stepClock) Now() time.Time {
	c.calls++
	if c.calls%2 == 0 {
		idx := c.calls/2 - 1
		c.now = c.now.Add(c.steps[idx%len(c.steps)])
	}
	return c.now
}

func TestMean(t *testing.T) {
	got, err := Mean([]time.Duration{time.Second, 2 * time.Second, 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, got)
}

func TestMean_Empty(t *testing.T) {
	_, err := Mean(nil)
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestMean_Deterministic(t *testing.T) {
	samples := []time.Duration{
		13 * time.Millisecond, 11 * time.Millisecond, 17 * time.Millisecond,
		12 * time.Millisecond, 90 * time.Millisecond,
	}
	first, err := Mean(samples)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Mean(samples)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 28600*time.Microsecond, first)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, Config{N: 1, M: 1, Repetitions: 1}.Validate())
	require.ErrorIs(t, Config{N: 1, M: 1}.Validate(), ErrRepetitions)
}

func TestTimer_MeasuresWallClock(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0), steps: []time.Duration{42 * time.Millisecond}}
	timer := &Timer{Runner: &fakeRunner{}, Now: clock.Now}

	d, res, err := timer.Time(context.Background(), runner.Invocation{Path: "target"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 42*time.Millisecond, d)
}

func TestTimer_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	timer := &Timer{Runner: &fakeRunner{failAt: 1, failErr: boom}}

	_, _, err := timer.Time(context.Background(), runner.Invocation{Path: "target"})
	require.ErrorIs(t, err, boom)
}

func TestBenchmark_RunsAllTrialsAndAverages(t *testing.T) {
	fr := &fakeRunner{}
	clock := &stepClock{
		now:   time.Unix(0, 0),
		steps: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
	}
	b := &Benchmark{
		Timer:  &Timer{Runner: fr, Now: clock.Now},
		Target: "./performance.out",
	}

	sum, err := b.Run(context.Background(), Config{N: 1000, M: 10000, Repetitions: 3})
	require.NoError(t, err)

	require.Len(t, fr.calls, 3)
	for _, inv := range fr.calls {
		assert.Equal(t, "./performance.out", inv.Path)
		assert.Equal(t, []string{"1000", "10000"}, inv.Args)
		assert.False(t, inv.AllowFailure, "performance trials must fail on nonzero exit")
	}
	assert.Len(t, sum.Samples, 3)
	assert.Equal(t, 20*time.Millisecond, sum.Mean)
}

func TestBenchmark_AbortsOnFailedTrial(t *testing.T) {
	exitErr := &runner.ExitError{Path: "./performance.out", ExitCode: 1}
	fr := &fakeRunner{failAt: 2, failErr: exitErr}
	b := &Benchmark{Timer: &Timer{Runner: fr}, Target: "./performance.out"}

	_, err := b.Run(context.Background(), Config{N: 1, M: 1, Repetitions: 10})
	var got *runner.ExitError
	require.ErrorAs(t, err, &got)
	assert.Contains(t, err.Error(), "trial 2")
	assert.Len(t, fr.calls, 2, "no trials after the failing one")
}

func TestBenchmark_RejectsZeroRepetitions(t *testing.T) {
	fr := &fakeRunner{}
	b := &Benchmark{Timer: &Timer{Runner: fr}, Target: "t"}

	_, err := b.Run(context.Background(), Config{N: 1, M: 1, Repetitions: 0})
	require.ErrorIs(t, err, ErrRepetitions)
	assert.Empty(t, fr.calls)
}
