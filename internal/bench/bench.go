// Package bench times repeated invocations of the target program and
// reduces the samples to a single representative duration.
//
// Trials run sequentially. Every sample counts: there is no warm-up and no
// outlier rejection, so the mean is a pure function of the samples.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/deixis/boundsgate/internal/runner"
)

var (
	// ErrRepetitions is returned for a Config with fewer than one repetition.
	ErrRepetitions = errors.New("repetitions must be at least 1")
	// ErrNoSamples is returned when reducing an empty sample set.
	ErrNoSamples = errors.New("no samples to reduce")
)

// Runner executes a single invocation. Implemented by runner.Runner.
type Runner interface {
	Run(ctx context.Context, inv runner.Invocation) (*runner.Result, error)
}

// Config is one benchmark configuration: the two input sizes passed to the
// target and the number of trials.
type Config struct {
	N           int `json:"n"`
	M           int `json:"m"`
	Repetitions int `json:"repetitions"`
}

// Args returns the positional arguments for the target.
func (c Config) Args() []string {
	return []string{strconv.Itoa(c.N), strconv.Itoa(c.M)}
}

// Validate checks the repetition invariant.
func (c Config) Validate() error {
	if c.Repetitions < 1 {
		return fmt.Errorf("%w, got %d", ErrRepetitions, c.Repetitions)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("N=%d M=%d", c.N, c.M)
}

// Measurement is a single trial duration.
type Measurement struct {
	Config   Config
	Trial    int
	Duration time.Duration
}

// Summary is the reduced outcome of one benchmark configuration.
type Summary struct {
	Config  Config          `json:"config"`
	Samples []time.Duration `json:"samples"`
	Mean    time.Duration   `json:"mean"`
}

// Timer measures the wall-clock duration of one invocation, from just
// before the process is spawned until it has exited and its output has
// been collected.
type Timer struct {
	Runner Runner
	Now    func() time.Time // defaults to time.Now
}

// Time runs inv once and returns its elapsed duration together with the
// runner result. Errors from the runner are returned unchanged.
func (t *Timer) Time(ctx context.Context, inv runner.Invocation) (time.Duration, *runner.Result, error) {
	now := t.Now
	if now == nil {
		now = time.Now
	}

	start := now()
	res, err := t.Runner.Run(ctx, inv)
	elapsed := now().Sub(start)
	if err != nil {
		return 0, res, err
	}
	return elapsed, res, nil
}

// Benchmark runs a fixed configuration of the target through a Timer.
type Benchmark struct {
	Timer  *Timer
	Target string
	Logger *slog.Logger
}

// Run executes cfg.Repetitions trials sequentially and returns their mean.
// The target must exit successfully on every trial; the first failing
// trial aborts the benchmark.
func (b *Benchmark) Run(ctx context.Context, cfg Config) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.Int("n", cfg.N), slog.Int("m", cfg.M))

	inv := runner.Invocation{
		Path:          b.Target,
		Args:          cfg.Args(),
		CaptureStdout: true,
	}

	samples := make([]time.Duration, 0, cfg.Repetitions)
	for i := 0; i < cfg.Repetitions; i++ {
		d, _, err := b.Timer.Time(ctx, inv)
		if err != nil {
			return nil, fmt.Errorf("trial %d of %s: %w", i+1, cfg, err)
		}
		m := Measurement{Config: cfg, Trial: i + 1, Duration: d}
		logger.DebugContext(ctx, "trial finished",
			slog.Int("trial", m.Trial),
			slog.Duration("duration", m.Duration),
		)
		samples = append(samples, m.Duration)
	}

	mean, err := Mean(samples)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "benchmark finished",
		slog.Int("repetitions", cfg.Repetitions),
		slog.Duration("mean", mean),
	)

	return &Summary{Config: cfg, Samples: samples, Mean: mean}, nil
}

// Mean returns the arithmetic mean of samples.
func Mean(samples []time.Duration) (time.Duration, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	var sum time.Duration
	for _, s := range samples {
		sum += s
	}
	return sum / time.Duration(len(samples)), nil
}
