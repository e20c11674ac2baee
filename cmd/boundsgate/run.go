package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deixis/boundsgate/internal/config"
	"github.com/deixis/boundsgate/internal/report"
	"github.com/deixis/boundsgate/internal/runner"
	"github.com/deixis/boundsgate/internal/workflow"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
)

func newRunCmd(a *app, opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the safety and performance checks",
		Long: `Run the harness subtests in order, stopping at the first failure:

  safety       the target must reject an out-of-bounds access with a
               nonzero exit and an "Illegal memory access" diagnostic
  performance  the mean runtime may grow at most --threshold times when
               N or M grows by the configured scale factor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.target, "target", "", "path to the instrumented executable (overrides config)")
	f.BoolVar(&opts.jsonOut, "json", false, "output the run result as JSON")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.DurationVar(&opts.timeout, "timeout", 0, "override configured per-invocation timeout (e.g. 5m); 0 disables it")
	f.IntVar(&opts.repetitions, "repetitions", 0, "trials per benchmark configuration (default 10)")
	f.Float64Var(&opts.threshold, "threshold", 0, "maximum allowed scaling factor (default 12)")

	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	a.setVerbose(opts.verbose)

	loaded, err := config.Load(a.workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config
	if opts.repetitions < 0 {
		return fmt.Errorf("--repetitions must be positive, got %d", opts.repetitions)
	}
	if opts.repetitions > 0 {
		cfg.RawRepetitions = opts.repetitions
	}
	if opts.timeout < 0 {
		return fmt.Errorf("--timeout must not be negative, got %s", opts.timeout)
	}
	if opts.threshold > 0 {
		cfg.RawThreshold = opts.threshold
	}

	target := opts.target
	if target == "" {
		target = cfg.Target()
	}
	target = resolve(loaded.Root, target)

	store, closeStore, err := openStore(cfg, loaded.Root)
	if err != nil {
		return err
	}
	defer closeStore()

	stdout := cmd.OutOrStdout()
	progress := stdout
	if opts.jsonOut {
		progress = cmd.ErrOrStderr()
	}

	timeout := cfg.Timeout()
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}

	eng := &workflow.Engine{
		Config: cfg,
		Runner: &runner.Runner{
			Dir:       loaded.Root,
			Timeout:   timeout,
			MaxOutput: cfg.MaxOutputBytes(),
		},
		Target: target,
		Logger: a.logger,
		Out:    progress,
	}

	result, err := eng.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := store.Save(result.RunResult); err != nil {
		a.logger.Warn("failed to store run", "run_id", result.RunResult.ID, "error", err)
	}

	if opts.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.RunResult); err != nil {
			return err
		}
	} else {
		writeReport(stdout, result.RunResult, opts.verbose)
	}

	if result.State != workflow.Passed {
		return &exitError{Code: exitFailure, Err: result.Err, Silent: true}
	}
	return nil
}

// writeReport prints the coloured status header followed by the summary.
func writeReport(w io.Writer, rr *report.RunResult, verbose bool) {
	fmt.Fprintln(w)
	if rr.Status == report.Pass {
		fmt.Fprintln(w, passLabel("PASS"))
	} else {
		fmt.Fprintln(w, failLabel("FAIL"))
	}
	fmt.Fprint(w, workflow.FormatSummary(rr, verbose))
}
