// Command boundsgate runs the memory-safety regression harness against an
// instrumented target program.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	exitSuccess      = 0 // all subtests passed
	exitFailure      = 1 // a subtest failed
	exitCommandError = 2 // invalid flags, missing config, unreadable store
)

// exitError carries an exit code out of a command. Silent errors have
// already been reported to the user.
type exitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *exitError) Error() string { return e.Err.Error() }

func (e *exitError) Unwrap() error { return e.Err }

// exitCode maps a command error to a process exit code. Errors without an
// explicit code are command errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return exitCommandError
}

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundsgate: determining workspace: %v\n", err)
		os.Exit(exitCommandError)
	}

	a := &app{logger: logger, level: level, workspace: wd}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.Silent {
			fmt.Fprintf(os.Stderr, "boundsgate: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// app holds process-wide dependencies shared by all commands.
type app struct {
	logger    *slog.Logger
	level     *slog.LevelVar // raised to Info by -v; nil leaves the level alone
	workspace string         // directory config discovery starts from
}

func newRootCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	root := &cobra.Command{
		Use:   "boundsgate",
		Short: "Memory-safety regression harness",
		Long: `boundsgate checks an instrumented program for two regressions: an
out-of-bounds access that goes undetected, and instrumentation overhead that
scales super-linearly as input grows.

Running boundsgate without a command is the same as "boundsgate run".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{Code: exitCommandError, Err: err}
	})

	run := newRunCmd(a, opts)
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run)
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newMCPCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// runOptions holds the flags of the run command.
type runOptions struct {
	target      string
	jsonOut     bool
	verbose     bool
	timeout     time.Duration
	repetitions int
	threshold   float64
}

func (a *app) setVerbose(v bool) {
	if v && a.level != nil {
		a.level.Set(slog.LevelInfo)
	}
}
