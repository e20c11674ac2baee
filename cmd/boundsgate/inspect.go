package main

import (
	"fmt"
	"strings"

	"github.com/deixis/boundsgate/internal/config"
	"github.com/deixis/boundsgate/internal/report"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <run-id> [step]",
		Short: "Show the diagnostics of a stored run",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step := ""
			if len(args) == 2 {
				step = args[1]
			}

			loaded, err := config.Load(a.workspace)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			store, closeStore, err := openStore(loaded.Config, loaded.Root)
			if err != nil {
				return err
			}
			defer closeStore()

			rr, err := store.Load(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run: %s (%s)\n", rr.ID, rr.Status)
			fmt.Fprintf(w, "Target: %s\n", rr.Target)
			fmt.Fprintf(w, "Started: %s (%s)\n\n", rr.StartedAt.Format("2006-01-02 15:04:05"), rr.Elapsed)

			diags := report.ByStep(rr, step)
			if len(diags) == 0 {
				fmt.Fprintf(w, "No diagnostics for step %q.\n", step)
				return nil
			}
			for _, d := range diags {
				tag := d.Source
				if d.Detail != "" {
					tag += "/" + d.Detail
				}
				fmt.Fprintf(w, "  %-12s [%s] %s\n", d.Step, tag, d.Message)
				if d.Output != "" {
					for _, line := range strings.Split(strings.TrimRight(d.Output, "\n"), "\n") {
						fmt.Fprintf(w, "      %s\n", line)
					}
				}
			}
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "List recent runs (sqlite store only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(a.workspace)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			store, closeStore, err := openStore(loaded.Config, loaded.Root)
			if err != nil {
				return err
			}
			defer closeStore()

			sq, ok := store.(*report.SQLiteStore)
			if !ok {
				return fmt.Errorf("history requires store.kind: sqlite in %s", config.FileName)
			}

			target := loaded.Config.Target()
			if len(args) == 1 {
				target = args[0]
			}
			target = resolve(loaded.Root, target)

			runs, err := sq.History(target, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintf(w, "No runs recorded for %s.\n", target)
				return nil
			}
			for _, r := range runs {
				var factors []string
				for _, s := range r.Scaling {
					factors = append(factors, fmt.Sprintf("%s=%.4f", s.Axis, s.Ratio))
				}
				fmt.Fprintf(w, "%s  %s  %-4s %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Status, strings.Join(factors, " "))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
