package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/deixis/boundsgate/internal/report"
	"github.com/deixis/boundsgate/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Target      string `json:"target,omitempty" jsonschema:"path to the instrumented executable, absolute or relative to the workspace. Defaults to the configured target."`
	Repetitions int    `json:"repetitions,omitempty" jsonschema:"trials per benchmark configuration. Defaults to the configured value (10)."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if params.Repetitions < 0 {
		return errorResult("repetitions must be positive")
	}

	h.runMu.Lock()
	defer h.runMu.Unlock()

	cfg, r, root := h.snapshot()
	if params.Repetitions > 0 {
		cfg.RawRepetitions = params.Repetitions
	}

	var progress bytes.Buffer
	eng := &workflow.Engine{
		Config: &cfg,
		Runner: &r,
		Target: resolveTarget(&cfg, root, params.Target),
		Logger: h.logger,
		Out:    &progress,
	}

	result, err := eng.Run(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	// Save results for bg_inspect.
	if err := h.store.Save(result.RunResult); err != nil {
		h.logger.WarnContext(ctx, "failed to store run", "run_id", result.RunResult.ID, "error", err)
	}

	return textResult(formatRun(result.RunResult))
}

func formatRun(rr *report.RunResult) string {
	var b strings.Builder

	if rr.Status == report.Pass {
		fmt.Fprintln(&b, "Status: PASS")
	} else {
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprint(&b, workflow.FormatSummary(rr, false))
	fmt.Fprintln(&b)

	if rr.Status == report.Pass {
		fmt.Fprintln(&b, "All subtests passed.")
	} else {
		fmt.Fprintf(&b, "Inspect with bg_inspect(run_id=%q, step=\"safety|performance\").\n", rr.ID)
	}

	return b.String()
}
