package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/boundsgate/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a bg_run result"`
	Step  string `json:"step,omitempty" jsonschema:"subtest to inspect: safety or performance. Defaults to every subtest."`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	diagnostics := report.ByStep(result, params.Step)
	if len(diagnostics) == 0 {
		return textResult(fmt.Sprintf("No diagnostics found for step %q in run %s.", params.Step, params.RunID))
	}

	return textResult(formatInspectOutput(result, diagnostics))
}

func formatInspectOutput(rr *report.RunResult, diagnostics []report.Diagnostic) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", rr.ID, rr.Status)
	fmt.Fprintf(&b, "Target: %s\n", rr.Target)
	fmt.Fprintln(&b)

	step := ""
	for _, d := range diagnostics {
		if d.Step != step {
			step = d.Step
			fmt.Fprintf(&b, "%s:\n", step)
		}
		tag := d.Source
		if d.Detail != "" {
			tag = d.Source + "/" + d.Detail
		}
		fmt.Fprintf(&b, "  [%s] %s\n", tag, d.Message)
	}

	for _, d := range diagnostics {
		if d.Output != "" {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, "Target stderr:")
			for _, line := range strings.Split(strings.TrimRight(d.Output, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	return b.String()
}
