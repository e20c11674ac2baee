package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/boundsgate/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// historyStore is implemented by stores that can list past runs.
type historyStore interface {
	History(target string, limit int) ([]*report.RunResult, error)
}

type historyParams struct {
	Target string `json:"target,omitempty" jsonschema:"target executable whose runs to list. Defaults to the configured target."`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 20)"`
}

func (h *handler) historyHandler(ctx context.Context, req *mcp.CallToolRequest, params historyParams) (*mcp.CallToolResult, any, error) {
	hs, ok := h.store.(historyStore)
	if !ok {
		return errorResult("run history requires the sqlite store (store.kind: sqlite in .boundsgate)")
	}

	cfg, _, root := h.snapshot()
	target := resolveTarget(&cfg, root, params.Target)

	runs, err := hs.History(target, params.Limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load history: %v", err))
	}
	if len(runs) == 0 {
		return textResult(fmt.Sprintf("No runs recorded for %s.", target))
	}
	return textResult(formatHistory(target, runs))
}

func formatHistory(target string, runs []*report.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Runs for %s (newest first):\n", target)
	for _, r := range runs {
		var factors []string
		for _, s := range r.Scaling {
			factors = append(factors, fmt.Sprintf("%s=%.4f", s.Axis, s.Ratio))
		}
		fmt.Fprintf(&b, "  %s  %s  %-4s %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Status, strings.Join(factors, " "))
	}
	return b.String()
}
