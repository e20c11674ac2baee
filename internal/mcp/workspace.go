package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type workspaceParams struct{}

func (h *handler) workspaceHandler(ctx context.Context, req *mcp.CallToolRequest, _ workspaceParams) (*mcp.CallToolResult, any, error) {
	c, _, root := h.snapshot()
	cfg := &c
	target := resolveTarget(cfg, root, "")

	var b strings.Builder
	fmt.Fprintf(&b, "Root: %s\n", root)
	fmt.Fprintf(&b, "Target: %s", target)
	if info, err := os.Stat(target); err != nil {
		fmt.Fprint(&b, " (missing)")
	} else if info.Mode()&0o111 == 0 {
		fmt.Fprint(&b, " (not executable)")
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b)

	n, m := cfg.BaselineSizes()
	fmt.Fprintf(&b, "Steps: %s\n", strings.Join(cfg.HarnessSteps(), ", "))
	fmt.Fprintf(&b, "Safety args: %s (expect %q on stderr)\n", strings.Join(cfg.SafetyArgs(), " "), cfg.Diagnostic())
	fmt.Fprintf(&b, "Baseline: N=%d M=%d\n", n, m)
	fmt.Fprintf(&b, "Scale factor: %d\n", cfg.ScaleFactor())
	fmt.Fprintf(&b, "Repetitions: %d\n", cfg.Repetitions())
	fmt.Fprintf(&b, "Threshold: %g\n", cfg.Threshold())
	fmt.Fprintf(&b, "Timeout: %s\n", cfg.Timeout())

	return textResult(b.String())
}
