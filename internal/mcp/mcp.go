// Package mcp provides the boundsgate MCP server, registering the harness
// tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/deixis/boundsgate"
	"github.com/deixis/boundsgate/internal/config"
	"github.com/deixis/boundsgate/internal/report"
	"github.com/deixis/boundsgate/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	runMu sync.Mutex // serializes harness runs

	mu     sync.Mutex // guards the fields below
	cfg    *config.Config
	runner *runner.Runner
	store  report.Store
	root   string // directory relative targets are resolved against
	logger *slog.Logger
}

// NewServer creates an MCP server with all boundsgate tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, root string, opts ...ServerOption) *mcp.Server {
	var so serverOptions
	for _, o := range opts {
		o(&so)
	}
	logger := so.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := &handler{
		cfg:    cfg,
		runner: r,
		store:  store,
		root:   root,
		logger: logger,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "boundsgate", Version: boundsgate.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "bg_workspace",
		Description: "Show the effective harness configuration and whether the target executable exists.",
	}, h.workspaceHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "bg_run",
		Description: `Run the harness: the out-of-bounds safety check, then the scaling checks. Stops on first failure.

Results are stored for drill-down via bg_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "bg_inspect",
		Description: "Drill into a stored bg_run result. Pass the run_id and optionally a step (safety or performance).",
	}, h.inspectHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "bg_history",
		Description: "List recent runs for the target with their scaling factors. Requires the sqlite store.",
	}, h.historyHandler)

	return s
}

// ServerOption configures the boundsgate MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger *slog.Logger
}

// WithLogger attaches a logger used for harness runs.
func WithLogger(l *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// updateWorkspaceFromRoots queries the client for MCP roots and reloads
// the configuration from the first file root.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	loaded, err := config.Load(u.Path)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = loaded.Config
	h.root = loaded.Root
	h.runner = &runner.Runner{
		Dir:       loaded.Root,
		Timeout:   loaded.Config.Timeout(),
		MaxOutput: loaded.Config.MaxOutputBytes(),
		Stdout:    h.runner.Stdout,
		Stderr:    h.runner.Stderr,
	}
}

// snapshot copies the current configuration and runner under h.mu so a
// long harness run does not hold the lock.
func (h *handler) snapshot() (config.Config, runner.Runner, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.cfg, *h.runner, h.root
}

// resolveTarget makes a relative target path absolute against root.
func resolveTarget(cfg *config.Config, root, target string) string {
	if target == "" {
		target = cfg.Target()
	}
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(root, target)
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
