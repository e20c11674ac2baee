package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/deixis/boundsgate"
	"github.com/deixis/boundsgate/internal/config"
	bgmcp "github.com/deixis/boundsgate/internal/mcp"
	"github.com/deixis/boundsgate/internal/runner"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		instructions bool
		httpAddr     string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start an MCP server exposing the harness as tools (bg_run, bg_inspect,
bg_history, bg_workspace). Serves stdio unless --http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(cmd.OutOrStdout(), bgmcp.Instructions)
				return nil
			}
			return a.serve(cmd.Context(), httpAddr)
		},
	}
	cmd.Flags().BoolVar(&instructions, "instructions", false, "print model instructions and exit")
	cmd.Flags().StringVar(&httpAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	return cmd
}

func (a *app) serve(ctx context.Context, httpAddr string) error {
	loaded, err := config.Load(a.workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	store, closeStore, err := openStore(cfg, loaded.Root)
	if err != nil {
		return err
	}
	defer closeStore()

	r := &runner.Runner{
		Dir:       loaded.Root,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := bgmcp.NewServer(cfg, r, store, loaded.Root, bgmcp.WithLogger(a.logger))

	if httpAddr != "" {
		return a.serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func (a *app) serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	a.logger.Info("listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), boundsgate.Version)
		},
	}
}
