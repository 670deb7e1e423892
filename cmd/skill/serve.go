package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"

	"github.com/lookatitude/skill-engine/agentbridge"
	"github.com/lookatitude/skill-engine/discovery"
	"github.com/lookatitude/skill-engine/manifest"
	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/protocol/mcp"
)

var (
	serveAddr        string
	serveStdio       bool
	serveReindexCron string
	serveWatchFS     bool
)

// serveCmd exposes the same four operations run/find use internally over a
// real MCP transport, per spec.md §4.9/§6.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the skill engine's list_skills/search_skills/execute/generate_examples tools over MCP",
	Args:  cobra.NoArgs,
	RunE:  serveRunE,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8765", "HTTP address to listen on")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "serve over newline-delimited JSON-RPC on stdin/stdout instead of HTTP")
	serveCmd.Flags().StringVar(&serveReindexCron, "reindex-cron", "@every 5m", "cron schedule for refreshing the search index against on-disk skill changes; empty disables")
	serveCmd.Flags().BoolVar(&serveWatchFS, "watch", true, "reindex immediately on SKILL.md/wasm filesystem changes, instead of waiting for --reindex-cron")
}

func serveRunE(cmd *cobra.Command, args []string) error {
	bridge, srv, err := newBridgeServer()
	if err != nil {
		return err
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obsShutdown, err := initObservability("skill-engine")
	if err != nil {
		return invocationErrorf("init observability: %v", err)
	}
	defer obsShutdown(context.Background())

	if serveReindexCron != "" {
		scheduler := cron.New()
		logger := o11y.NewLogger()
		if err := scheduler.AddFunc(serveReindexCron, func() {
			if err := bridge.Reindex(ctx); err != nil {
				logger.Error(ctx, "reindex failed", "error", err)
			}
		}); err != nil {
			return invocationErrorf("invalid --reindex-cron schedule %q: %v", serveReindexCron, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if serveWatchFS {
		logger := o11y.NewLogger()
		if dirs := bridge.WatchDirs(); len(dirs) > 0 {
			watcher, err := discovery.NewWatcher(dirs, func() {
				if err := bridge.Reindex(ctx); err != nil {
					logger.Error(ctx, "fs-triggered reindex failed", "error", err)
				}
			}, 0)
			if err != nil {
				logger.Warn(ctx, "filesystem watch disabled", "error", err)
			} else {
				defer watcher.Close()
			}
		}

		if searchDir, dirErr := manifestSearchDir(); dirErr == nil {
			if manifestPath, findErr := manifest.Find(searchDir); findErr == nil {
				mw, watchErr := manifest.NewWatcher(manifestPath, func(m *manifest.Manifest) {
					bridge.ReloadManifest(m)
					logger.Info(ctx, "manifest reloaded", "path", manifestPath)
					if err := bridge.Reindex(ctx); err != nil {
						logger.Error(ctx, "post-reload reindex failed", "error", err)
					}
				})
				if watchErr != nil {
					logger.Warn(ctx, "manifest watch disabled", "error", watchErr)
				} else {
					defer mw.Close()
				}
			}
		}
	}

	if serveStdio {
		if err := srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && ctx.Err() == nil {
			return withExitCode(exitRuntimeUnavailable, err)
		}
		return nil
	}

	if err := serveHTTPWithWebsocket(ctx, serveAddr, srv, bridge); err != nil && ctx.Err() == nil {
		return withExitCode(exitRuntimeUnavailable, err)
	}
	return nil
}

// serveHTTPWithWebsocket mounts the MCP JSON-RPC router plus a
// /ws/generate_examples websocket endpoint on one listener. It mirrors
// (*mcp.MCPServer).Serve's graceful-shutdown behavior rather than calling
// it directly, since Serve builds its own http.Server from srv.Router()
// alone and has no hook for an extra route.
func serveHTTPWithWebsocket(ctx context.Context, addr string, srv *mcp.MCPServer, bridge *agentbridge.Bridge) error {
	router := srv.Router()
	router.HandleFunc("/ws/generate_examples", wsGenerateExamplesHandler(bridge))
	router.Handle("/metrics", metricsHandler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("serve: listen %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: router}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}
