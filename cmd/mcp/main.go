// Command mcp exposes the review operations as MCP tools over stdio.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/ad-autonamer/internal/adapters/mcp"
	"github.com/kirillkom/ad-autonamer/internal/bootstrap"
	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/observability/logging"
)

const serviceName = "autonamer-mcp"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	slog.SetDefault(logging.NewStderrLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("mcp_server_started", "session_store", cfg.SessionStore, "export_store", cfg.ExportStore)
	if err := mcpadapter.NewServer(app.ReviewUC, app.ReviewUC, app.ExportUC).ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
