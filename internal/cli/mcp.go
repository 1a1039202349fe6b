package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/proofpack-health/internal/adapters/mcp"
	"github.com/kirillkom/proofpack-health/internal/bootstrap"
	"github.com/kirillkom/proofpack-health/internal/config"
	"github.com/kirillkom/proofpack-health/internal/observability/logging"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve pack health tools over MCP stdio",
		Long:  "Connects to the pack health stores using the service environment and serves evaluate_pack_health and preview_pack_health over stdin/stdout.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			// stdout carries protocol frames.
			slog.SetDefault(logging.NewLogger(os.Stderr, "packhealth-mcp", cfg.LogLevel))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			return mcpadapter.NewServer(app.EvaluateUC, Version).ServeStdio()
		},
	}
}

