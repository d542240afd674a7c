// Package cmd implements the studyowl command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "studyowl",
	Short: "studyowl - personal AI learning coach",
	Long: `studyowl ingests articles and documents you are learning from, stores
them as vector embeddings, and generates weekly learning digests with the
Gemini API.

Run 'studyowl serve' to expose the coach as an MCP server, or
'studyowl api' to start the HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// withApp loads configuration, builds the application, runs fn, and tears
// everything down. The context is canceled on SIGINT/SIGTERM.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// MCP stdio transport reserves stdout for JSON-RPC, so all logging goes
	// to stderr.
	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	return fn(ctx, a)
}
