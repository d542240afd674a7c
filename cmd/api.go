package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/api"
	"github.com/studyowl/studyowl/internal/app"
)

var apiAddr string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(runAPI)
	},
}

func runAPI(ctx context.Context, a *app.App) error {
	srv, err := api.NewServer(api.ServerConfig{
		Logger:    a.Logger,
		Ingest:    a.Ingest,
		Store:     a.Store,
		Generator: a.Generator,
		Pinger:    a.Store,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	addr := apiAddr
	if addr == "" {
		addr = a.Config.HTTPAddr
	}
	return srv.Run(ctx, addr)
}

func init() {
	apiCmd.Flags().StringVar(&apiAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(apiCmd)
}
