package cmd

import (
	"context"
	"fmt"

	mcpSdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the learning coach as an MCP server using stdio transport,
for use with Claude Desktop and other MCP clients.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(runMCP)
	},
}

func runMCP(ctx context.Context, a *app.App) error {
	srv, err := mcpserver.NewServer(mcpserver.Config{
		Name:      "studyowl",
		Version:   Version,
		Ingest:    a.Ingest,
		Progress:  a.Store,
		Generator: a.Generator,
		Logger:    a.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	a.Logger.Info("MCP server ready", "name", "studyowl", "version", Version, "transport", "stdio")

	if err := srv.Run(ctx, &mcpSdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	a.Logger.Info("MCP server shut down gracefully")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
