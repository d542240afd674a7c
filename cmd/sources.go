package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage content sources",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register an RSS or Atom feed URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			id, err := a.Ingest.AddSource(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Added source %d: %s\n", id, args[0])
			return nil
		})
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			sources, err := a.Ingest.Sources(ctx)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Println("No sources registered.")
				return nil
			}
			for _, s := range sources {
				fmt.Printf("%4d  %s\n", s.ID, s.URL)
			}
			return nil
		})
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	rootCmd.AddCommand(sourcesCmd)
}
