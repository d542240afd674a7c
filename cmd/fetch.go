package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all registered feeds and store new entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			report, err := a.Ingest.Fetch(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s: %d fetched, %d skipped, %d failed\n",
				report.RunID, report.Fetched, report.Skipped, report.Failed)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
