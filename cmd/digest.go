package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate a learning digest for the current week",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			res, err := a.Generator.Generate(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Week %d digest:\n\n%s\n", res.Week, res.Text)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
}
