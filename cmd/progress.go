package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/config"
)

var progressCmd = &cobra.Command{
	Use:   "progress <week> <topics...>",
	Short: "Record the topics studied in a learning week (1-52)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		week, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("week must be a number, got %q", args[0])
		}
		if week < config.MinWeek || week > config.MaxWeek {
			return fmt.Errorf("week must be between %d and %d, got %d", config.MinWeek, config.MaxWeek, week)
		}
		topics := strings.Join(args[1:], " ")

		return withApp(func(ctx context.Context, a *app.App) error {
			if _, err := a.Store.AppendProgress(ctx, week, topics); err != nil {
				return err
			}
			fmt.Printf("Recorded week %d: %s\n", week, topics)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
}
