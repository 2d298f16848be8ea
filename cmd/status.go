package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset load history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := env.cache.Status(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no datasets loaded yet")
			return nil
		}

		fmt.Printf("%-6s %-12s %10s %12s %s\n", "YEAR", "KIND", "ROWS", "DURATION", "LOADED AT")
		for _, r := range rows {
			fmt.Printf("%-6d %-12s %10d %10dms %s\n",
				r.Year, r.Kind, r.RowCount, r.DurationMs, r.LoadedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
