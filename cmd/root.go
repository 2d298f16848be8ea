package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "censuskr",
	Short: "Korean census data pipeline",
	Long:  "Loads KOSTAT census statistics and district boundaries by year, dissolves districts onto upper administrative levels, joins statistics with geometry, and serves the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
