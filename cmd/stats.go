package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigmafelix/censuskr/internal/census"
)

var (
	statsYear      int
	statsCategory  string
	statsReducer   string
	statsPrefixLen int
	statsSuffix    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Reduce one year's statistics onto derived district codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		prefixLen, suffix := statsPrefixLen, statsSuffix
		if prefixLen == 0 {
			prefixLen = cfg.Dissolve.PrefixLen
		}
		if suffix == "" {
			suffix = cfg.Dissolve.Suffix
		}

		rows, err := env.accessor.Stats(ctx, census.StatsRequest{
			Year:      statsYear,
			Category:  statsCategory,
			Reducer:   statsReducer,
			PrefixLen: prefixLen,
			Suffix:    suffix,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsYear, "year", 2020, "census year")
	statsCmd.Flags().StringVar(&statsCategory, "category", "population", "statistic category (tax, population, households, housing)")
	statsCmd.Flags().StringVar(&statsReducer, "reducer", "sum", "reduction function (sum, mean, min, max, count)")
	statsCmd.Flags().IntVar(&statsPrefixLen, "prefix-len", 0, "code prefix length (default from config rule)")
	statsCmd.Flags().StringVar(&statsSuffix, "suffix", "", "derived-code suffix (default from config rule)")
	rootCmd.AddCommand(statsCmd)
}
