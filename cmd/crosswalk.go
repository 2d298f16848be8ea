package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.uber.org/zap"
)

var (
	crosswalkFrom int
	crosswalkTo   int
	crosswalkOut  string
)

var crosswalkCmd = &cobra.Command{
	Use:   "crosswalk",
	Short: "Build an area-weighted crosswalk between two census years",
	Long:  "Loads both years' district boundaries into PostGIS and intersects them, producing from-code/to-code pairs weighted by overlap area. Requires store.database_url.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := env.accessor.CreateCrosswalk(ctx, env.pg, crosswalkFrom, crosswalkTo)
		if err != nil {
			return err
		}

		out := os.Stdout
		if crosswalkOut != "" {
			f, err := os.Create(crosswalkOut)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return err
		}

		zap.L().Info("crosswalk written",
			zap.Int("from_year", crosswalkFrom),
			zap.Int("to_year", crosswalkTo),
			zap.Int("pairs", len(rows)),
		)
		return nil
	},
}

func init() {
	crosswalkCmd.Flags().IntVar(&crosswalkFrom, "from", 0, "source census year")
	crosswalkCmd.Flags().IntVar(&crosswalkTo, "to", 0, "target census year")
	crosswalkCmd.Flags().StringVar(&crosswalkOut, "out", "", "output file (default stdout)")
	_ = crosswalkCmd.MarkFlagRequired("from")
	_ = crosswalkCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(crosswalkCmd)
}
