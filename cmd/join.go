package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/census"
)

var (
	joinYear     int
	joinCategory string
	joinReducer  string
	joinOut      string
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join dissolved boundaries with reduced statistics",
	Long:  "Produces a GeoJSON FeatureCollection of dissolved upper-level districts with the reduced statistic attached to each feature. The join is inner: districts without a statistic and statistics without a boundary are dropped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		joined, err := env.accessor.ChoroplethData(ctx, census.StatsRequest{
			Year:      joinYear,
			Category:  joinCategory,
			Reducer:   joinReducer,
			PrefixLen: cfg.Dissolve.PrefixLen,
			Suffix:    cfg.Dissolve.Suffix,
		})
		if err != nil {
			return err
		}

		features := make([]*geojson.Feature, 0, len(joined))
		for _, j := range joined {
			features = append(features, &geojson.Feature{
				ID:       j.Code,
				Geometry: j.Geometry,
				Properties: map[string]any{
					"code":     j.Code,
					"name":     j.Name,
					"year":     j.Year,
					"category": string(j.Category),
					"value":    j.Value,
				},
			})
		}

		out := os.Stdout
		if joinOut != "" {
			f, err := os.Create(joinOut)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := json.NewEncoder(out).Encode(&geojson.FeatureCollection{Features: features}); err != nil {
			return err
		}

		zap.L().Info("join written",
			zap.Int("year", joinYear),
			zap.Int("features", len(features)),
			zap.String("dest", joinOut),
		)
		return nil
	},
}

func init() {
	joinCmd.Flags().IntVar(&joinYear, "year", 2020, "census year")
	joinCmd.Flags().StringVar(&joinCategory, "category", "population", "statistic category")
	joinCmd.Flags().StringVar(&joinReducer, "reducer", "sum", "reduction function")
	joinCmd.Flags().StringVar(&joinOut, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(joinCmd)
}
