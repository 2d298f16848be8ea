package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/boundary"
	"github.com/sigmafelix/censuskr/internal/model"
)

var (
	dissolveYear      int
	dissolvePrefixLen int
	dissolveSuffix    string
	dissolveUseDB     bool
)

var dissolveCmd = &cobra.Command{
	Use:   "dissolve",
	Short: "Dissolve districts onto an upper administrative level",
	Long:  "Groups one year's districts by code prefix and merges each group's geometry under a derived code (prefix plus suffix). With --db the merge runs in PostGIS via ST_Union; otherwise geometries are collected into multi-part shapes in memory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, dissolveUseDB)
		if err != nil {
			return err
		}
		defer env.Close()

		var dissolved []model.District
		if dissolveUseDB {
			dissolved, err = env.pg.DissolvedDistricts(ctx, dissolveYear, dissolvePrefixLen, dissolveSuffix)
		} else {
			var districts []model.District
			districts, err = env.accessor.LoadDistricts(ctx, dissolveYear)
			if err == nil {
				dissolved, err = boundary.Dissolve(districts, dissolvePrefixLen, dissolveSuffix)
			}
		}
		if err != nil {
			return err
		}

		zap.L().Info("districts dissolved",
			zap.Int("year", dissolveYear),
			zap.Int("groups", len(dissolved)),
		)

		type row struct {
			Code  string  `json:"code"`
			Parts int     `json:"parts"`
			Area  float64 `json:"area"`
		}
		out := make([]row, 0, len(dissolved))
		for _, d := range dissolved {
			r := row{Code: d.Code}
			if d.Geometry != nil {
				r.Parts = d.Geometry.NumPolygons()
				r.Area = boundary.Area(d.Geometry)
			}
			out = append(out, r)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	dissolveCmd.Flags().IntVar(&dissolveYear, "year", 2020, "census year")
	dissolveCmd.Flags().IntVar(&dissolvePrefixLen, "prefix-len", 4, "code prefix length to group by")
	dissolveCmd.Flags().StringVar(&dissolveSuffix, "suffix", "0", "suffix appended to the prefix to form the derived code")
	dissolveCmd.Flags().BoolVar(&dissolveUseDB, "db", false, "dissolve in PostGIS (requires loaded districts)")
	rootCmd.AddCommand(dissolveCmd)
}
