package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sigmafelix/censuskr/internal/model"
)

var (
	loadYear int
	loadToDB bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load one year's statistics and boundaries",
	Long:  "Loads the census statistics table and the adm2 boundary layer for a year, fetching from the remote dataset host when missing locally. With --to-db the datasets are also written to PostGIS.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, loadToDB)
		if err != nil {
			return err
		}
		defer env.Close()

		var (
			records   []model.CensusRecord
			districts []model.District
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			records, err = env.accessor.LoadData(gctx, loadYear)
			return err
		})
		g.Go(func() error {
			var err error
			districts, err = env.accessor.LoadDistricts(gctx, loadYear)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("datasets loaded",
			zap.Int("year", loadYear),
			zap.Int("records", len(records)),
			zap.Int("districts", len(districts)),
		)

		if !loadToDB {
			return nil
		}

		if _, err := env.pg.LoadDistricts(ctx, loadYear, districts); err != nil {
			return err
		}
		n, err := env.pg.LoadStats(ctx, loadYear, records)
		if err != nil {
			return err
		}
		zap.L().Info("datasets written to database",
			zap.Int("year", loadYear),
			zap.Int64("stat_rows", n),
		)
		return nil
	},
}

func init() {
	loadCmd.Flags().IntVar(&loadYear, "year", 2020, "census year")
	loadCmd.Flags().BoolVar(&loadToDB, "to-db", false, "also write datasets to PostGIS")
	rootCmd.AddCommand(loadCmd)
}
