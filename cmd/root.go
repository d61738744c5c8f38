package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slopeworks/geotracks/internal/config"
	"github.com/slopeworks/geotracks/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geotracks",
	Short: "Location-track to GeoJSON conversion toolkit",
	Long:  "Converts location-tracking JSON exports into GeoJSON feature collections, rasterizes point clouds into KDE heatmaps, and exports point shapefiles.",
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

// initStore opens the run ledger. The ledger is optional bookkeeping:
// an unopenable database is logged and conversion proceeds without it.
func initStore(ctx context.Context) store.Store {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		zap.L().Warn("run ledger unavailable", zap.Error(err))
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run ledger migration failed", zap.Error(err))
		_ = st.Close()
		return nil
	}
	return st
}

// closeStore closes a possibly-nil ledger.
func closeStore(st store.Store) {
	if st != nil {
		_ = st.Close()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
