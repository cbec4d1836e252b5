package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geotable/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geotable",
	Short: "Geospatial attribute table and raster toolkit",
	Long:  "Ingests vector and raster datasets into a catalog, joins and aggregates attribute tables with their geometries attached, reprojects between coordinate reference systems, and serves datasets over HTTP.",
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
