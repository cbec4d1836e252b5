package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geotable/internal/crs"
)

var setcrsCmd = &cobra.Command{
	Use:   "setcrs <name> <crs>",
	Short: "Declare a dataset's CRS without touching coordinates",
	Long: `Tags a dataset with a CRS, e.g. "geotable setcrs rivers EPSG:4326".
This only declares what the coordinates already are. To convert
coordinates into another system, use reproject.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name := args[0]
		c, err := crs.Parse(args[1])
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		info, err := s.Get(ctx, name)
		if err != nil {
			return err
		}

		switch info.Kind {
		case "vector":
			t, err := s.LoadTable(ctx, name)
			if err != nil {
				return err
			}
			if err := t.SetCRS(c.SRID); err != nil {
				return err
			}
			if _, err := s.SaveTable(ctx, name, t); err != nil {
				return err
			}
		case "raster":
			g, err := s.LoadGrid(ctx, name)
			if err != nil {
				return err
			}
			g.SetCRS(c.SRID)
			if _, err := s.SaveGrid(ctx, name, g); err != nil {
				return err
			}
		default:
			return eris.Errorf("unknown dataset kind %q", info.Kind)
		}

		zap.L().Info("crs declared", zap.String("dataset", name), zap.String("crs", c.String()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setcrsCmd)
}
