package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geotable/internal/crs"
)

var reprojectFlags struct {
	to  string
	out string
}

var reprojectCmd = &cobra.Command{
	Use:   "reproject <name>",
	Short: "Transform a vector dataset into another CRS",
	Long: `Converts every geometry of a dataset into the target CRS and saves
the result. The source dataset must already have a declared CRS.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name := args[0]
		if reprojectFlags.to == "" {
			return eris.New("--to target CRS is required")
		}
		dst, err := crs.Parse(reprojectFlags.to)
		if err != nil {
			return err
		}

		outName := reprojectFlags.out
		if outName == "" {
			outName = name
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.LoadTable(ctx, name)
		if err != nil {
			return err
		}

		projected, err := t.Reproject(dst)
		if err != nil {
			return err
		}
		if _, err := s.SaveTable(ctx, outName, projected); err != nil {
			return err
		}

		zap.L().Info("dataset reprojected",
			zap.String("dataset", name),
			zap.String("to", dst.String()),
			zap.String("saved_as", outName),
		)
		return nil
	},
}

func init() {
	reprojectCmd.Flags().StringVar(&reprojectFlags.to, "to", "", "target CRS, e.g. EPSG:3857")
	reprojectCmd.Flags().StringVar(&reprojectFlags.out, "out", "", "save result under this name (default: overwrite source)")
	rootCmd.AddCommand(reprojectCmd)
}
