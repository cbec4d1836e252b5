package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geotable/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <name> <file>",
	Short: "Write a dataset to a file",
	Long: `Writes a vector dataset as GeoJSON (.geojson/.json), CSV with a WKT
geometry column (.csv) or an XLSX workbook (.xlsx), and a raster
dataset as an ESRI ASCII grid (.asc). The format follows the file
extension.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name, path := args[0], args[1]

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close()

		switch strings.ToLower(filepath.Ext(path)) {
		case ".geojson", ".json":
			t, err := s.LoadTable(ctx, name)
			if err != nil {
				return err
			}
			if err := export.WriteGeoJSON(f, t); err != nil {
				return err
			}
		case ".csv":
			t, err := s.LoadTable(ctx, name)
			if err != nil {
				return err
			}
			if err := export.WriteCSV(f, t); err != nil {
				return err
			}
		case ".xlsx":
			t, err := s.LoadTable(ctx, name)
			if err != nil {
				return err
			}
			if err := export.WriteXLSX(f, t, name); err != nil {
				return err
			}
		case ".asc":
			g, err := s.LoadGrid(ctx, name)
			if err != nil {
				return err
			}
			if err := export.WriteASCIIGrid(f, g); err != nil {
				return err
			}
		default:
			return eris.Errorf("unsupported output format %q", filepath.Ext(path))
		}

		zap.L().Info("dataset exported", zap.String("dataset", name), zap.String("file", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
