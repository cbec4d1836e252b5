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

	"github.com/sells-group/geotable/internal/crs"
	"github.com/sells-group/geotable/internal/ingest"
)

var ingestFlags struct {
	name string
	srid string
	xCol string
	yCol string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Load a dataset file into the catalog",
	Long: `Reads a shapefile (.shp), GeoJSON (.geojson/.json), point CSV (.csv)
or ESRI ASCII grid (.asc) and stores it under the given name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path := args[0]
		name := ingestFlags.name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		srid := cfg.Ingest.DefaultSRID
		if ingestFlags.srid != "" {
			c, err := crs.Parse(ingestFlags.srid)
			if err != nil {
				return err
			}
			srid = c.SRID
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		switch strings.ToLower(filepath.Ext(path)) {
		case ".shp":
			t, err := ingest.ReadShapefile(path, srid)
			if err != nil {
				return err
			}
			info, err := s.SaveTable(ctx, name, t)
			if err != nil {
				return err
			}
			zap.L().Info("dataset ingested", zap.String("name", name), zap.Int("rows", info.RowCount), zap.Int("srid", info.SRID))

		case ".geojson", ".json":
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "open %s", path)
			}
			defer f.Close()
			t, err := ingest.ReadGeoJSON(f, srid)
			if err != nil {
				return err
			}
			info, err := s.SaveTable(ctx, name, t)
			if err != nil {
				return err
			}
			zap.L().Info("dataset ingested", zap.String("name", name), zap.Int("rows", info.RowCount), zap.Int("srid", info.SRID))

		case ".csv":
			if ingestFlags.xCol == "" || ingestFlags.yCol == "" {
				return eris.New("csv ingest requires --x and --y coordinate columns")
			}
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "open %s", path)
			}
			defer f.Close()
			t, err := ingest.ReadCSV(f, ingestFlags.xCol, ingestFlags.yCol, srid)
			if err != nil {
				return err
			}
			info, err := s.SaveTable(ctx, name, t)
			if err != nil {
				return err
			}
			zap.L().Info("dataset ingested", zap.String("name", name), zap.Int("rows", info.RowCount), zap.Int("srid", info.SRID))

		case ".asc":
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "open %s", path)
			}
			defer f.Close()
			g, err := ingest.ReadASCIIGrid(f)
			if err != nil {
				return err
			}
			if ingestFlags.srid != "" {
				g.SetCRS(srid)
			}
			info, err := s.SaveGrid(ctx, name, g)
			if err != nil {
				return err
			}
			zap.L().Info("raster ingested", zap.String("name", name), zap.Int("cells", info.RowCount), zap.Int("srid", info.SRID))

		default:
			return eris.Errorf("unsupported input format %q", filepath.Ext(path))
		}

		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.name, "name", "", "dataset name (default: file basename)")
	ingestCmd.Flags().StringVar(&ingestFlags.srid, "srid", "", "source CRS, e.g. EPSG:4326 (default from config)")
	ingestCmd.Flags().StringVar(&ingestFlags.xCol, "x", "", "CSV column holding the x/longitude coordinate")
	ingestCmd.Flags().StringVar(&ingestFlags.yCol, "y", "", "CSV column holding the y/latitude coordinate")
	rootCmd.AddCommand(ingestCmd)
}
