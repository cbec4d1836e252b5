package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geotable/internal/geotable"
	"github.com/sells-group/geotable/internal/raster"
)

var rasterCmd = &cobra.Command{
	Use:   "raster",
	Short: "Raster dataset operations",
}

var rasterSampleFlags struct {
	col string
	out string
}

var rasterSampleCmd = &cobra.Command{
	Use:   "sample <grid> <points>",
	Short: "Read grid values under a point dataset",
	Long: `Looks up the raster cell under each row of a point dataset and saves
the point dataset with the sampled values appended as a new column.
Both datasets must carry the same CRS.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		outName := rasterSampleFlags.out
		if outName == "" {
			outName = args[1]
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		g, err := s.LoadGrid(ctx, args[0])
		if err != nil {
			return err
		}
		t, err := s.LoadTable(ctx, args[1])
		if err != nil {
			return err
		}

		values, err := g.SampleAt(t)
		if err != nil {
			return err
		}

		col := rasterSampleFlags.col
		if col == "" {
			col = args[0]
		}
		sampled, err := withFloatColumn(t, col, values, g.IsNoData)
		if err != nil {
			return err
		}
		if _, err := s.SaveTable(ctx, outName, sampled); err != nil {
			return err
		}

		zap.L().Info("raster sampled",
			zap.String("grid", args[0]),
			zap.String("points", args[1]),
			zap.String("column", col),
			zap.String("saved_as", outName),
		)
		return nil
	},
}

var rasterReclassFlags struct {
	mapping []string
	labels  []string
	out     string
}

var rasterReclassCmd = &cobra.Command{
	Use:   "reclass <grid>",
	Short: "Remap the codes of a categorical grid",
	Long: `Rewrites integral cell codes, e.g. --map 1=10 --map 2=10 collapses
codes 1 and 2 into 10. Codes without a mapping become NoData. Labels
for the new codes are given as --label 10=land.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mapping, err := parseIntPairs(rasterReclassFlags.mapping)
		if err != nil {
			return err
		}
		if len(mapping) == 0 {
			return eris.New("at least one --map from=to is required")
		}
		labels, err := parseLabelPairs(rasterReclassFlags.labels)
		if err != nil {
			return err
		}
		outName := rasterReclassFlags.out
		if outName == "" {
			outName = args[0]
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		g, err := s.LoadGrid(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := g.Reclassify(mapping, labels)
		if err != nil {
			return err
		}
		if _, err := s.SaveGrid(ctx, outName, out); err != nil {
			return err
		}

		zap.L().Info("raster reclassified", zap.String("grid", args[0]), zap.String("saved_as", outName))
		return nil
	},
}

var rasterCoarsenFlags struct {
	factor  int
	reducer string
	out     string
}

var rasterCoarsenCmd = &cobra.Command{
	Use:   "coarsen <grid>",
	Short: "Aggregate blocks of cells into a lower-resolution grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reduce, err := raster.ParseReducer(rasterCoarsenFlags.reducer)
		if err != nil {
			return err
		}
		outName := rasterCoarsenFlags.out
		if outName == "" {
			outName = args[0]
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		g, err := s.LoadGrid(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := g.Coarsen(rasterCoarsenFlags.factor, reduce)
		if err != nil {
			return err
		}
		if _, err := s.SaveGrid(ctx, outName, out); err != nil {
			return err
		}

		zap.L().Info("raster coarsened",
			zap.String("grid", args[0]),
			zap.Int("factor", rasterCoarsenFlags.factor),
			zap.String("reducer", rasterCoarsenFlags.reducer),
			zap.String("saved_as", outName),
		)
		return nil
	},
}

var rasterCropFlags struct {
	extent string
	out    string
}

var rasterCropCmd = &cobra.Command{
	Use:   "crop <grid>",
	Short: "Cut a grid down to an extent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ext, err := parseExtent(rasterCropFlags.extent)
		if err != nil {
			return err
		}
		outName := rasterCropFlags.out
		if outName == "" {
			outName = args[0]
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		g, err := s.LoadGrid(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := g.Crop(ext[0], ext[1], ext[2], ext[3])
		if err != nil {
			return err
		}
		if _, err := s.SaveGrid(ctx, outName, out); err != nil {
			return err
		}

		zap.L().Info("raster cropped", zap.String("grid", args[0]), zap.String("saved_as", outName))
		return nil
	},
}

var rasterStatsCmd = &cobra.Command{
	Use:   "stats <grid>",
	Short: "Print summary statistics of a grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		g, err := s.LoadGrid(ctx, args[0])
		if err != nil {
			return err
		}

		stats := g.Stats()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cells: %d of %d with data\n", stats.Count, g.NumCells())
		if stats.Count > 0 {
			fmt.Fprintf(out, "min:   %g\n", stats.Min)
			fmt.Fprintf(out, "max:   %g\n", stats.Max)
			fmt.Fprintf(out, "mean:  %g\n", stats.Mean)
		}
		return nil
	},
}

// withFloatColumn rebuilds a table with an extra float column appended.
// NoData sample values become nulls.
func withFloatColumn(t *geotable.Table, name string, values []float64, isNoData func(float64) bool) (*geotable.Table, error) {
	out := geotable.New(t.GeomColumn(), t.SRID())
	for _, col := range t.Columns() {
		if err := out.AddColumn(col, t.Column(col).Type); err != nil {
			return nil, err
		}
	}
	if err := out.AddColumn(name, geotable.TypeFloat); err != nil {
		return nil, err
	}

	for i := 0; i < t.Len(); i++ {
		attrs := make(map[string]any, len(t.Columns())+1)
		for _, col := range t.Columns() {
			if v := t.Column(col).Value(i); v != nil {
				attrs[col] = v
			}
		}
		if !isNoData(values[i]) {
			attrs[name] = values[i]
		}
		if err := out.Append(attrs, t.Geom(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseIntPairs(raw []string) (map[int]int, error) {
	mapping := make(map[int]int, len(raw))
	for _, r := range raw {
		from, to, ok := strings.Cut(r, "=")
		if !ok {
			return nil, eris.Errorf("malformed mapping %q, want from=to", r)
		}
		f, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, eris.Errorf("malformed mapping %q: %v", r, err)
		}
		t, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, eris.Errorf("malformed mapping %q: %v", r, err)
		}
		mapping[f] = t
	}
	return mapping, nil
}

func parseLabelPairs(raw []string) (map[int]string, error) {
	labels := make(map[int]string, len(raw))
	for _, r := range raw {
		code, label, ok := strings.Cut(r, "=")
		if !ok {
			return nil, eris.Errorf("malformed label %q, want code=label", r)
		}
		c, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil {
			return nil, eris.Errorf("malformed label %q: %v", r, err)
		}
		labels[c] = strings.TrimSpace(label)
	}
	return labels, nil
}

func parseExtent(raw string) ([4]float64, error) {
	var ext [4]float64
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return ext, eris.Errorf("malformed extent %q, want xmin,ymin,xmax,ymax", raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ext, eris.Errorf("malformed extent %q: %v", raw, err)
		}
		ext[i] = v
	}
	return ext, nil
}

func init() {
	rasterSampleCmd.Flags().StringVar(&rasterSampleFlags.col, "col", "", "name of the sampled column (default: grid name)")
	rasterSampleCmd.Flags().StringVar(&rasterSampleFlags.out, "out", "", "save result under this name (default: overwrite points)")
	rasterReclassCmd.Flags().StringArrayVar(&rasterReclassFlags.mapping, "map", nil, "code mapping as from=to")
	rasterReclassCmd.Flags().StringArrayVar(&rasterReclassFlags.labels, "label", nil, "label for a new code as code=label")
	rasterReclassCmd.Flags().StringVar(&rasterReclassFlags.out, "out", "", "save result under this name (default: overwrite source)")
	rasterCoarsenCmd.Flags().IntVar(&rasterCoarsenFlags.factor, "factor", 2, "block size in cells")
	rasterCoarsenCmd.Flags().StringVar(&rasterCoarsenFlags.reducer, "reducer", "mean", "block reducer: mean, sum, min or max")
	rasterCoarsenCmd.Flags().StringVar(&rasterCoarsenFlags.out, "out", "", "save result under this name (default: overwrite source)")
	rasterCropCmd.Flags().StringVar(&rasterCropFlags.extent, "extent", "", "crop extent as xmin,ymin,xmax,ymax")
	rasterCropCmd.Flags().StringVar(&rasterCropFlags.out, "out", "", "save result under this name (default: overwrite source)")

	rasterCmd.AddCommand(rasterSampleCmd, rasterReclassCmd, rasterCoarsenCmd, rasterCropCmd, rasterStatsCmd)
	rootCmd.AddCommand(rasterCmd)
}
