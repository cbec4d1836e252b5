package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geotable/internal/crs"
)

var infoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "List datasets, or show one dataset's layout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if len(args) == 0 {
			infos, err := s.List(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "NAME\tKIND\tCRS\tROWS\tUPDATED")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					info.Name, info.Kind, describeCRS(info.SRID), info.RowCount,
					info.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		}

		name := args[0]
		info, err := s.Get(ctx, name)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "name\t%s\n", info.Name)
		fmt.Fprintf(w, "kind\t%s\n", info.Kind)
		fmt.Fprintf(w, "crs\t%s\n", describeCRS(info.SRID))

		switch info.Kind {
		case "vector":
			t, err := s.LoadTable(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "rows\t%d\n", t.Len())
			fmt.Fprintf(w, "geometry column\t%s\n", t.GeomColumn())
			for _, col := range t.Columns() {
				fmt.Fprintf(w, "column\t%s (%s)\n", col, t.Column(col).Type)
			}
		case "raster":
			g, err := s.LoadGrid(ctx, name)
			if err != nil {
				return err
			}
			xmin, ymin, xmax, ymax := g.Extent()
			fmt.Fprintf(w, "size\t%d x %d cells\n", g.Cols(), g.Rows())
			fmt.Fprintf(w, "resolution\t%g\n", g.Res())
			fmt.Fprintf(w, "extent\t(%g, %g) - (%g, %g)\n", xmin, ymin, xmax, ymax)
			stats := g.Stats()
			fmt.Fprintf(w, "cells with data\t%d\n", stats.Count)
			if stats.Count > 0 {
				fmt.Fprintf(w, "range\t%g - %g (mean %g)\n", stats.Min, stats.Max, stats.Mean)
			}
			for _, code := range g.CategoryCodes() {
				label, _ := g.Label(code)
				fmt.Fprintf(w, "category\t%d = %s\n", code, label)
			}
		}
		return nil
	},
}

func describeCRS(srid int) string {
	c, err := crs.FromSRID(srid)
	if err != nil {
		if srid == 0 {
			return "undefined"
		}
		return fmt.Sprintf("EPSG:%d", srid)
	}
	return c.String()
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
