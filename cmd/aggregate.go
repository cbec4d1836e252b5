package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geotable/internal/geotable"
)

var aggregateFlags struct {
	by   string
	aggs []string
	out  string
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <name>",
	Short: "Group a vector dataset by a key column and summarize",
	Long: `Groups rows by equal key values, computes the requested summaries and
dissolves each group's geometries into one. Aggregations are given as
"fn:column" pairs, e.g. --agg sum:pop --agg mean:area --agg count:*.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if aggregateFlags.by == "" {
			return eris.New("--by key column is required")
		}
		if aggregateFlags.out == "" {
			return eris.New("--out result name is required")
		}
		specs, err := parseAggSpecs(aggregateFlags.aggs)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.LoadTable(ctx, args[0])
		if err != nil {
			return err
		}

		grouped, err := t.Aggregate(aggregateFlags.by, specs...)
		if err != nil {
			return err
		}
		info, err := s.SaveTable(ctx, aggregateFlags.out, grouped)
		if err != nil {
			return err
		}

		zap.L().Info("dataset aggregated",
			zap.String("dataset", args[0]),
			zap.String("by", aggregateFlags.by),
			zap.Int("groups", info.RowCount),
			zap.String("saved_as", aggregateFlags.out),
		)
		return nil
	},
}

// parseAggSpecs turns "fn:column" flags into aggregation specs. An
// optional third segment names the output column: "sum:pop:total_pop".
func parseAggSpecs(raw []string) ([]geotable.AggSpec, error) {
	if len(raw) == 0 {
		return nil, eris.New("at least one --agg fn:column is required")
	}
	specs := make([]geotable.AggSpec, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		if len(parts) < 2 {
			return nil, eris.Errorf("malformed aggregation %q, want fn:column", r)
		}
		fn, err := geotable.ParseAggFunc(parts[0])
		if err != nil {
			return nil, err
		}
		spec := geotable.AggSpec{Col: parts[1], Fn: fn}
		if len(parts) == 3 {
			spec.As = parts[2]
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateFlags.by, "by", "", "key column to group by")
	aggregateCmd.Flags().StringArrayVar(&aggregateFlags.aggs, "agg", nil, `aggregation as fn:column (fn: count, sum, mean, min, max, first)`)
	aggregateCmd.Flags().StringVar(&aggregateFlags.out, "out", "", "name for the aggregated dataset")
	rootCmd.AddCommand(aggregateCmd)
}
