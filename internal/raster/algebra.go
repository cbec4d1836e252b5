package raster

import (
	"math"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Map applies fn to every data cell and returns a new grid. NoData
// cells stay NoData; fn never sees them.
func (g *Grid) Map(fn func(float64) float64) *Grid {
	out := g.clone(g.cols, g.rows, g.res)
	for i, v := range g.values {
		if g.IsNoData(v) {
			out.values[i] = v
			continue
		}
		out.values[i] = fn(v)
	}
	return out
}

// Reclassify remaps integral cell codes and installs the matching
// labels as the new categorical table. Codes absent from mapping
// become NoData. Grids holding non-integral values cannot be
// reclassified.
func (g *Grid) Reclassify(mapping map[int]int, labels map[int]string) (*Grid, error) {
	out := g.clone(g.cols, g.rows, g.res)
	out.categories = nil
	for code, label := range labels {
		out.SetCategory(code, label)
	}

	for i, v := range g.values {
		if g.IsNoData(v) {
			out.values[i] = v
			continue
		}
		if v != math.Trunc(v) {
			return nil, eris.Errorf("raster: reclassify cell %d holds non-integral value %g", i, v)
		}
		to, ok := mapping[int(v)]
		if !ok {
			out.values[i] = math.NaN()
			continue
		}
		out.values[i] = float64(to)
	}
	return out, nil
}

// Reducer combines a block of data cell values into one.
type Reducer func(values []float64) float64

// Built-in reducers for Coarsen. Each receives only data cells.
var (
	ReduceMean Reducer = func(vs []float64) float64 {
		sum := 0.0
		for _, v := range vs {
			sum += v
		}
		return sum / float64(len(vs))
	}
	ReduceSum Reducer = func(vs []float64) float64 {
		sum := 0.0
		for _, v := range vs {
			sum += v
		}
		return sum
	}
	ReduceMin Reducer = func(vs []float64) float64 {
		min := vs[0]
		for _, v := range vs[1:] {
			if v < min {
				min = v
			}
		}
		return min
	}
	ReduceMax Reducer = func(vs []float64) float64 {
		max := vs[0]
		for _, v := range vs[1:] {
			if v > max {
				max = v
			}
		}
		return max
	}
)

// ParseReducer resolves a reducer by name.
func ParseReducer(name string) (Reducer, error) {
	switch name {
	case "mean", "avg":
		return ReduceMean, nil
	case "sum":
		return ReduceSum, nil
	case "min":
		return ReduceMin, nil
	case "max":
		return ReduceMax, nil
	}
	return nil, eris.Errorf("raster: unknown reducer %q", name)
}

// Coarsen aggregates factor x factor blocks of cells into single cells
// of a lower-resolution grid, one output row per goroutine. Blocks
// that are entirely NoData stay NoData. The grid's dimensions must be
// divisible by factor.
func (g *Grid) Coarsen(factor int, reduce Reducer) (*Grid, error) {
	if factor < 1 {
		return nil, eris.Errorf("raster: coarsen factor must be >= 1, got %d", factor)
	}
	if g.cols%factor != 0 || g.rows%factor != 0 {
		return nil, eris.Errorf("raster: %dx%d grid not divisible by coarsen factor %d", g.cols, g.rows, factor)
	}
	if reduce == nil {
		return nil, eris.New("raster: coarsen needs a reducer")
	}

	outCols := g.cols / factor
	outRows := g.rows / factor
	out := g.clone(outCols, outRows, g.res*float64(factor))

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for outRow := 0; outRow < outRows; outRow++ {
		eg.Go(func() error {
			block := make([]float64, 0, factor*factor)
			for outCol := 0; outCol < outCols; outCol++ {
				block = block[:0]
				for dr := 0; dr < factor; dr++ {
					row := outRow*factor + dr
					for dc := 0; dc < factor; dc++ {
						v := g.values[row*g.cols+outCol*factor+dc]
						if !g.IsNoData(v) {
							block = append(block, v)
						}
					}
				}
				if len(block) == 0 {
					out.values[outRow*outCols+outCol] = math.NaN()
					continue
				}
				out.values[outRow*outCols+outCol] = reduce(block)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
