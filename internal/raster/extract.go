package raster

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geotable/internal/geotable"
)

// Crop returns the sub-grid covering the intersection of the given
// extent with g, snapped outward to cell boundaries. An extent that
// misses the grid entirely is an error.
func (g *Grid) Crop(xmin, ymin, xmax, ymax float64) (*Grid, error) {
	if xmin >= xmax || ymin >= ymax {
		return nil, eris.Errorf("raster: malformed crop extent (%g, %g, %g, %g)", xmin, ymin, xmax, ymax)
	}

	gx0, gy0, gx1, gy1 := g.Extent()
	if xmax <= gx0 || xmin >= gx1 || ymax <= gy0 || ymin >= gy1 {
		return nil, ErrOutsideExtent
	}

	colLo := int(math.Floor((math.Max(xmin, gx0) - g.originX) / g.res))
	colHi := int(math.Ceil((math.Min(xmax, gx1) - g.originX) / g.res))
	rowLo := int(math.Floor((g.originY - math.Min(ymax, gy1)) / g.res))
	rowHi := int(math.Ceil((g.originY - math.Max(ymin, gy0)) / g.res))

	out := g.clone(colHi-colLo, rowHi-rowLo, g.res)
	out.originX = g.originX + float64(colLo)*g.res
	out.originY = g.originY - float64(rowLo)*g.res

	for row := rowLo; row < rowHi; row++ {
		srcStart := row*g.cols + colLo
		dstStart := (row - rowLo) * out.cols
		copy(out.values[dstStart:dstStart+out.cols], g.values[srcStart:srcStart+out.cols])
	}
	return out, nil
}

// SampleAt reads the cell value under each row of a point table. The
// table must declare the same CRS as the grid; sampling across systems
// silently compares apples to oranges, so it is refused. Rows outside
// the extent, and rows with empty geometries, sample as NoData.
func (g *Grid) SampleAt(t *geotable.Table) ([]float64, error) {
	if g.srid == 0 || t.SRID() == 0 {
		return nil, eris.New("raster: sampling requires a CRS on both the grid and the table")
	}
	if g.srid != t.SRID() {
		return nil, eris.Errorf("raster: table CRS EPSG:%d does not match grid CRS EPSG:%d; reproject one side first", t.SRID(), g.srid)
	}

	out := make([]float64, t.Len())
	for i := 0; i < t.Len(); i++ {
		x, y, ok := t.Anchor(i)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		id, err := g.CellAt(x, y)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = g.values[id]
	}
	return out, nil
}

// Stats summarizes the grid's data cells.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int
}

// Stats scans all cells, skipping NoData. An all-NoData grid reports
// a zero Count and NaN extremes.
func (g *Grid) Stats() Stats {
	s := Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	sum := 0.0
	for _, v := range g.values {
		if g.IsNoData(v) {
			continue
		}
		if s.Count == 0 {
			s.Min, s.Max = v, v
		} else {
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		sum += v
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}
