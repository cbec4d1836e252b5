// Package raster implements a single-band regular grid of cells located
// implicitly by origin, resolution, and extent. Cells are addressed by
// row-major ID from the top-left corner; an optional categorical table
// maps integer cell codes to labels.
package raster

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// ErrOutsideExtent is returned when a coordinate falls outside the grid.
var ErrOutsideExtent = eris.New("raster: coordinate outside grid extent")

// Grid is a single-band raster. Values are stored row-major; cell
// (col 0, row 0) is the north-west corner. NoData cells hold NaN.
type Grid struct {
	originX float64 // west edge
	originY float64 // north edge
	res     float64 // cell size, square cells
	cols    int
	rows    int
	srid    int

	values     []float64
	categories map[int]string
}

// New creates a grid with every cell set to NoData.
func New(originX, originY, res float64, cols, rows, srid int) (*Grid, error) {
	if res <= 0 {
		return nil, eris.Errorf("raster: resolution must be positive, got %g", res)
	}
	if cols <= 0 || rows <= 0 {
		return nil, eris.Errorf("raster: grid dimensions must be positive, got %dx%d", cols, rows)
	}

	values := make([]float64, cols*rows)
	for i := range values {
		values[i] = math.NaN()
	}
	return &Grid{
		originX: originX,
		originY: originY,
		res:     res,
		cols:    cols,
		rows:    rows,
		srid:    srid,
		values:  values,
	}, nil
}

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Res returns the cell size.
func (g *Grid) Res() float64 { return g.res }

// SRID returns the declared CRS code, 0 when undefined.
func (g *Grid) SRID() int { return g.srid }

// NumCells returns the total cell count.
func (g *Grid) NumCells() int { return g.cols * g.rows }

// Extent returns the outer edges of the grid.
func (g *Grid) Extent() (xmin, ymin, xmax, ymax float64) {
	return g.originX,
		g.originY - float64(g.rows)*g.res,
		g.originX + float64(g.cols)*g.res,
		g.originY
}

// IsNoData reports whether v is the NoData marker.
func (g *Grid) IsNoData(v float64) bool { return math.IsNaN(v) }

// NoData returns the marker value stored in empty cells.
func (g *Grid) NoData() float64 { return math.NaN() }

// CellID returns the row-major ID for a column/row pair.
func (g *Grid) CellID(col, row int) (int, error) {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return 0, eris.Errorf("raster: cell (%d, %d) out of range for %dx%d grid", col, row, g.cols, g.rows)
	}
	return row*g.cols + col, nil
}

// ColRow splits a cell ID back into its column and row.
func (g *Grid) ColRow(id int) (col, row int, err error) {
	if id < 0 || id >= g.NumCells() {
		return 0, 0, eris.Errorf("raster: cell ID %d out of range [0, %d)", id, g.NumCells())
	}
	return id % g.cols, id / g.cols, nil
}

// CellXY returns the center coordinates of a cell.
func (g *Grid) CellXY(id int) (x, y float64, err error) {
	col, row, err := g.ColRow(id)
	if err != nil {
		return 0, 0, err
	}
	x = g.originX + (float64(col)+0.5)*g.res
	y = g.originY - (float64(row)+0.5)*g.res
	return x, y, nil
}

// CellAt returns the ID of the cell containing the coordinate.
// Points on the east or south boundary belong to no cell.
func (g *Grid) CellAt(x, y float64) (int, error) {
	col := int(math.Floor((x - g.originX) / g.res))
	row := int(math.Floor((g.originY - y) / g.res))
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return 0, ErrOutsideExtent
	}
	return row*g.cols + col, nil
}

// Value reads the cell with the given ID.
func (g *Grid) Value(id int) (float64, error) {
	if id < 0 || id >= len(g.values) {
		return 0, eris.Errorf("raster: cell ID %d out of range [0, %d)", id, len(g.values))
	}
	return g.values[id], nil
}

// SetValue overwrites a single cell. Writing NoData clears it.
func (g *Grid) SetValue(id int, v float64) error {
	if id < 0 || id >= len(g.values) {
		return eris.Errorf("raster: cell ID %d out of range [0, %d)", id, len(g.values))
	}
	g.values[id] = v
	return nil
}

// Values returns the backing cell array. Callers must treat it as
// read-only; Fill and SetValue are the write paths.
func (g *Grid) Values() []float64 { return g.values }

// Fill overwrites all cells from a row-major slice.
func (g *Grid) Fill(values []float64) error {
	if len(values) != g.NumCells() {
		return eris.Errorf("raster: fill with %d values into %d cells", len(values), g.NumCells())
	}
	copy(g.values, values)
	return nil
}

// SetCRS declares the grid's coordinate reference system. Like the
// vector side, this tags and never transforms.
func (g *Grid) SetCRS(srid int) { g.srid = srid }

// SetCategory installs or replaces one code's label in the categorical
// lookup table.
func (g *Grid) SetCategory(code int, label string) {
	if g.categories == nil {
		g.categories = make(map[int]string)
	}
	g.categories[code] = label
}

// Label resolves a cell code through the categorical table.
func (g *Grid) Label(code int) (string, bool) {
	label, ok := g.categories[code]
	return label, ok
}

// Categories returns a copy of the categorical table.
func (g *Grid) Categories() map[int]string {
	if g.categories == nil {
		return nil
	}
	out := make(map[int]string, len(g.categories))
	for k, v := range g.categories {
		out[k] = v
	}
	return out
}

// CategoryCodes returns the table's codes in ascending order.
func (g *Grid) CategoryCodes() []int {
	codes := make([]int, 0, len(g.categories))
	for c := range g.categories {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// clone copies the grid's shape and metadata without its values.
func (g *Grid) clone(cols, rows int, res float64) *Grid {
	out := &Grid{
		originX: g.originX,
		originY: g.originY,
		res:     res,
		cols:    cols,
		rows:    rows,
		srid:    g.srid,
		values:  make([]float64, cols*rows),
	}
	if g.categories != nil {
		out.categories = g.Categories()
	}
	return out
}
