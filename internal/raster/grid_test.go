package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// demoGrid builds a 4x3 grid at origin (100, 200) with 10-unit cells,
// filled with sequential values 0..11.
func demoGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := New(100, 200, 10, 4, 3, 3857)
	require.NoError(t, err)

	values := make([]float64, 12)
	for i := range values {
		values[i] = float64(i)
	}
	require.NoError(t, g.Fill(values))
	return g
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, 0, 0, 4, 3, 0)
	assert.Error(t, err, "zero resolution")
	_, err = New(0, 0, -1, 4, 3, 0)
	assert.Error(t, err, "negative resolution")
	_, err = New(0, 0, 1, 0, 3, 0)
	assert.Error(t, err, "zero cols")

	g, err := New(0, 0, 1, 2, 2, 0)
	require.NoError(t, err)
	for id := 0; id < g.NumCells(); id++ {
		v, err := g.Value(id)
		require.NoError(t, err)
		assert.True(t, g.IsNoData(v), "new grids start as NoData")
	}
}

func TestExtent(t *testing.T) {
	g := demoGrid(t)
	xmin, ymin, xmax, ymax := g.Extent()
	assert.Equal(t, 100.0, xmin)
	assert.Equal(t, 170.0, ymin)
	assert.Equal(t, 140.0, xmax)
	assert.Equal(t, 200.0, ymax)
}

func TestCellIDAndColRow(t *testing.T) {
	g := demoGrid(t)

	id, err := g.CellID(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = g.CellID(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 11, id)

	col, row, err := g.ColRow(5)
	require.NoError(t, err)
	assert.Equal(t, 1, col)
	assert.Equal(t, 1, row)

	_, err = g.CellID(4, 0)
	assert.Error(t, err)
	_, _, err = g.ColRow(12)
	assert.Error(t, err)
	_, _, err = g.ColRow(-1)
	assert.Error(t, err)
}

func TestCellXYAndCellAtRoundTrip(t *testing.T) {
	g := demoGrid(t)

	for id := 0; id < g.NumCells(); id++ {
		x, y, err := g.CellXY(id)
		require.NoError(t, err)

		back, err := g.CellAt(x, y)
		require.NoError(t, err)
		assert.Equal(t, id, back, "cell %d center maps back to itself", id)
	}

	// Top-left cell center.
	x, y, err := g.CellXY(0)
	require.NoError(t, err)
	assert.Equal(t, 105.0, x)
	assert.Equal(t, 195.0, y)
}

func TestCellAt_Boundaries(t *testing.T) {
	g := demoGrid(t)

	// North-west corner belongs to cell 0.
	id, err := g.CellAt(100, 200)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	// East and south edges belong to no cell.
	_, err = g.CellAt(140, 195)
	assert.ErrorIs(t, err, ErrOutsideExtent)
	_, err = g.CellAt(105, 170)
	assert.ErrorIs(t, err, ErrOutsideExtent)
	_, err = g.CellAt(99.999, 195)
	assert.ErrorIs(t, err, ErrOutsideExtent)
}

func TestSetValue_OverwritesOneCell(t *testing.T) {
	g := demoGrid(t)

	require.NoError(t, g.SetValue(5, 99.5))
	v, err := g.Value(5)
	require.NoError(t, err)
	assert.Equal(t, 99.5, v)

	// Neighbors untouched.
	v, err = g.Value(4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	// Clearing with NoData.
	require.NoError(t, g.SetValue(5, g.NoData()))
	v, err = g.Value(5)
	require.NoError(t, err)
	assert.True(t, g.IsNoData(v))

	assert.Error(t, g.SetValue(-1, 0))
	assert.Error(t, g.SetValue(12, 0))
}

func TestFill_LengthChecked(t *testing.T) {
	g := demoGrid(t)
	assert.Error(t, g.Fill(make([]float64, 5)))
}

func TestCategories(t *testing.T) {
	g := demoGrid(t)

	_, ok := g.Label(1)
	assert.False(t, ok, "no table installed yet")
	assert.Nil(t, g.Categories())

	g.SetCategory(1, "water")
	g.SetCategory(2, "forest")
	g.SetCategory(1, "open water") // replace

	label, ok := g.Label(1)
	assert.True(t, ok)
	assert.Equal(t, "open water", label)

	assert.Equal(t, []int{1, 2}, g.CategoryCodes())

	// Categories() hands out a copy.
	g.Categories()[1] = "tampered"
	label, _ = g.Label(1)
	assert.Equal(t, "open water", label)
}

func TestStats(t *testing.T) {
	g := demoGrid(t)
	require.NoError(t, g.SetValue(0, g.NoData()))

	s := g.Stats()
	assert.Equal(t, 11, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 11.0, s.Max)
	assert.InDelta(t, 6.0, s.Mean, 1e-9)
}

func TestStats_AllNoData(t *testing.T) {
	g, err := New(0, 0, 1, 2, 2, 0)
	require.NoError(t, err)

	s := g.Stats()
	assert.Equal(t, 0, s.Count)
	assert.True(t, math.IsNaN(s.Min))
	assert.True(t, math.IsNaN(s.Mean))
}
