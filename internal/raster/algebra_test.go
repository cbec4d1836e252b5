package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_SkipsNoData(t *testing.T) {
	g := demoGrid(t)
	require.NoError(t, g.SetValue(3, g.NoData()))

	doubled := g.Map(func(v float64) float64 { return v * 2 })

	v, err := doubled.Value(2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	v, err = doubled.Value(3)
	require.NoError(t, err)
	assert.True(t, doubled.IsNoData(v))

	// Source grid untouched.
	v, err = g.Value(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestReclassify(t *testing.T) {
	g, err := New(0, 0, 1, 2, 2, 0)
	require.NoError(t, err)
	require.NoError(t, g.Fill([]float64{1, 2, 2, 3}))
	g.SetCategory(1, "water")
	g.SetCategory(2, "forest")
	g.SetCategory(3, "urban")

	// Collapse forest and urban into "land"; drop water entirely.
	out, err := g.Reclassify(
		map[int]int{2: 10, 3: 10},
		map[int]string{10: "land"},
	)
	require.NoError(t, err)

	v, _ := out.Value(0)
	assert.True(t, out.IsNoData(v), "unmapped code becomes NoData")
	v, _ = out.Value(1)
	assert.Equal(t, 10.0, v)
	v, _ = out.Value(3)
	assert.Equal(t, 10.0, v)

	label, ok := out.Label(10)
	assert.True(t, ok)
	assert.Equal(t, "land", label)
	_, ok = out.Label(1)
	assert.False(t, ok, "old table replaced")
}

func TestReclassify_NonIntegralRejected(t *testing.T) {
	g, err := New(0, 0, 1, 2, 1, 0)
	require.NoError(t, err)
	require.NoError(t, g.Fill([]float64{1.5, 2}))

	_, err = g.Reclassify(map[int]int{2: 1}, nil)
	assert.ErrorContains(t, err, "non-integral")
}

func TestCoarsen(t *testing.T) {
	g, err := New(0, 4, 1, 4, 4, 3857)
	require.NoError(t, err)
	require.NoError(t, g.Fill([]float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}))

	out, err := g.Coarsen(2, ReduceMean)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Cols())
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 2.0, out.Res())
	assert.Equal(t, 3857, out.SRID())

	want := []float64{1, 2, 3, 4}
	for id, w := range want {
		v, err := out.Value(id)
		require.NoError(t, err)
		assert.Equal(t, w, v, "cell %d", id)
	}

	// Extent is preserved by coarsening.
	x0, y0, x1, y1 := g.Extent()
	ox0, oy0, ox1, oy1 := out.Extent()
	assert.Equal(t, [4]float64{x0, y0, x1, y1}, [4]float64{ox0, oy0, ox1, oy1})
}

func TestCoarsen_Reducers(t *testing.T) {
	g, err := New(0, 2, 1, 2, 2, 0)
	require.NoError(t, err)
	require.NoError(t, g.Fill([]float64{1, 2, 3, 4}))

	tests := []struct {
		name string
		want float64
	}{
		{"sum", 10},
		{"mean", 2.5},
		{"min", 1},
		{"max", 4},
	}
	for _, tt := range tests {
		r, err := ParseReducer(tt.name)
		require.NoError(t, err)
		out, err := g.Coarsen(2, r)
		require.NoError(t, err)
		v, err := out.Value(0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, tt.name)
	}

	_, err = ParseReducer("median")
	assert.Error(t, err)
}

func TestCoarsen_NoDataBlocks(t *testing.T) {
	g, err := New(0, 2, 1, 2, 2, 0)
	require.NoError(t, err)
	require.NoError(t, g.Fill([]float64{1, g.NoData(), g.NoData(), g.NoData()}))

	out, err := g.Coarsen(2, ReduceMean)
	require.NoError(t, err)
	v, err := out.Value(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "partial blocks reduce over data cells only")

	empty, err := New(0, 2, 1, 2, 2, 0)
	require.NoError(t, err)
	out, err = empty.Coarsen(2, ReduceMean)
	require.NoError(t, err)
	v, err = out.Value(0)
	require.NoError(t, err)
	assert.True(t, out.IsNoData(v), "all-NoData block stays NoData")
}

func TestCoarsen_Validation(t *testing.T) {
	g := demoGrid(t) // 4x3

	_, err := g.Coarsen(0, ReduceMean)
	assert.Error(t, err)
	_, err = g.Coarsen(2, ReduceMean) // 3 rows not divisible
	assert.ErrorContains(t, err, "not divisible")
	_, err = g.Coarsen(1, nil)
	assert.ErrorContains(t, err, "needs a reducer")
}
