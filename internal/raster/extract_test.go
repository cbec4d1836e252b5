package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geotable/internal/geotable"
)

func TestCrop(t *testing.T) {
	g := demoGrid(t) // 4x3, origin (100, 200), res 10

	// Crop around the middle; snaps outward to cell edges.
	out, err := g.Crop(115, 175, 125, 195)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Cols())
	assert.Equal(t, 3, out.Rows())

	xmin, ymin, xmax, ymax := out.Extent()
	assert.Equal(t, 110.0, xmin)
	assert.Equal(t, 170.0, ymin)
	assert.Equal(t, 130.0, xmax)
	assert.Equal(t, 200.0, ymax)

	// Values follow their cells: the sub-grid's top-left is source
	// cell (col 1, row 0) which held 1.
	v, err := out.Value(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = out.Value(out.NumCells() - 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestCrop_ClampsToGrid(t *testing.T) {
	g := demoGrid(t)

	out, err := g.Crop(0, 0, 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, g.Cols(), out.Cols())
	assert.Equal(t, g.Rows(), out.Rows())
}

func TestCrop_Errors(t *testing.T) {
	g := demoGrid(t)

	_, err := g.Crop(500, 500, 600, 600)
	assert.ErrorIs(t, err, ErrOutsideExtent)

	_, err = g.Crop(120, 180, 110, 190)
	assert.ErrorContains(t, err, "malformed")
}

func samplePoints(t *testing.T, srid int, coords ...[2]float64) *geotable.Table {
	t.Helper()
	tbl := geotable.New("geometry", srid)
	for _, c := range coords {
		require.NoError(t, tbl.Append(nil, geom.NewPointFlat(geom.XY, []float64{c[0], c[1]})))
	}
	return tbl
}

func TestSampleAt(t *testing.T) {
	g := demoGrid(t)

	pts := samplePoints(t, 3857,
		[2]float64{105, 195},  // cell 0
		[2]float64{135, 175},  // cell 11
		[2]float64{1000, 999}, // outside
	)

	got, err := g.SampleAt(pts)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 11.0, got[1])
	assert.True(t, math.IsNaN(got[2]))
}

func TestSampleAt_EmptyGeometry(t *testing.T) {
	g := demoGrid(t)

	tbl := geotable.New("geometry", 3857)
	require.NoError(t, tbl.Append(nil, nil))

	got, err := g.SampleAt(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0]))
}

func TestSampleAt_CRSGuard(t *testing.T) {
	g := demoGrid(t) // EPSG:3857

	// Different CRS: refused, not silently wrong.
	_, err := g.SampleAt(samplePoints(t, 4326, [2]float64{105, 195}))
	assert.ErrorContains(t, err, "does not match grid CRS")

	// Undefined CRS on either side: refused too.
	_, err = g.SampleAt(samplePoints(t, 0, [2]float64{105, 195}))
	assert.ErrorContains(t, err, "requires a CRS")

	untagged, err := New(0, 0, 1, 1, 1, 0)
	require.NoError(t, err)
	_, err = untagged.SampleAt(samplePoints(t, 3857, [2]float64{0.5, -0.5}))
	assert.ErrorContains(t, err, "requires a CRS")
}
