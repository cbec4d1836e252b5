package geotable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geotable/internal/crs"
)

func TestSetCRS_OnlyTagsNeverTransforms(t *testing.T) {
	tbl := New("geometry", 0)
	require.NoError(t, tbl.Append(nil, pt(13.404954, 52.520008)))

	before := tbl.Geom(0).FlatCoords()

	require.NoError(t, tbl.SetCRS(4326))
	assert.Equal(t, 4326, tbl.SRID())
	assert.Equal(t, 4326, tbl.Geom(0).SRID(), "geometries follow the declaration")

	// Declaring the CRS must not move a single coordinate.
	assert.Equal(t, before, tbl.Geom(0).FlatCoords())

	// Re-tagging is allowed (fixing a wrong declaration) and still
	// does not transform.
	require.NoError(t, tbl.SetCRS(4269))
	assert.Equal(t, before, tbl.Geom(0).FlatCoords())

	assert.Error(t, tbl.SetCRS(99999))
}

func TestSetCRS_DerivedTableDoesNotRetagSource(t *testing.T) {
	src := worldCities(t)
	require.NoError(t, src.SetCRS(4326))

	subset := src.Filter(func(r Row) bool { return r.Value("country") == "DE" })
	require.NoError(t, subset.SetCRS(3857))

	assert.Equal(t, 3857, subset.SRID())
	assert.Equal(t, 3857, subset.Geom(0).SRID())

	// The source keeps its own declaration and geometry tags even though
	// the subset shares its geometries.
	assert.Equal(t, 4326, src.SRID())
	for i := 0; i < src.Len(); i++ {
		assert.Equal(t, 4326, src.Geom(i).SRID(), "row %d", i)
	}

	// And it still accepts its own geometries back.
	require.NoError(t, src.Append(map[string]any{"name": "Potsdam", "country": "DE"}, src.Geom(0)))

	// Coordinates are untouched on both sides.
	assert.Equal(t, src.Geom(0).FlatCoords(), subset.Geom(0).FlatCoords())
}

func TestReproject_TransformsAndRetags(t *testing.T) {
	tbl := worldCities(t)

	merc, err := crs.FromSRID(3857)
	require.NoError(t, err)

	out, err := tbl.Reproject(merc)
	require.NoError(t, err)

	assert.Equal(t, 3857, out.SRID())
	assert.InDelta(t, 1492232.65, out.Geom(0).FlatCoords()[0], 1.0)

	// The receiver is untouched: reprojection is explicit and returns
	// a new table instead of mutating in place.
	assert.Equal(t, 4326, tbl.SRID())
	assert.Equal(t, 13.404954, tbl.Geom(0).FlatCoords()[0])

	// Attributes came along, still paired row for row.
	assert.Equal(t, "Berlin", out.Row(0).Value("name"))
	assert.Equal(t, tbl.Len(), out.Len())
}

func TestReproject_NilGeometriesPassThrough(t *testing.T) {
	tbl := New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("name", TypeString))
	require.NoError(t, tbl.Append(map[string]any{"name": "nowhere"}, nil))

	merc, err := crs.FromSRID(3857)
	require.NoError(t, err)

	out, err := tbl.Reproject(merc)
	require.NoError(t, err)
	assert.Nil(t, out.Geom(0))
	assert.Equal(t, 3857, out.SRID())
}

func TestReproject_RequiresCRS(t *testing.T) {
	tbl := New("geometry", 0)
	require.NoError(t, tbl.Append(nil, pt(0, 0)))

	merc, err := crs.FromSRID(3857)
	require.NoError(t, err)

	_, err = tbl.Reproject(merc)
	assert.ErrorIs(t, err, ErrNoCRS)
}

func TestReproject_RoundTrip(t *testing.T) {
	tbl := worldCities(t)

	merc, err := crs.FromSRID(3857)
	require.NoError(t, err)
	wgs84, err := crs.FromSRID(4326)
	require.NoError(t, err)

	there, err := tbl.Reproject(merc)
	require.NoError(t, err)
	back, err := there.Reproject(wgs84)
	require.NoError(t, err)

	for i := 0; i < tbl.Len(); i++ {
		orig := tbl.Geom(i).FlatCoords()
		got := back.Geom(i).FlatCoords()
		require.Len(t, got, len(orig))
		for j := range orig {
			assert.InDelta(t, orig[j], got[j], 1e-9, "row %d ordinate %d", i, j)
		}
	}
}
