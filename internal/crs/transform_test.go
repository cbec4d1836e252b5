package crs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func mustCRS(t *testing.T, srid int) CRS {
	t.Helper()
	c, err := FromSRID(srid)
	require.NoError(t, err)
	return c
}

func TestNewTransformer_RejectsUndefined(t *testing.T) {
	_, err := NewTransformer(CRS{}, mustCRS(t, 4326))
	assert.ErrorIs(t, err, ErrUndefined)

	_, err = NewTransformer(mustCRS(t, 4326), CRS{})
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestTransformer_Identity(t *testing.T) {
	tr, err := NewTransformer(mustCRS(t, 3857), mustCRS(t, 3857))
	require.NoError(t, err)

	x, y, err := tr.XY(123456.78, -98765.43)
	require.NoError(t, err)
	assert.Equal(t, 123456.78, x)
	assert.Equal(t, -98765.43, y)
}

func TestTransformer_GeographicToMercatorAndBack(t *testing.T) {
	wgs84 := mustCRS(t, 4326)
	merc := mustCRS(t, 3857)

	fwd, err := NewTransformer(wgs84, merc)
	require.NoError(t, err)
	back, err := NewTransformer(merc, wgs84)
	require.NoError(t, err)

	x, y, err := fwd.XY(13.404954, 52.520008)
	require.NoError(t, err)
	assert.InDelta(t, 1492232.65, x, 1.0)
	assert.InDelta(t, 6894701.0, y, 10.0)

	lon, lat, err := back.XY(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 13.404954, lon, 1e-9)
	assert.InDelta(t, 52.520008, lat, 1e-9)
}

func TestTransformer_ProjectedToProjected(t *testing.T) {
	// Mercator to UTM routes through geographic WGS 84.
	merc := mustCRS(t, 3857)
	utm33 := mustCRS(t, 32633)

	tr, err := NewTransformer(merc, utm33)
	require.NoError(t, err)

	// 15 E, equator in Mercator coordinates lands on the UTM zone 33
	// central meridian.
	x, y, err := tr.XY(1669792.36, 0)
	require.NoError(t, err)
	assert.InDelta(t, 500000, x, 0.5)
	assert.InDelta(t, 0, y, 0.5)
}

func TestTransformer_FlatCoordsPreservesExtraOrdinates(t *testing.T) {
	tr, err := NewTransformer(mustCRS(t, 4326), mustCRS(t, 3857))
	require.NoError(t, err)

	// XYZ stride: the third ordinate must survive untouched.
	fc := []float64{0, 0, 42.5, 10, 10, 43.5}
	out, err := tr.FlatCoords(fc, 3)
	require.NoError(t, err)

	assert.Equal(t, 42.5, out[2])
	assert.Equal(t, 43.5, out[5])
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.NotEqual(t, fc[3], out[3])

	// Input slice untouched.
	assert.Equal(t, []float64{0, 0, 42.5, 10, 10, 43.5}, fc)

	_, err = tr.FlatCoords(fc, 1)
	assert.Error(t, err)
}

func TestTransformer_Geom(t *testing.T) {
	wgs84 := mustCRS(t, 4326)
	merc := mustCRS(t, 3857)
	tr, err := NewTransformer(wgs84, merc)
	require.NoError(t, err)

	t.Run("point", func(t *testing.T) {
		p := geom.NewPointFlat(geom.XY, []float64{13.404954, 52.520008}).SetSRID(4326)
		out, err := tr.Geom(p)
		require.NoError(t, err)
		assert.Equal(t, 3857, out.SRID())
		assert.InDelta(t, 1492232.65, out.FlatCoords()[0], 1.0)
		// Source untouched.
		assert.Equal(t, 13.404954, p.FlatCoords()[0])
	})

	t.Run("polygon keeps ring structure", func(t *testing.T) {
		poly := geom.NewPolygonFlat(geom.XY,
			[]float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}, []int{10}).SetSRID(4326)
		out, err := tr.Geom(poly)
		require.NoError(t, err)
		mp, ok := out.(*geom.Polygon)
		require.True(t, ok)
		assert.Equal(t, 1, mp.NumLinearRings())
		assert.Equal(t, 3857, mp.SRID())
	})

	t.Run("multipolygon", func(t *testing.T) {
		mp := geom.NewMultiPolygonFlat(geom.XY,
			[]float64{0, 0, 1, 0, 1, 1, 0, 0}, [][]int{{8}}).SetSRID(4326)
		out, err := tr.Geom(mp)
		require.NoError(t, err)
		assert.IsType(t, &geom.MultiPolygon{}, out)
		assert.Equal(t, 3857, out.SRID())
	})

	t.Run("collection recurses", func(t *testing.T) {
		gc := geom.NewGeometryCollection()
		require.NoError(t, gc.Push(
			geom.NewPointFlat(geom.XY, []float64{0, 0}),
			geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}),
		))
		out, err := tr.Geom(gc)
		require.NoError(t, err)
		oc, ok := out.(*geom.GeometryCollection)
		require.True(t, ok)
		assert.Equal(t, 2, oc.NumGeoms())
		assert.Equal(t, 3857, oc.SRID())
	})

	t.Run("out of domain fails loudly", func(t *testing.T) {
		p := geom.NewPointFlat(geom.XY, []float64{0, 89.9}).SetSRID(4326)
		_, err := tr.Geom(p)
		assert.Error(t, err)
	})
}

func TestTransform_Convenience(t *testing.T) {
	out, err := Transform(
		geom.NewPointFlat(geom.XY, []float64{0, 0}),
		mustCRS(t, 4326), mustCRS(t, 3857),
	)
	require.NoError(t, err)
	assert.Equal(t, 3857, out.SRID())
}
