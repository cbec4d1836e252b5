package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geotable/internal/geotable"
)

const citiesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [13.4, 52.52]},
      "properties": {"name": "Berlin", "pop": 3645000, "capital": true}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [8.54, 47.37]},
      "properties": {"name": "Zurich", "pop": null, "capital": false}
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"name": "Atlantis", "legend": "sunken"}
    }
  ]
}`

func TestReadGeoJSON(t *testing.T) {
	tbl, err := ReadGeoJSON(strings.NewReader(citiesGeoJSON), 4326)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 4326, tbl.SRID())
	assert.Equal(t, []string{"capital", "legend", "name", "pop"}, tbl.Columns())

	assert.Equal(t, geotable.TypeBool, tbl.Column("capital").Type)
	assert.Equal(t, geotable.TypeFloat, tbl.Column("pop").Type, "JSON numbers are floats")
	assert.Equal(t, geotable.TypeString, tbl.Column("name").Type)

	assert.Equal(t, 3645000.0, tbl.Row(0).Value("pop"))
	assert.True(t, tbl.Row(1).IsNull("pop"), "JSON null is a null cell")
	assert.True(t, tbl.Row(0).IsNull("legend"), "absent key is a null cell")
	assert.Equal(t, "sunken", tbl.Row(2).Value("legend"))

	pt, ok := tbl.Geom(0).(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 4326, pt.SRID(), "decoded geometries pick up the table SRID")
	assert.InDelta(t, 13.4, pt.X(), 1e-9)

	assert.Nil(t, tbl.Geom(2), "null geometry survives as empty")
}

func TestReadGeoJSON_MixedPropertyTypesWidenToString(t *testing.T) {
	const mixed = `{
	  "type": "FeatureCollection",
	  "features": [
	    {
	      "type": "Feature",
	      "geometry": {"type": "Point", "coordinates": [0, 0]},
	      "properties": {"pop": 42, "tags": "old"}
	    },
	    {
	      "type": "Feature",
	      "geometry": {"type": "Point", "coordinates": [1, 1]},
	      "properties": {"pop": "n/a", "tags": ["a", "b"]}
	    }
	  ]
	}`

	tbl, err := ReadGeoJSON(strings.NewReader(mixed), 4326)
	require.NoError(t, err, "a type conflict must not abort the ingest")

	assert.Equal(t, geotable.TypeString, tbl.Column("pop").Type)
	assert.Equal(t, "42", tbl.Row(0).Value("pop"))
	assert.Equal(t, "n/a", tbl.Row(1).Value("pop"))

	assert.Equal(t, "old", tbl.Row(0).Value("tags"))
	assert.Equal(t, `["a","b"]`, tbl.Row(1).Value("tags"), "structured values keep their JSON notation")
}

func TestReadGeoJSON_Malformed(t *testing.T) {
	_, err := ReadGeoJSON(strings.NewReader(`{"type": "FeatureCollection", "features": [`), 4326)
	assert.ErrorContains(t, err, "decode geojson")
}
