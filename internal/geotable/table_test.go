package geotable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func pt(x, y float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{x, y})
}

// worldCities builds the small fixture table used across the package
// tests: four point rows with mixed attribute types and one null.
func worldCities(t *testing.T) *Table {
	t.Helper()

	tbl := New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("name", TypeString))
	require.NoError(t, tbl.AddColumn("country", TypeString))
	require.NoError(t, tbl.AddColumn("pop", TypeInt))
	require.NoError(t, tbl.AddColumn("gdp", TypeFloat))

	rows := []struct {
		attrs map[string]any
		g     geom.T
	}{
		{map[string]any{"name": "Berlin", "country": "DE", "pop": int64(3769000), "gdp": 210.0}, pt(13.404954, 52.520008)},
		{map[string]any{"name": "Hamburg", "country": "DE", "pop": int64(1841000), "gdp": 123.0}, pt(9.993682, 53.551086)},
		{map[string]any{"name": "Paris", "country": "FR", "pop": int64(2161000), "gdp": 850.0}, pt(2.352222, 48.856613)},
		{map[string]any{"name": "Lyon", "country": "FR", "gdp": 94.0}, pt(4.835659, 45.764043)}, // pop unknown
	}
	for _, r := range rows {
		require.NoError(t, tbl.Append(r.attrs, r.g))
	}
	return tbl
}

func TestAppendAndRead(t *testing.T) {
	tbl := worldCities(t)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"name", "country", "pop", "gdp"}, tbl.Columns())
	assert.Equal(t, 4326, tbl.SRID())
	assert.Equal(t, "geometry", tbl.GeomColumn())

	row := tbl.Row(0)
	assert.Equal(t, "Berlin", row.Value("name"))
	assert.Equal(t, int64(3769000), row.Value("pop"))
	assert.Equal(t, 210.0, row.Value("gdp"))

	// Missing attribute stored as null.
	assert.True(t, tbl.Row(3).IsNull("pop"))
	assert.Nil(t, tbl.Row(3).Value("pop"))

	// Every row keeps its geometry.
	for i := 0; i < tbl.Len(); i++ {
		assert.NotNil(t, tbl.Geom(i), "row %d", i)
	}
}

func TestAppend_UnknownColumn(t *testing.T) {
	tbl := New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("name", TypeString))

	err := tbl.Append(map[string]any{"nmae": "typo"}, nil)
	assert.ErrorContains(t, err, "no such column")
	assert.Equal(t, 0, tbl.Len())
}

func TestAppend_GeometryAsAttribute(t *testing.T) {
	tbl := New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("name", TypeString))

	err := tbl.Append(map[string]any{"geometry": pt(0, 0)}, nil)
	assert.ErrorContains(t, err, "geometry column")
}

func TestAppend_TypeMismatchRollsBack(t *testing.T) {
	tbl := New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("name", TypeString))
	require.NoError(t, tbl.AddColumn("pop", TypeInt))

	err := tbl.Append(map[string]any{"name": "x", "pop": "not a number"}, nil)
	require.Error(t, err)

	// Column lengths stay equal after the failed append.
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.Column("name").Len())
	assert.Equal(t, 0, tbl.Column("pop").Len())

	// The table still accepts valid rows afterwards.
	require.NoError(t, tbl.Append(map[string]any{"name": "x", "pop": 1}, nil))
	assert.Equal(t, 1, tbl.Len())
}

func TestAppend_SRIDMismatch(t *testing.T) {
	tbl := New("geometry", 4326)
	g := pt(0, 0).SetSRID(3857)
	err := tbl.Append(nil, g)
	assert.ErrorContains(t, err, "does not match table SRID")

	// Untagged geometries are accepted under the table's declaration.
	assert.NoError(t, tbl.Append(nil, pt(0, 0)))
}

func TestAddColumn_Rules(t *testing.T) {
	tbl := New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("a", TypeString))

	assert.Error(t, tbl.AddColumn("a", TypeInt), "duplicate")
	assert.Error(t, tbl.AddColumn("geometry", TypeString), "geometry collision")
	assert.Error(t, tbl.AddColumn("", TypeString), "empty name")

	require.NoError(t, tbl.Append(map[string]any{"a": "x"}, nil))
	assert.Error(t, tbl.AddColumn("late", TypeString), "after rows")
}

func TestColumnFloatCoercion(t *testing.T) {
	tbl := worldCities(t)

	v, ok := tbl.Column("pop").Float(0)
	assert.True(t, ok)
	assert.Equal(t, 3769000.0, v)

	_, ok = tbl.Column("name").Float(0)
	assert.False(t, ok)

	_, ok = tbl.Column("pop").Float(3) // null
	assert.False(t, ok)
}

func TestParseColType(t *testing.T) {
	for _, typ := range []ColType{TypeString, TypeInt, TypeFloat, TypeBool} {
		parsed, err := ParseColType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseColType("decimal")
	assert.Error(t, err)
}
