package export

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geotable/internal/geotable"
)

// demoTable builds a small city table with one null cell and one empty
// geometry, the cases every writer has to handle.
func demoTable(t *testing.T) *geotable.Table {
	t.Helper()
	tbl := geotable.New("geometry", 4326)
	require.NoError(t, tbl.AddColumn("name", geotable.TypeString))
	require.NoError(t, tbl.AddColumn("pop", geotable.TypeInt))
	require.NoError(t, tbl.AddColumn("area", geotable.TypeFloat))
	require.NoError(t, tbl.AddColumn("capital", geotable.TypeBool))

	require.NoError(t, tbl.Append(
		map[string]any{"name": "Berlin", "pop": int64(3645000), "area": 891.7, "capital": true},
		geom.NewPointFlat(geom.XY, []float64{13.4, 52.52}).SetSRID(4326),
	))
	require.NoError(t, tbl.Append(
		map[string]any{"name": "Hamburg", "area": 755.2, "capital": false},
		nil,
	))
	return tbl
}
