package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoASC = `ncols 4
nrows 3
xllcorner 100.0
yllcorner 170.0
cellsize 10.0
NODATA_value -9999
0 1 2 3
4 -9999 6 7
8 9 10 11
`

func TestReadASCIIGrid(t *testing.T) {
	g, err := ReadASCIIGrid(strings.NewReader(demoASC))
	require.NoError(t, err)

	assert.Equal(t, 4, g.Cols())
	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 10.0, g.Res())
	assert.Equal(t, 0, g.SRID(), "ascii grids carry no CRS")

	xmin, ymin, xmax, ymax := g.Extent()
	assert.Equal(t, [4]float64{100, 170, 140, 200}, [4]float64{xmin, ymin, xmax, ymax},
		"lower-left corner converts to a north-west origin")

	v, err := g.Value(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v, "first value is the north-west cell")

	v, err = g.Value(11)
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)

	v, err = g.Value(5)
	require.NoError(t, err)
	assert.True(t, g.IsNoData(v), "declared nodata value becomes NoData")
}

func TestReadASCIIGrid_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing ncols", "nrows 1\ncellsize 1\nxllcorner 0\nyllcorner 0\n1\n", "missing ncols"},
		{"missing cellsize", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\n1\n", "missing cellsize"},
		{"missing corner", "ncols 1\nnrows 1\ncellsize 1\n1\n", "missing xllcorner"},
		{"short values", "ncols 2\nnrows 2\ncellsize 1\nxllcorner 0\nyllcorner 0\n1 2 3\n", "has 3 values, want 4"},
		{"garbage value", "ncols 1\nnrows 1\ncellsize 1\nxllcorner 0\nyllcorner 0\nrock\n", `ascii grid value "rock"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadASCIIGrid(strings.NewReader(tt.in))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
