package export

import (
	"bufio"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geotable/internal/raster"
)

const ascNoData = -9999

// WriteASCIIGrid renders a grid in ESRI ASCII format. The grid's
// north-west origin converts back to the format's lower-left corner
// and NoData cells are written as -9999.
func WriteASCIIGrid(w io.Writer, g *raster.Grid) error {
	bw := bufio.NewWriter(w)

	xmin, ymin, _, _ := g.Extent()
	writeHeader := func(key string, v float64) {
		bw.WriteString(key)
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	bw.WriteString("ncols " + strconv.Itoa(g.Cols()) + "\n")
	bw.WriteString("nrows " + strconv.Itoa(g.Rows()) + "\n")
	writeHeader("xllcorner", xmin)
	writeHeader("yllcorner", ymin)
	writeHeader("cellsize", g.Res())
	bw.WriteString("NODATA_value " + strconv.Itoa(ascNoData) + "\n")

	values := g.Values()
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := values[row*g.Cols()+col]
			if g.IsNoData(v) {
				bw.WriteString(strconv.Itoa(ascNoData))
				continue
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return eris.Wrap(err, "export: write ascii grid")
	}
	return nil
}
