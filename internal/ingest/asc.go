package ingest

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geotable/internal/raster"
)

// ReadASCIIGrid parses an ESRI ASCII grid. The header's lower-left
// corner is converted to the grid's north-west origin; cells equal to
// the declared nodata value become NoData. ASCII grids carry no CRS,
// so the result comes back untagged and the caller decides.
func ReadASCIIGrid(r io.Reader) (*raster.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	header := map[string]float64{}
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs with a non-numeric key.
		if len(fields) == 2 && values == nil {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, eris.Wrapf(err, "ingest: ascii grid header %s", fields[0])
				}
				header[strings.ToLower(fields[0])] = v
				continue
			}
		}

		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "ingest: ascii grid value %q", f)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: read ascii grid")
	}

	cols, ok := headerInt(header, "ncols")
	if !ok {
		return nil, eris.New("ingest: ascii grid header is missing ncols")
	}
	rows, ok := headerInt(header, "nrows")
	if !ok {
		return nil, eris.New("ingest: ascii grid header is missing nrows")
	}
	res, ok := header["cellsize"]
	if !ok {
		return nil, eris.New("ingest: ascii grid header is missing cellsize")
	}
	xll, okX := header["xllcorner"]
	yll, okY := header["yllcorner"]
	if !okX || !okY {
		return nil, eris.New("ingest: ascii grid header is missing xllcorner/yllcorner")
	}

	if len(values) != cols*rows {
		return nil, eris.Errorf("ingest: ascii grid has %d values, want %d", len(values), cols*rows)
	}

	g, err := raster.New(xll, yll+float64(rows)*res, res, cols, rows, 0)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: ascii grid")
	}

	if nodata, ok := header["nodata_value"]; ok {
		for i, v := range values {
			if v == nodata {
				values[i] = g.NoData()
			}
		}
	}
	if err := g.Fill(values); err != nil {
		return nil, eris.Wrap(err, "ingest: ascii grid")
	}
	return g, nil
}

func headerInt(header map[string]float64, key string) (int, bool) {
	v, ok := header[key]
	if !ok || v != float64(int(v)) || v < 1 {
		return 0, false
	}
	return int(v), true
}
