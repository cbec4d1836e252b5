package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/geotable/internal/geotable"
)

// WriteCSV writes a table with the geometry rendered as a trailing WKT
// column named after the table's geometry column. Nulls and empty
// geometries are blank cells.
func WriteCSV(w io.Writer, t *geotable.Table) error {
	cw := csv.NewWriter(w)

	cols := t.Columns()
	header := append(append([]string{}, cols...), t.GeomColumn())
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	record := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		for j, name := range cols {
			record[j] = formatCell(t.Column(name).Value(i))
		}

		record[len(record)-1] = ""
		if g := t.Geom(i); g != nil {
			s, err := wkt.Marshal(g)
			if err != nil {
				return eris.Wrapf(err, "export: csv row %d", i)
			}
			record[len(record)-1] = s
		}

		if err := cw.Write(record); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", i)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
