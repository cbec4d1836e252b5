package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/geotable/internal/geotable"
)

// WriteXLSX writes a table as a single-sheet workbook. Attribute cells
// keep their native types so spreadsheet formulas see numbers as
// numbers; the geometry column holds WKT text. Nulls are empty cells.
func WriteXLSX(w io.Writer, t *geotable.Table, sheetName string) error {
	if sheetName == "" {
		sheetName = "data"
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "export: xlsx sheet %q", sheetName)
	}

	cols := t.Columns()
	header := sheet.AddRow()
	for _, name := range cols {
		header.AddCell().SetString(name)
	}
	header.AddCell().SetString(t.GeomColumn())

	for i := 0; i < t.Len(); i++ {
		row := sheet.AddRow()
		for _, name := range cols {
			setCell(row.AddCell(), t.Column(name).Value(i))
		}

		geomCell := row.AddCell()
		if g := t.Geom(i); g != nil {
			s, err := wkt.Marshal(g)
			if err != nil {
				return eris.Wrapf(err, "export: xlsx row %d", i)
			}
			geomCell.SetString(s)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch v := v.(type) {
	case string:
		cell.SetString(v)
	case int64:
		cell.SetInt64(v)
	case float64:
		cell.SetFloat(v)
	case bool:
		cell.SetBool(v)
	}
}
