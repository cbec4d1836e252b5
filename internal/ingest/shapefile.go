package ingest

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/geotable/internal/geotable"
)

// dbfField carries one DBF column together with the table type it maps
// to. DBF 'N' fields with zero precision become ints, 'N' with decimals
// and 'F' become floats, 'L' becomes bool and everything else is text.
type dbfField struct {
	name string
	typ  geotable.ColType
	idx  int
}

// ReadShapefile loads a shapefile (and its DBF sidecar) into a table
// tagged with the given SRID. DBF strings are decoded from Latin-1,
// which is what most shapefiles in the wild actually use. Attribute
// values that fail to parse under their declared DBF type are stored
// as nulls and counted.
func ReadShapefile(path string, srid int) (*geotable.Table, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := dbfFields(reader.Fields())
	t := geotable.New("geometry", srid)
	for _, f := range fields {
		if err := t.AddColumn(f.name, f.typ); err != nil {
			return nil, eris.Wrapf(err, "ingest: shapefile %s", path)
		}
	}

	decoder := charmap.ISO8859_1.NewDecoder()
	var badValues, emptyGeoms int

	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]any, len(fields))
		for _, f := range fields {
			raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(f.idx), "\x00"))
			if raw == "" {
				continue
			}
			v, ok := parseDBFValue(raw, f.typ, decoder)
			if !ok {
				badValues++
				continue
			}
			attrs[f.name] = v
		}

		g := shapeToGeom(shape, srid)
		if g == nil {
			emptyGeoms++
		}
		if err := t.Append(attrs, g); err != nil {
			return nil, eris.Wrapf(err, "ingest: shapefile %s row %d", path, t.Len())
		}
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "ingest: read shapefile %s", path)
	}

	if badValues > 0 || emptyGeoms > 0 {
		zap.L().Debug("ingest: shapefile anomalies",
			zap.String("path", path),
			zap.Int("unparsable_values", badValues),
			zap.Int("empty_geometries", emptyGeoms),
		)
	}
	return t, nil
}

func dbfFields(fields []shp.Field) []dbfField {
	out := make([]dbfField, 0, len(fields))
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		typ := geotable.TypeString
		switch f.Fieldtype {
		case 'N':
			if f.Precision == 0 {
				typ = geotable.TypeInt
			} else {
				typ = geotable.TypeFloat
			}
		case 'F':
			typ = geotable.TypeFloat
		case 'L':
			typ = geotable.TypeBool
		}
		out = append(out, dbfField{name: name, typ: typ, idx: i})
	}
	return out
}

func parseDBFValue(raw string, typ geotable.ColType, decoder *encoding.Decoder) (any, bool) {
	switch typ {
	case geotable.TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case geotable.TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case geotable.TypeBool:
		switch raw {
		case "T", "t", "Y", "y":
			return true, true
		case "F", "f", "N", "n":
			return false, true
		}
		return nil, false
	default:
		s, err := decoder.String(raw)
		if err != nil {
			return raw, true
		}
		return s, true
	}
}
