package store

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/geotable/internal/geotable"
	"github.com/sells-group/geotable/internal/raster"
)

// tableSchema is the stored layout of a vector dataset. Attribute rows
// are JSON arrays aligned with Columns; geometries are EWKB blobs.
type tableSchema struct {
	GeomColumn string         `json:"geom_column"`
	SRID       int            `json:"srid"`
	Columns    []columnSchema `json:"columns"`
}

type columnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func schemaOf(t *geotable.Table) tableSchema {
	s := tableSchema{GeomColumn: t.GeomColumn(), SRID: t.SRID()}
	for _, name := range t.Columns() {
		s.Columns = append(s.Columns, columnSchema{Name: name, Type: t.Column(name).Type.String()})
	}
	return s
}

func newTableFromSchema(s tableSchema) (*geotable.Table, error) {
	t := geotable.New(s.GeomColumn, s.SRID)
	for _, c := range s.Columns {
		typ, err := geotable.ParseColType(c.Type)
		if err != nil {
			return nil, eris.Wrapf(err, "store: schema column %s", c.Name)
		}
		if err := t.AddColumn(c.Name, typ); err != nil {
			return nil, eris.Wrap(err, "store: rebuild schema")
		}
	}
	return t, nil
}

// encodeAttrs renders row i as a JSON array in schema column order.
func encodeAttrs(t *geotable.Table, i int) ([]byte, error) {
	vals := make([]any, 0, len(t.Columns()))
	for _, name := range t.Columns() {
		vals = append(vals, t.Column(name).Value(i))
	}
	data, err := json.Marshal(vals)
	return data, eris.Wrap(err, "store: encode attrs")
}

// decodeAttrs parses a stored JSON attribute array back into the typed
// values Append expects. JSON numbers arrive as float64 and are
// narrowed by the column's declared type.
func decodeAttrs(data []byte, s tableSchema) (map[string]any, error) {
	var vals []any
	if err := json.Unmarshal(data, &vals); err != nil {
		return nil, eris.Wrap(err, "store: decode attrs")
	}
	if len(vals) != len(s.Columns) {
		return nil, eris.Errorf("store: attr row has %d values, schema has %d columns", len(vals), len(s.Columns))
	}

	attrs := make(map[string]any, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		if s.Columns[i].Type == "int" {
			f, ok := v.(float64)
			if !ok {
				return nil, eris.Errorf("store: column %s holds %T, want number", s.Columns[i].Name, v)
			}
			attrs[s.Columns[i].Name] = int64(f)
			continue
		}
		attrs[s.Columns[i].Name] = v
	}
	return attrs, nil
}

// encodeGeom renders a geometry as EWKB, or nil for empty geometries.
func encodeGeom(t *geotable.Table, i int) ([]byte, error) {
	g := t.Geom(i)
	if g == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	return data, eris.Wrapf(err, "store: encode geometry row %d", i)
}

func decodeGeom(data []byte) (geom.T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	return g, eris.Wrap(err, "store: decode geometry")
}

// gridMeta is the stored header of a raster dataset. Cell values ride
// separately as a little-endian float64 blob.
type gridMeta struct {
	OriginX    float64        `json:"origin_x"`
	OriginY    float64        `json:"origin_y"`
	Res        float64        `json:"res"`
	Cols       int            `json:"cols"`
	Rows       int            `json:"rows"`
	SRID       int            `json:"srid"`
	Categories map[int]string `json:"categories,omitempty"`
}

func metaOf(g *raster.Grid) gridMeta {
	xmin, _, _, ymax := g.Extent()
	return gridMeta{
		OriginX:    xmin,
		OriginY:    ymax,
		Res:        g.Res(),
		Cols:       g.Cols(),
		Rows:       g.Rows(),
		SRID:       g.SRID(),
		Categories: g.Categories(),
	}
}

func encodeCells(g *raster.Grid) []byte {
	values := g.Values()
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeGrid(meta gridMeta, cells []byte) (*raster.Grid, error) {
	g, err := raster.New(meta.OriginX, meta.OriginY, meta.Res, meta.Cols, meta.Rows, meta.SRID)
	if err != nil {
		return nil, eris.Wrap(err, "store: rebuild grid")
	}
	if len(cells) != 8*g.NumCells() {
		return nil, eris.Errorf("store: raster payload is %d bytes, want %d", len(cells), 8*g.NumCells())
	}

	values := make([]float64, g.NumCells())
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(cells[i*8:]))
	}
	if err := g.Fill(values); err != nil {
		return nil, eris.Wrap(err, "store: rebuild grid")
	}
	for code, label := range meta.Categories {
		g.SetCategory(code, label)
	}
	return g, nil
}
