// Package geotable implements a tabular attribute store paired one-to-one
// with a geometry column. The geometry column is sticky: row and column
// subsetting, joins, and aggregation all preserve the pairing, so a row
// can never lose or swap its geometry by accident.
package geotable

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ColType enumerates the supported attribute column types.
type ColType int

const (
	TypeString ColType = iota
	TypeInt
	TypeFloat
	TypeBool
)

func (t ColType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	}
	return "unknown"
}

// ParseColType is the inverse of ColType.String.
func ParseColType(s string) (ColType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	}
	return 0, eris.Errorf("geotable: unknown column type %q", s)
}

// Column is a typed attribute column with a per-row null mask.
type Column struct {
	Name string
	Type ColType

	strings []string
	ints    []int64
	floats  []float64
	bools   []bool
	null    []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.null) }

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// Value returns the attribute value at row i, or nil when null.
// The concrete type is string, int64, float64, or bool.
func (c *Column) Value(i int) any {
	if c.null[i] {
		return nil
	}
	switch c.Type {
	case TypeString:
		return c.strings[i]
	case TypeInt:
		return c.ints[i]
	case TypeFloat:
		return c.floats[i]
	case TypeBool:
		return c.bools[i]
	}
	return nil
}

// Float returns the value at row i coerced to float64. The second
// result is false for nulls and non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.null[i] {
		return 0, false
	}
	switch c.Type {
	case TypeInt:
		return float64(c.ints[i]), true
	case TypeFloat:
		return c.floats[i], true
	}
	return 0, false
}

func (c *Column) appendValue(v any) error {
	if v == nil {
		c.null = append(c.null, true)
		switch c.Type {
		case TypeString:
			c.strings = append(c.strings, "")
		case TypeInt:
			c.ints = append(c.ints, 0)
		case TypeFloat:
			c.floats = append(c.floats, 0)
		case TypeBool:
			c.bools = append(c.bools, false)
		}
		return nil
	}

	switch c.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return typeMismatch(c, v)
		}
		c.strings = append(c.strings, s)
	case TypeInt:
		switch n := v.(type) {
		case int:
			c.ints = append(c.ints, int64(n))
		case int64:
			c.ints = append(c.ints, n)
		default:
			return typeMismatch(c, v)
		}
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			c.floats = append(c.floats, n)
		case int:
			c.floats = append(c.floats, float64(n))
		case int64:
			c.floats = append(c.floats, float64(n))
		default:
			return typeMismatch(c, v)
		}
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return typeMismatch(c, v)
		}
		c.bools = append(c.bools, b)
	}
	c.null = append(c.null, false)
	return nil
}

// take builds a new column holding the given rows in order.
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	for _, i := range rows {
		// appendValue never fails when fed the column's own values.
		_ = out.appendValue(c.Value(i))
	}
	return out
}

func typeMismatch(c *Column, v any) error {
	return eris.Errorf("geotable: column %s (%s) cannot hold %T value", c.Name, c.Type, v)
}

// Table pairs typed attribute columns with one geometry per row.
type Table struct {
	geomCol string
	srid    int
	cols    []*Column
	geoms   []geom.T
}

// New creates an empty table whose geometry column is named geomCol and
// whose coordinates are declared to be in the given SRID. SRID 0 means
// the CRS is not yet known; measurement and reprojection refuse to
// operate until SetCRS declares one.
func New(geomCol string, srid int) *Table {
	if geomCol == "" {
		geomCol = "geometry"
	}
	return &Table{geomCol: geomCol, srid: srid}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.geoms) }

// SRID returns the declared CRS code, 0 when undefined.
func (t *Table) SRID() int { return t.srid }

// GeomColumn returns the geometry column's name.
func (t *Table) GeomColumn() string { return t.geomCol }

// Columns returns the attribute column names in order. The geometry
// column is not an attribute column and is not listed.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named attribute column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.cols {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Geom returns the geometry of row i; nil represents an empty geometry.
func (t *Table) Geom(i int) geom.T { return t.geoms[i] }

// AddColumn appends an empty attribute column. Columns must be added
// before the first row; the geometry column name is reserved.
func (t *Table) AddColumn(name string, typ ColType) error {
	if t.Len() > 0 {
		return eris.Errorf("geotable: cannot add column %s to a table with rows", name)
	}
	if name == "" {
		return eris.New("geotable: empty column name")
	}
	if name == t.geomCol {
		return eris.Errorf("geotable: column name %s collides with the geometry column", name)
	}
	if t.Column(name) != nil {
		return eris.Errorf("geotable: duplicate column %s", name)
	}
	t.cols = append(t.cols, &Column{Name: name, Type: typ})
	return nil
}

// Append adds one row: attribute values by column name plus the row's
// geometry. Missing attributes become nulls; unknown names are an
// error. A nil geometry is allowed and represents an empty geometry.
// A geometry tagged with a conflicting SRID is rejected rather than
// silently re-tagged.
func (t *Table) Append(attrs map[string]any, g geom.T) error {
	for name := range attrs {
		if name == t.geomCol {
			return eris.Errorf("geotable: geometry column %s must be passed as the geometry argument, not an attribute", name)
		}
		if t.Column(name) == nil {
			return eris.Errorf("geotable: no such column %q", name)
		}
	}

	if g != nil && g.SRID() != 0 && t.srid != 0 && g.SRID() != t.srid {
		return eris.Errorf("geotable: geometry SRID %d does not match table SRID %d", g.SRID(), t.srid)
	}

	appended := 0
	for _, c := range t.cols {
		v, ok := attrs[c.Name]
		if !ok {
			v = nil
		}
		if err := c.appendValue(v); err != nil {
			// Roll back the columns already grown to keep lengths equal.
			for _, fixed := range t.cols[:appended] {
				fixed.truncate(fixed.Len() - 1)
			}
			return err
		}
		appended++
	}

	t.geoms = append(t.geoms, g)
	return nil
}

func (c *Column) truncate(n int) {
	c.null = c.null[:n]
	switch c.Type {
	case TypeString:
		c.strings = c.strings[:n]
	case TypeInt:
		c.ints = c.ints[:n]
	case TypeFloat:
		c.floats = c.floats[:n]
	case TypeBool:
		c.bools = c.bools[:n]
	}
}

// Row is a read-only view of a single table row.
type Row struct {
	t *Table
	i int
}

// Row returns the view for row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Index returns the row's position in its table.
func (r Row) Index() int { return r.i }

// Value returns the named attribute, nil when null or unknown.
func (r Row) Value(col string) any {
	c := r.t.Column(col)
	if c == nil {
		return nil
	}
	return c.Value(r.i)
}

// IsNull reports whether the named attribute is null. Unknown columns
// read as null.
func (r Row) IsNull(col string) bool {
	c := r.t.Column(col)
	if c == nil {
		return true
	}
	return c.IsNull(r.i)
}

// Geom returns the row's geometry.
func (r Row) Geom() geom.T { return r.t.geoms[r.i] }

// takeRows builds a new table holding the given rows in order. Schema,
// geometry column name, and SRID carry over; attribute rows and
// geometries are sliced together, which is what keeps the pairing
// intact under every subsetting operation.
func (t *Table) takeRows(rows []int) *Table {
	out := New(t.geomCol, t.srid)
	out.cols = make([]*Column, len(t.cols))
	for i, c := range t.cols {
		out.cols[i] = c.take(rows)
	}
	out.geoms = make([]geom.T, len(rows))
	for i, r := range rows {
		out.geoms[i] = t.geoms[r]
	}
	return out
}
