package geotable

import "github.com/rotisserie/eris"

// Select returns a table containing only the named attribute columns.
// The geometry column is always carried along whether or not it is
// named: selecting away the geometry is not possible. Naming it
// explicitly is allowed and is a no-op.
func (t *Table) Select(names ...string) (*Table, error) {
	var keep []*Column
	for _, name := range names {
		if name == t.geomCol {
			continue
		}
		c := t.Column(name)
		if c == nil {
			return nil, eris.Errorf("geotable: no such column %q", name)
		}
		for _, k := range keep {
			if k.Name == name {
				return nil, eris.Errorf("geotable: column %q selected twice", name)
			}
		}
		keep = append(keep, c)
	}

	out := New(t.geomCol, t.srid)
	out.cols = keep
	out.geoms = t.geoms
	return out.takeRows(allRows(t.Len())), nil
}

// Filter returns the rows for which pred returns true. Attributes and
// geometries are sliced together.
func (t *Table) Filter(pred func(Row) bool) *Table {
	var rows []int
	for i := 0; i < t.Len(); i++ {
		if pred(Row{t: t, i: i}) {
			rows = append(rows, i)
		}
	}
	return t.takeRows(rows)
}

// Slice returns rows [lo, hi).
func (t *Table) Slice(lo, hi int) (*Table, error) {
	if lo < 0 || hi < lo || hi > t.Len() {
		return nil, eris.Errorf("geotable: slice [%d, %d) out of range for %d rows", lo, hi, t.Len())
	}
	rows := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		rows = append(rows, i)
	}
	return t.takeRows(rows), nil
}

// Head returns the first n rows, or fewer when the table is shorter.
func (t *Table) Head(n int) *Table {
	if n > t.Len() {
		n = t.Len()
	}
	if n < 0 {
		n = 0
	}
	out, _ := t.Slice(0, n)
	return out
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
