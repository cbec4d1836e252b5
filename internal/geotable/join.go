package geotable

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// JoinKind selects the join behavior.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

// ParseJoinKind resolves "inner" or "left".
func ParseJoinKind(s string) (JoinKind, error) {
	switch s {
	case "inner":
		return InnerJoin, nil
	case "left":
		return LeftJoin, nil
	}
	return 0, eris.Errorf("geotable: unknown join kind %q", s)
}

// joinKey is the comparable form of a key column value.
type joinKey struct {
	s string
	i int64
	f float64
	b bool
}

func keyAt(c *Column, i int) (joinKey, bool) {
	if c.IsNull(i) {
		return joinKey{}, false
	}
	switch c.Type {
	case TypeString:
		return joinKey{s: c.strings[i]}, true
	case TypeInt:
		return joinKey{i: c.ints[i]}, true
	case TypeFloat:
		return joinKey{f: c.floats[i]}, true
	case TypeBool:
		return joinKey{b: c.bools[i]}, true
	}
	return joinKey{}, false
}

// Join combines t with right on a shared key column. The result carries
// t's geometry column: whatever geometry the right side has is
// discarded, because each output row descends from exactly one left
// row and keeps that row's geometry. Rows whose key is null never
// match (a null key identifies nothing). When the right side has
// several rows for one key the first wins and the duplicates are
// logged. Right-side columns whose names collide with left-side ones
// come through with a "_right" suffix.
func (t *Table) Join(right *Table, on string, kind JoinKind) (*Table, error) {
	leftKey := t.Column(on)
	if leftKey == nil {
		return nil, eris.Errorf("geotable: join: left table has no column %q", on)
	}
	rightKey := right.Column(on)
	if rightKey == nil {
		return nil, eris.Errorf("geotable: join: right table has no column %q", on)
	}
	if leftKey.Type != rightKey.Type {
		return nil, eris.Errorf("geotable: join: key column %s is %s on the left but %s on the right",
			on, leftKey.Type, rightKey.Type)
	}

	// Index the right side by key, first occurrence wins.
	index := make(map[joinKey]int, right.Len())
	dupes := 0
	for i := 0; i < right.Len(); i++ {
		k, ok := keyAt(rightKey, i)
		if !ok {
			continue
		}
		if _, seen := index[k]; seen {
			dupes++
			continue
		}
		index[k] = i
	}
	if dupes > 0 {
		zap.L().Debug("geotable: join right side has duplicate keys, first occurrence wins",
			zap.String("on", on),
			zap.Int("duplicates", dupes),
		)
	}

	out := New(t.geomCol, t.srid)
	for _, c := range t.cols {
		out.cols = append(out.cols, &Column{Name: c.Name, Type: c.Type})
	}
	carried := joinCarriedColumns(t, right, on)
	for _, c := range carried {
		out.cols = append(out.cols, &Column{Name: c.outName, Type: c.col.Type})
	}

	for i := 0; i < t.Len(); i++ {
		k, keyOK := keyAt(leftKey, i)
		matchIdx, matched := -1, false
		if keyOK {
			if ri, ok := index[k]; ok {
				matchIdx, matched = ri, true
			}
		}
		if !matched && kind == InnerJoin {
			continue
		}

		n := 0
		for _, c := range t.cols {
			_ = out.cols[n].appendValue(c.Value(i))
			n++
		}
		for _, c := range carried {
			var v any
			if matched {
				v = c.col.Value(matchIdx)
			}
			_ = out.cols[n].appendValue(v)
			n++
		}
		out.geoms = append(out.geoms, t.geoms[i])
	}

	return out, nil
}

type carriedColumn struct {
	col     *Column
	outName string
}

// joinCarriedColumns lists the right-side columns that flow into the
// join output: everything except the key, renamed where the left side
// already owns the name.
func joinCarriedColumns(left, right *Table, on string) []carriedColumn {
	var carried []carriedColumn
	for _, c := range right.cols {
		if c.Name == on {
			continue
		}
		name := c.Name
		if left.Column(name) != nil || name == left.geomCol {
			name += "_right"
		}
		carried = append(carried, carriedColumn{col: c, outName: name})
	}
	return carried
}
