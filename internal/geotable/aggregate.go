package geotable

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// AggFunc enumerates the supported aggregations.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggMean
	AggMin
	AggMax
	AggFirst
)

func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggFirst:
		return "first"
	}
	return "unknown"
}

// ParseAggFunc is the inverse of AggFunc.String.
func ParseAggFunc(s string) (AggFunc, error) {
	switch strings.ToLower(s) {
	case "count":
		return AggCount, nil
	case "sum":
		return AggSum, nil
	case "mean", "avg":
		return AggMean, nil
	case "min":
		return AggMin, nil
	case "max":
		return AggMax, nil
	case "first":
		return AggFirst, nil
	}
	return 0, eris.Errorf("geotable: unknown aggregation %q", s)
}

// AggSpec names an aggregation over a source column and the output
// column it produces. Col "*" with AggCount counts rows; otherwise
// count counts non-null values.
type AggSpec struct {
	Col string
	Fn  AggFunc
	As  string
}

func (s AggSpec) outName() string {
	if s.As != "" {
		return s.As
	}
	if s.Col == "*" {
		return "count"
	}
	return s.Fn.String() + "_" + s.Col
}

// Aggregate groups rows by the key column and computes the requested
// aggregations per group. Each output row's geometry is the collection
// of its members' geometries, so the attribute/geometry pairing
// survives aggregation the same way it survives subsetting. Rows with
// a null key form their own group. Groups appear in order of first
// occurrence.
func (t *Table) Aggregate(by string, aggs ...AggSpec) (*Table, error) {
	keyCol := t.Column(by)
	if keyCol == nil {
		return nil, eris.Errorf("geotable: aggregate: no such column %q", by)
	}
	if len(aggs) == 0 {
		return nil, eris.New("geotable: aggregate: no aggregations requested")
	}

	for _, spec := range aggs {
		if spec.Col == "*" {
			if spec.Fn != AggCount {
				return nil, eris.Errorf("geotable: aggregate: %s(*) is not defined", spec.Fn)
			}
			continue
		}
		c := t.Column(spec.Col)
		if c == nil {
			return nil, eris.Errorf("geotable: aggregate: no such column %q", spec.Col)
		}
		switch spec.Fn {
		case AggSum, AggMean, AggMin, AggMax:
			if c.Type != TypeInt && c.Type != TypeFloat {
				return nil, eris.Errorf("geotable: aggregate: %s needs a numeric column, %s is %s",
					spec.Fn, spec.Col, c.Type)
			}
		}
	}

	type groupKey struct {
		null bool
		k    joinKey
	}

	var order []groupKey
	groups := make(map[groupKey][]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		k, ok := keyAt(keyCol, i)
		gk := groupKey{null: !ok, k: k}
		if _, seen := groups[gk]; !seen {
			order = append(order, gk)
		}
		groups[gk] = append(groups[gk], i)
	}

	out := New(t.geomCol, t.srid)
	out.cols = append(out.cols, &Column{Name: by, Type: keyCol.Type})
	for _, spec := range aggs {
		out.cols = append(out.cols, &Column{Name: spec.outName(), Type: aggOutType(t, spec)})
	}

	for _, gk := range order {
		members := groups[gk]

		var keyVal any
		if !gk.null {
			keyVal = keyCol.Value(members[0])
		}
		_ = out.cols[0].appendValue(keyVal)

		for j, spec := range aggs {
			_ = out.cols[j+1].appendValue(aggValue(t, spec, members))
		}

		out.geoms = append(out.geoms, dissolveGeoms(t, members))
	}

	return out, nil
}

func aggOutType(t *Table, spec AggSpec) ColType {
	switch spec.Fn {
	case AggCount:
		return TypeInt
	case AggFirst:
		return t.Column(spec.Col).Type
	default:
		return TypeFloat
	}
}

func aggValue(t *Table, spec AggSpec, members []int) any {
	if spec.Fn == AggCount {
		if spec.Col == "*" {
			return int64(len(members))
		}
		c := t.Column(spec.Col)
		n := int64(0)
		for _, i := range members {
			if !c.IsNull(i) {
				n++
			}
		}
		return n
	}

	c := t.Column(spec.Col)

	if spec.Fn == AggFirst {
		for _, i := range members {
			if !c.IsNull(i) {
				return c.Value(i)
			}
		}
		return nil
	}

	var (
		sum      float64
		min, max float64
		n        int
	)
	for _, i := range members {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		if n == 0 {
			min, max = v, v
		} else {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil
	}

	switch spec.Fn {
	case AggSum:
		return sum
	case AggMean:
		return sum / float64(n)
	case AggMin:
		return min
	case AggMax:
		return max
	}
	return nil
}

// dissolveGeoms pairs a group with the union of its members'
// geometries. A single geometry passes through unchanged; several are
// gathered into a geometry collection. No polygon clipping is applied,
// so adjacent polygons keep their shared boundary inside the
// collection.
func dissolveGeoms(t *Table, members []int) geom.T {
	var nonNil []geom.T
	for _, i := range members {
		if g := t.geoms[i]; g != nil {
			nonNil = append(nonNil, g)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}

	gc := geom.NewGeometryCollection()
	// Push only fails on layout conflicts inside the collection, which
	// cannot happen for geometries that already coexisted in one table.
	_ = gc.Push(nonNil...)
	gc.SetSRID(t.srid)
	return gc
}
