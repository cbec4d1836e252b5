package geotable

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geotable/internal/crs"
)

// ErrNoCRS is returned when an operation needs a coordinate reference
// system and the table has none. An undefined CRS makes measurements
// meaningless, so the engine refuses instead of returning a silently
// wrong number.
var ErrNoCRS = eris.New("geotable: table has no CRS")

// SetCRS declares the coordinate reference system of the values already
// stored in the table. It never touches coordinates: use it to tag data
// whose CRS is known out of band. Converting between systems is
// Reproject's job.
func (t *Table) SetCRS(srid int) error {
	if _, err := crs.FromSRID(srid); err != nil {
		return err
	}

	retagged := make([]geom.T, len(t.geoms))
	for i, g := range t.geoms {
		if g == nil {
			continue
		}
		rg, err := withSRID(g, srid)
		if err != nil {
			return err
		}
		retagged[i] = rg
	}
	t.srid = srid
	t.geoms = retagged
	return nil
}

// withSRID rebuilds the geometry header around the same coordinate
// storage with a new SRID. Derived tables share geometry pointers with
// the table they were sliced from, so retagging must never mutate the
// shared value.
func withSRID(g geom.T, srid int) (geom.T, error) {
	switch g := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(g.Layout(), g.FlatCoords()).SetSRID(srid), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(g.Layout(), g.FlatCoords()).SetSRID(srid), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(g.Layout(), g.FlatCoords(), g.Ends()).SetSRID(srid), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(g.Layout(), g.FlatCoords()).SetSRID(srid), nil
	case *geom.MultiLineString:
		return geom.NewMultiLineStringFlat(g.Layout(), g.FlatCoords(), g.Ends()).SetSRID(srid), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(g.Layout(), g.FlatCoords(), g.Endss()).SetSRID(srid), nil
	case *geom.GeometryCollection:
		out := geom.NewGeometryCollection()
		for _, sub := range g.Geoms() {
			rg, err := withSRID(sub, srid)
			if err != nil {
				return nil, err
			}
			if err := out.Push(rg); err != nil {
				return nil, eris.Wrap(err, "geotable: rebuild geometry collection")
			}
		}
		out.SetSRID(srid)
		return out, nil
	}
	return nil, eris.Errorf("geotable: unsupported geometry type %T", g)
}

// Reproject transforms every geometry into dst and returns a new table
// tagged with dst's SRID. The receiver is unchanged. A table with no
// declared CRS cannot be reprojected; call SetCRS first.
func (t *Table) Reproject(dst crs.CRS) (*Table, error) {
	if t.srid == 0 {
		return nil, ErrNoCRS
	}
	src, err := crs.FromSRID(t.srid)
	if err != nil {
		return nil, err
	}
	tr, err := crs.NewTransformer(src, dst)
	if err != nil {
		return nil, err
	}

	out := t.takeRows(allRows(t.Len()))
	out.srid = dst.SRID
	for i, g := range out.geoms {
		if g == nil {
			continue
		}
		tg, err := tr.Geom(g)
		if err != nil {
			return nil, eris.Wrapf(err, "geotable: reproject row %d", i)
		}
		out.geoms[i] = tg
	}
	return out, nil
}
