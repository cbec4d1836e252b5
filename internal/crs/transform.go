package crs

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Transformer converts coordinates from one registered system to
// another. Conversion routes through geographic WGS 84: the source
// projection is inverted, then the target projection applied.
type Transformer struct {
	src, dst CRS
}

// NewTransformer builds a transformer between two defined systems.
func NewTransformer(src, dst CRS) (*Transformer, error) {
	if !src.Defined() || !dst.Defined() {
		return nil, ErrUndefined
	}
	return &Transformer{src: src, dst: dst}, nil
}

// XY converts a single coordinate pair. Identical source and target
// systems are the identity.
func (t *Transformer) XY(x, y float64) (float64, float64, error) {
	if t.src.SRID == t.dst.SRID {
		return x, y, nil
	}

	lon, lat := x, y
	if t.src.proj != nil {
		var err error
		lon, lat, err = t.src.proj.inverse(x, y)
		if err != nil {
			return 0, 0, eris.Wrapf(err, "crs: invert %s", t.src)
		}
	}

	if t.dst.proj == nil {
		return lon, lat, nil
	}
	x2, y2, err := t.dst.proj.forward(lon, lat)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crs: project into %s", t.dst)
	}
	return x2, y2, nil
}

// FlatCoords converts a go-geom flat coordinate array and returns a new
// slice; the input is untouched. Only the first two ordinates of each
// stride are transformed, so Z and M values pass through.
func (t *Transformer) FlatCoords(fc []float64, stride int) ([]float64, error) {
	if stride < 2 {
		return nil, eris.Errorf("crs: stride %d too small for XY coordinates", stride)
	}
	out := make([]float64, len(fc))
	copy(out, fc)
	for i := 0; i+1 < len(out); i += stride {
		x, y, err := t.XY(out[i], out[i+1])
		if err != nil {
			return nil, err
		}
		out[i], out[i+1] = x, y
	}
	return out, nil
}

// Geom transforms a geometry into the target system. The result is a
// new geometry tagged with the target SRID; the input is not modified.
func (t *Transformer) Geom(g geom.T) (geom.T, error) {
	switch g := g.(type) {
	case *geom.Point:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewPointFlat(g.Layout(), fc).SetSRID(t.dst.SRID), nil

	case *geom.LineString:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewLineStringFlat(g.Layout(), fc).SetSRID(t.dst.SRID), nil

	case *geom.LinearRing:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewLinearRingFlat(g.Layout(), fc).SetSRID(t.dst.SRID), nil

	case *geom.Polygon:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewPolygonFlat(g.Layout(), fc, g.Ends()).SetSRID(t.dst.SRID), nil

	case *geom.MultiPoint:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewMultiPointFlat(g.Layout(), fc).SetSRID(t.dst.SRID), nil

	case *geom.MultiLineString:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewMultiLineStringFlat(g.Layout(), fc, g.Ends()).SetSRID(t.dst.SRID), nil

	case *geom.MultiPolygon:
		fc, err := t.FlatCoords(g.FlatCoords(), g.Stride())
		if err != nil {
			return nil, err
		}
		return geom.NewMultiPolygonFlat(g.Layout(), fc, g.Endss()).SetSRID(t.dst.SRID), nil

	case *geom.GeometryCollection:
		out := geom.NewGeometryCollection()
		for _, sub := range g.Geoms() {
			tg, err := t.Geom(sub)
			if err != nil {
				return nil, err
			}
			if err := out.Push(tg); err != nil {
				return nil, eris.Wrap(err, "crs: rebuild geometry collection")
			}
		}
		out.SetSRID(t.dst.SRID)
		return out, nil

	default:
		return nil, eris.Errorf("crs: unsupported geometry type %T", g)
	}
}

// Transform converts g from src to dst in one call.
func Transform(g geom.T, src, dst CRS) (geom.T, error) {
	tr, err := NewTransformer(src, dst)
	if err != nil {
		return nil, err
	}
	return tr.Geom(g)
}
