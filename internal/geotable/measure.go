package geotable

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geotable/internal/crs"
)

// ErrGeographicArea is returned when a planar measure is requested on
// angular coordinates. Degrees squared is not an area; reproject first.
var ErrGeographicArea = eris.New("geotable: area is not defined on geographic coordinates; reproject to a planar CRS first")

// meanEarthRadius in metres, for great-circle distances.
const meanEarthRadius = 6371008.8

// Anchor returns a representative coordinate for row i: the coordinate
// itself for points, the bounding-box center otherwise. ok is false
// for empty geometries.
func (t *Table) Anchor(i int) (x, y float64, ok bool) {
	g := t.geoms[i]
	if g == nil || len(g.FlatCoords()) == 0 {
		return 0, 0, false
	}
	if p, isPoint := g.(*geom.Point); isPoint {
		fc := p.FlatCoords()
		return fc[0], fc[1], true
	}
	b := g.Bounds()
	return (b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2, true
}

// Distance measures between the anchors of rows i and j: great-circle
// metres for a geographic CRS, planar units for a projected one. A
// table without a CRS returns ErrNoCRS rather than a wrong number.
func (t *Table) Distance(i, j int) (float64, error) {
	if t.srid == 0 {
		return 0, ErrNoCRS
	}
	c, err := crs.FromSRID(t.srid)
	if err != nil {
		return 0, err
	}

	x1, y1, ok1 := t.Anchor(i)
	x2, y2, ok2 := t.Anchor(j)
	if !ok1 || !ok2 {
		return 0, eris.Errorf("geotable: distance between rows %d and %d: empty geometry", i, j)
	}

	if c.IsGeographic() {
		return haversine(x1, y1, x2, y2), nil
	}
	dx, dy := x2-x1, y2-y1
	return math.Sqrt(dx*dx + dy*dy), nil
}

// Area returns the planar area of row i's geometry in squared CRS
// units. Only polygonal geometries have area; everything else is 0.
// Geographic coordinates are rejected with ErrGeographicArea.
func (t *Table) Area(i int) (float64, error) {
	if t.srid == 0 {
		return 0, ErrNoCRS
	}
	c, err := crs.FromSRID(t.srid)
	if err != nil {
		return 0, err
	}
	if c.IsGeographic() {
		return 0, ErrGeographicArea
	}
	return planarArea(t.geoms[i]), nil
}

func planarArea(g geom.T) float64 {
	switch g := g.(type) {
	case *geom.Polygon:
		return polygonArea(g.FlatCoords(), g.Ends(), g.Stride())
	case *geom.MultiPolygon:
		total := 0.0
		for i := 0; i < g.NumPolygons(); i++ {
			p := g.Polygon(i)
			total += polygonArea(p.FlatCoords(), p.Ends(), p.Stride())
		}
		return total
	case *geom.GeometryCollection:
		total := 0.0
		for _, sub := range g.Geoms() {
			total += planarArea(sub)
		}
		return total
	default:
		return 0
	}
}

// polygonArea applies the shoelace formula: the exterior ring counts
// positive, interior rings (holes) subtract.
func polygonArea(fc []float64, ends []int, stride int) float64 {
	total := 0.0
	start := 0
	for ri, end := range ends {
		a := math.Abs(ringArea(fc[start:end], stride))
		if ri == 0 {
			total += a
		} else {
			total -= a
		}
		start = end
	}
	return total
}

func ringArea(fc []float64, stride int) float64 {
	n := len(fc) / stride
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := fc[i*stride], fc[i*stride+1]
		xj, yj := fc[j*stride], fc[j*stride+1]
		sum += xi*yj - xj*yi
	}
	return sum / 2
}

func haversine(lon1, lat1, lon2, lat2 float64) float64 {
	toRad := math.Pi / 180
	p1, p2 := lat1*toRad, lat2*toRad
	dp := (lat2 - lat1) * toRad
	dl := (lon2 - lon1) * toRad

	a := math.Sin(dp/2)*math.Sin(dp/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * meanEarthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
