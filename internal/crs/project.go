package crs

import (
	"math"

	"github.com/rotisserie/eris"
)

// WGS 84 ellipsoid. NAD83 shares it to within centimetres, so the two
// geographic systems are treated as interchangeable here; datum shifts
// are out of scope.
const (
	semiMajor  = 6378137.0
	flattening = 1 / 298.257223563
)

// projection converts geographic WGS 84 coordinates (lon/lat degrees)
// to and from planar coordinates (metres).
type projection interface {
	forward(lon, lat float64) (x, y float64, err error)
	inverse(x, y float64) (lon, lat float64, err error)
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(rad float64) float64 { return rad * 180 / math.Pi }

// maxMercatorLat is the latitude at which the Web Mercator square cuts off.
const maxMercatorLat = 85.05112878

// webMercator is the spherical EPSG:3857 projection used by web tiles.
type webMercator struct{}

func (webMercator) forward(lon, lat float64) (float64, float64, error) {
	if math.Abs(lat) > maxMercatorLat {
		return 0, 0, eris.Errorf("crs: latitude %.6f outside Web Mercator domain (|lat| <= %.6f)", lat, maxMercatorLat)
	}
	if math.Abs(lon) > 180 {
		return 0, 0, eris.Errorf("crs: longitude %.6f out of range", lon)
	}
	x := semiMajor * rad(lon)
	y := semiMajor * math.Log(math.Tan(math.Pi/4+rad(lat)/2))
	return x, y, nil
}

func (webMercator) inverse(x, y float64) (float64, float64, error) {
	lon := deg(x / semiMajor)
	lat := deg(2*math.Atan(math.Exp(y/semiMajor)) - math.Pi/2)
	return lon, lat, nil
}

// zoneTolerance is how far outside its 6 degree zone a UTM projection
// will still accept input. One full neighboring zone of overlap covers
// datasets that straddle a boundary.
const zoneTolerance = 6.0

// transverseMercator implements the UTM variant of the Transverse
// Mercator projection using the series expansions from Snyder, "Map
// Projections: A Working Manual", USGS PP 1395.
type transverseMercator struct {
	zone   int
	lon0   float64
	k0     float64
	falseE float64
	falseN float64
}

func newTransverseMercator(zone int, south bool) transverseMercator {
	tm := transverseMercator{
		zone:   zone,
		lon0:   float64(zone*6 - 183),
		k0:     0.9996,
		falseE: 500000,
	}
	if south {
		tm.falseN = 1e7
	}
	return tm
}

func (tm transverseMercator) forward(lon, lat float64) (float64, float64, error) {
	if d := math.Abs(lon - tm.lon0); d > 3+zoneTolerance {
		return 0, 0, eris.Errorf("crs: longitude %.6f too far from UTM zone %d central meridian %.1f", lon, tm.zone, tm.lon0)
	}
	if math.Abs(lat) > 84 {
		return 0, 0, eris.Errorf("crs: latitude %.6f outside UTM domain (|lat| <= 84)", lat)
	}

	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	phi := rad(lat)
	sinP, cosP := math.Sin(phi), math.Cos(phi)
	tanP := sinP / cosP

	n := semiMajor / math.Sqrt(1-e2*sinP*sinP)
	t := tanP * tanP
	c := ep2 * cosP * cosP
	a := cosP * (rad(lon) - rad(tm.lon0))

	m := meridianArc(phi, e2)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x := tm.k0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*ep2)*a5/120) + tm.falseE
	y := tm.k0*(m+n*tanP*(a2/2+(5-t+9*c+4*c*c)*a4/24+(61-58*t+t*t+600*c-330*ep2)*a6/720)) + tm.falseN
	return x, y, nil
}

func (tm transverseMercator) inverse(x, y float64) (float64, float64, error) {
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	x -= tm.falseE
	y -= tm.falseN

	m := y / tm.k0
	mu := m / (semiMajor * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinP1, cosP1 := math.Sin(phi1), math.Cos(phi1)
	tanP1 := sinP1 / cosP1

	c1 := ep2 * cosP1 * cosP1
	t1 := tanP1 * tanP1
	sin2 := sinP1 * sinP1
	n1 := semiMajor / math.Sqrt(1-e2*sin2)
	r1 := semiMajor * (1 - e2) / math.Pow(1-e2*sin2, 1.5)
	d := x / (n1 * tm.k0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanP1/r1)*
		(d2/2-(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
			(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
	lam := rad(tm.lon0) +
		(d-(1+2*t1+c1)*d3/6+
			(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cosP1

	return deg(lam), deg(phi), nil
}

// meridianArc returns the ellipsoidal meridian distance from the
// equator to latitude phi.
func meridianArc(phi, e2 float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return semiMajor * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}
