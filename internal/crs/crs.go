// Package crs models coordinate reference systems and explicit
// transformations between them. Reprojection is always a deliberate
// operation: nothing in this package changes coordinates as a side
// effect of another call.
package crs

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Kind distinguishes geographic (angular) from projected (planar) systems.
type Kind string

const (
	Geographic Kind = "geographic"
	Projected  Kind = "projected"
)

// ErrUndefined is returned when an operation requires a real coordinate
// reference system and got the zero CRS. Computing with an undefined
// system would produce silently wrong numbers, so callers get an error
// instead.
var ErrUndefined = eris.New("crs: undefined coordinate reference system")

// CRS describes a coordinate reference system. The zero value is the
// undefined system.
type CRS struct {
	SRID int
	Name string
	Kind Kind
	Unit string

	proj projection
}

// Defined reports whether c refers to a registered system.
func (c CRS) Defined() bool { return c.SRID != 0 }

// IsGeographic reports whether coordinates in c are angular degrees.
func (c CRS) IsGeographic() bool { return c.Kind == Geographic }

func (c CRS) String() string {
	if !c.Defined() {
		return "undefined"
	}
	return fmt.Sprintf("EPSG:%d (%s)", c.SRID, c.Name)
}

//go:embed registry.yaml
var registryYAML []byte

type registryEntry struct {
	SRID       int    `yaml:"srid"`
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Unit       string `yaml:"unit"`
	Projection string `yaml:"projection"`
}

var (
	registryOnce sync.Once
	registry     map[int]CRS
	registryErr  error
)

func loadRegistry() {
	var entries []registryEntry
	if err := yaml.Unmarshal(registryYAML, &entries); err != nil {
		registryErr = eris.Wrap(err, "crs: parse registry")
		return
	}

	registry = make(map[int]CRS, len(entries))
	for _, e := range entries {
		c := CRS{SRID: e.SRID, Name: e.Name, Kind: Kind(e.Kind), Unit: e.Unit}
		switch e.Projection {
		case "":
			// geographic systems have no projection
		case "webmercator":
			c.proj = webMercator{}
		default:
			registryErr = eris.Errorf("crs: registry entry %d: unknown projection %q", e.SRID, e.Projection)
			return
		}
		registry[e.SRID] = c
	}
}

// FromSRID resolves a built-in system by EPSG code. WGS 84 UTM zones
// (EPSG:32601-32660 north, EPSG:32701-32760 south) are synthesized from
// the code rather than listed in the registry file.
func FromSRID(srid int) (CRS, error) {
	registryOnce.Do(loadRegistry)
	if registryErr != nil {
		return CRS{}, registryErr
	}

	if c, ok := registry[srid]; ok {
		return c, nil
	}

	if zone, south, ok := utmZone(srid); ok {
		hemi := "N"
		if south {
			hemi = "S"
		}
		return CRS{
			SRID: srid,
			Name: fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, hemi),
			Kind: Projected,
			Unit: "metre",
			proj: newTransverseMercator(zone, south),
		}, nil
	}

	return CRS{}, eris.Errorf("crs: unknown SRID %d", srid)
}

// Parse resolves an authority string such as "EPSG:3857". A bare
// numeric code is accepted as shorthand.
func Parse(s string) (CRS, error) {
	code := strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToUpper(code), "EPSG:"); ok {
		code = rest
	}
	srid, err := strconv.Atoi(code)
	if err != nil {
		return CRS{}, eris.Errorf("crs: cannot parse %q as an EPSG code", s)
	}
	return FromSRID(srid)
}

func utmZone(srid int) (zone int, south bool, ok bool) {
	switch {
	case srid >= 32601 && srid <= 32660:
		return srid - 32600, false, true
	case srid >= 32701 && srid <= 32760:
		return srid - 32700, true, true
	}
	return 0, false, false
}
