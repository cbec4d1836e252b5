package ingest

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geotable/internal/geotable"
)

// ReadGeoJSON decodes a FeatureCollection into a table tagged with the
// given SRID (GeoJSON itself carries WGS 84 by convention, so callers
// normally pass 4326). Column types follow JSON: numbers become floats,
// the rest map directly. The column set is the union of all property
// keys, sorted for a stable layout.
func ReadGeoJSON(r io.Reader, srid int) (*geotable.Table, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode geojson")
	}

	t := geotable.New("geometry", srid)
	for _, name := range geojsonColumns(&fc) {
		if err := t.AddColumn(name, geojsonColumnType(&fc, name)); err != nil {
			return nil, eris.Wrap(err, "ingest: geojson")
		}
	}

	for i, f := range fc.Features {
		attrs := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			if v == nil {
				continue
			}
			if t.Column(k).Type == geotable.TypeString {
				attrs[k] = stringifyProperty(v)
			} else {
				attrs[k] = v
			}
		}
		g := f.Geometry
		if g != nil && g.SRID() == 0 && srid != 0 {
			g = setSRID(g, srid)
		}
		if err := t.Append(attrs, g); err != nil {
			return nil, eris.Wrapf(err, "ingest: geojson feature %d", i)
		}
	}
	return t, nil
}

func setSRID(g geom.T, srid int) geom.T {
	switch g := g.(type) {
	case *geom.Point:
		return g.SetSRID(srid)
	case *geom.LineString:
		return g.SetSRID(srid)
	case *geom.Polygon:
		return g.SetSRID(srid)
	case *geom.MultiPoint:
		return g.SetSRID(srid)
	case *geom.MultiLineString:
		return g.SetSRID(srid)
	case *geom.MultiPolygon:
		return g.SetSRID(srid)
	case *geom.GeometryCollection:
		return g.SetSRID(srid)
	}
	return g
}

// geojsonColumnType scans every feature carrying the property. A
// column whose non-null values all share one JSON type keeps it; any
// mix widens to string, the same fallback the CSV reader uses.
func geojsonColumnType(fc *geojson.FeatureCollection, name string) geotable.ColType {
	typ := geotable.TypeString
	seen := false
	for _, f := range fc.Features {
		v, ok := f.Properties[name]
		if !ok || v == nil {
			continue
		}
		var this geotable.ColType
		switch v.(type) {
		case bool:
			this = geotable.TypeBool
		case float64:
			this = geotable.TypeFloat
		default:
			this = geotable.TypeString
		}
		if !seen {
			typ, seen = this, true
			continue
		}
		if this != typ {
			return geotable.TypeString
		}
	}
	return typ
}

// stringifyProperty renders a property for a string column. Non-string
// values keep their JSON notation.
func stringifyProperty(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func geojsonColumns(fc *geojson.FeatureCollection) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, f := range fc.Features {
		for k := range f.Properties {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
