package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geotable/internal/geotable"
)

type geojsonFeature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type geojsonCollection struct {
	Type     string           `json:"type"`
	Features []geojsonFeature `json:"features"`
}

// WriteGeoJSON encodes a table as a FeatureCollection. Null attributes
// serialize as JSON nulls and empty geometries as null geometries, so
// a round trip through the GeoJSON reader preserves the table.
func WriteGeoJSON(w io.Writer, t *geotable.Table) error {
	fc := geojsonCollection{
		Type:     "FeatureCollection",
		Features: make([]geojsonFeature, 0, t.Len()),
	}

	cols := t.Columns()
	for i := 0; i < t.Len(); i++ {
		f := geojsonFeature{Type: "Feature", Properties: make(map[string]any, len(cols))}
		for _, name := range cols {
			f.Properties[name] = t.Column(name).Value(i)
		}
		if g := t.Geom(i); g != nil {
			enc, err := geojson.Encode(g)
			if err != nil {
				return eris.Wrapf(err, "export: geojson row %d", i)
			}
			f.Geometry = enc
		}
		fc.Features = append(fc.Features, f)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
