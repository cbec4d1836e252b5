package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geotable/internal/geotable"
)

// ReadCSV loads a delimited file whose xCol/yCol columns hold point
// coordinates. The coordinate columns are consumed into the geometry;
// the remaining columns keep the narrowest type that fits every value
// (int, then float, then bool, falling back to string). Empty cells
// are nulls, and rows with a missing or unparsable coordinate get an
// empty geometry.
func ReadCSV(r io.Reader, xCol, yCol string, srid int) (*geotable.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("ingest: csv has no header row")
	}

	header := records[0]
	records = records[1:]

	xIdx, yIdx := -1, -1
	for i, name := range header {
		switch name {
		case xCol:
			xIdx = i
		case yCol:
			yIdx = i
		}
	}
	if xIdx < 0 || yIdx < 0 {
		return nil, eris.Errorf("ingest: csv is missing coordinate columns %q/%q", xCol, yCol)
	}

	t := geotable.New("geometry", srid)
	for i, name := range header {
		if i == xIdx || i == yIdx {
			continue
		}
		if err := t.AddColumn(name, inferCSVType(records, i)); err != nil {
			return nil, eris.Wrap(err, "ingest: csv")
		}
	}

	for rowNum, rec := range records {
		if len(rec) != len(header) {
			return nil, eris.Errorf("ingest: csv row %d has %d fields, want %d", rowNum+1, len(rec), len(header))
		}

		attrs := make(map[string]any, len(header)-2)
		for i, name := range header {
			if i == xIdx || i == yIdx {
				continue
			}
			raw := strings.TrimSpace(rec[i])
			if raw == "" {
				continue
			}
			v, err := parseCSVValue(raw, t.Column(name).Type)
			if err != nil {
				return nil, eris.Wrapf(err, "ingest: csv row %d column %s", rowNum+1, name)
			}
			attrs[name] = v
		}

		var g geom.T
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[xIdx]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[yIdx]), 64)
		if errX == nil && errY == nil {
			g = geom.NewPointFlat(geom.XY, []float64{x, y}).SetSRID(srid)
		}

		if err := t.Append(attrs, g); err != nil {
			return nil, eris.Wrapf(err, "ingest: csv row %d", rowNum+1)
		}
	}
	return t, nil
}

// inferCSVType scans one column over all records. Non-empty values must
// all parse as the candidate type for it to hold.
func inferCSVType(records [][]string, col int) geotable.ColType {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, rec := range records {
		if col >= len(rec) {
			continue
		}
		raw := strings.TrimSpace(rec[col])
		if raw == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			isFloat = false
		}
		if _, err := strconv.ParseBool(raw); err != nil {
			isBool = false
		}
	}
	switch {
	case !seen:
		return geotable.TypeString
	case isInt:
		return geotable.TypeInt
	case isFloat:
		return geotable.TypeFloat
	case isBool:
		return geotable.TypeBool
	}
	return geotable.TypeString
}

func parseCSVValue(raw string, typ geotable.ColType) (any, error) {
	switch typ {
	case geotable.TypeInt:
		return strconv.ParseInt(raw, 10, 64)
	case geotable.TypeFloat:
		return strconv.ParseFloat(raw, 64)
	case geotable.TypeBool:
		return strconv.ParseBool(raw)
	}
	return raw, nil
}
