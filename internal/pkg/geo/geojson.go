package geo

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/openjordan/healthatlas/internal/domain"
)

type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
)

const defaultCRS = "EPSG:4326"

// FieldMap names the property columns that carry each attribute. The source
// layers come out of desktop spatial joins with auto-generated, prefixed
// column names, so nothing is hardcoded here.
type FieldMap struct {
	NameAr     string
	NameEn     string
	Wikidata   string
	ParentName string
	Population string // optional; empty means the layer carries no population column
}

// Record is one polygon feature with the attributes the pipeline consumes,
// plus the untouched property bag for audit and re-export.
type Record struct {
	NameAr     string
	NameEn     string
	Wikidata   string
	ParentName string
	Population *float64
	Geometry   domain.Geometry
	Properties map[string]interface{}
}

type featureCollection struct {
	Type     string     `json:"type"`
	Name     string     `json:"name,omitempty"`
	CRS      *namedCRS  `json:"crs,omitempty"`
	Features []*feature `json:"features"`
}

type namedCRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

type feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   *featureGeometry       `json:"geometry"`
}

type featureGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// LoadPolygons reads a GeoJSON FeatureCollection and maps each feature to a
// Record via fields. Bounding boxes are computed on load.
func LoadPolygons(path string, fields FieldMap) ([]*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	var fc featureCollection
	if err := sonic.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("sonic.Unmarshal %s: %w", path, err)
	}

	crs := defaultCRS
	if fc.CRS != nil {
		if name, ok := fc.CRS.Properties["name"]; ok && name != "" {
			crs = name
		}
	}

	records := make([]*Record, 0, len(fc.Features))
	for i, feat := range fc.Features {
		if feat.Geometry == nil {
			return nil, fmt.Errorf("feature %d in %s has no geometry", i, path)
		}

		rings, err := parseRings(feat.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d in %s: %w", i, path, err)
		}

		geometry := domain.Geometry{CRS: crs, Rings: rings}
		geometry.ComputeBBox()

		record := &Record{
			NameAr:     stringProp(feat.Properties, fields.NameAr),
			NameEn:     stringProp(feat.Properties, fields.NameEn),
			Wikidata:   stringProp(feat.Properties, fields.Wikidata),
			ParentName: stringProp(feat.Properties, fields.ParentName),
			Geometry:   geometry,
			Properties: feat.Properties,
		}

		if fields.Population != "" {
			if v, ok := floatProp(feat.Properties, fields.Population); ok {
				record.Population = &v
			}
		}

		records = append(records, record)
	}

	return records, nil
}

// parseRings accepts Polygon and MultiPolygon coordinate arrays, flattening
// multi-part geometries into one ring list.
func parseRings(g *featureGeometry) ([]domain.Ring, error) {
	coords, err := sonic.Marshal(g.Coordinates)
	if err != nil {
		return nil, err
	}

	switch g.Type {
	case "Polygon":
		var raw [][][]float64
		if err := sonic.Unmarshal(coords, &raw); err != nil {
			return nil, fmt.Errorf("polygon coordinates: %w", err)
		}
		return toRings(raw), nil
	case "MultiPolygon":
		var raw [][][][]float64
		if err := sonic.Unmarshal(coords, &raw); err != nil {
			return nil, fmt.Errorf("multipolygon coordinates: %w", err)
		}
		var rings []domain.Ring
		for _, poly := range raw {
			rings = append(rings, toRings(poly)...)
		}
		return rings, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func toRings(raw [][][]float64) []domain.Ring {
	rings := make([]domain.Ring, 0, len(raw))
	for _, rawRing := range raw {
		ring := make(domain.Ring, 0, len(rawRing))
		for _, pos := range rawRing {
			if len(pos) < 2 {
				continue
			}
			ring = append(ring, domain.Point{Lon: pos[0], Lat: pos[1]})
		}
		rings = append(rings, ring)
	}
	return rings
}

func stringProp(props map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func floatProp(props map[string]interface{}, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
