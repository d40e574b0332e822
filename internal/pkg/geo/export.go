package geo

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/openjordan/healthatlas/internal/domain"
)

// SavePolygons writes records to path. FormatGeoJSON keeps the geometry;
// FormatCSV drops it and exports the attribute columns only, mirroring the
// attribute-table exports of the source data.
func SavePolygons(path string, records []*Record, format Format) error {
	switch format {
	case FormatGeoJSON:
		return saveGeoJSON(path, records)
	case FormatCSV:
		return saveCSV(path, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func saveGeoJSON(path string, records []*Record) error {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]*feature, 0, len(records)),
	}

	for _, record := range records {
		fc.Features = append(fc.Features, &feature{
			Type:       "Feature",
			Properties: record.Properties,
			Geometry: &featureGeometry{
				Type:        "Polygon",
				Coordinates: fromRings(record.Geometry.Rings),
			},
		})
	}

	raw, err := sonic.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("sonic.Marshal: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}

	return nil
}

func saveCSV(path string, records []*Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name_ar", "name_en", "wikidata", "parent", "population"}); err != nil {
		return err
	}

	for _, record := range records {
		population := ""
		if record.Population != nil {
			population = strconv.FormatFloat(*record.Population, 'f', -1, 64)
		}

		row := []string{record.NameAr, record.NameEn, record.Wikidata, record.ParentName, population}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fromRings(rings []domain.Ring) [][][]float64 {
	raw := make([][][]float64, 0, len(rings))
	for _, ring := range rings {
		rawRing := make([][]float64, 0, len(ring))
		for _, p := range ring {
			rawRing = append(rawRing, []float64{p.Lon, p.Lat})
		}
		raw = append(raw, rawRing)
	}
	return raw
}
