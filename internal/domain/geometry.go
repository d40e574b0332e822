package domain

type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type Ring []Point

// Geometry is a GeoJSON-style polygon: the first ring is the outer boundary,
// any further rings are holes. Coordinates are in the declared CRS.
type Geometry struct {
	CRS   string     `json:"crs"`
	Rings []Ring     `json:"rings"`
	BBox  [4]float64 `json:"bbox"` // minLon, minLat, maxLon, maxLat
}

func (g *Geometry) ComputeBBox() {
	if len(g.Rings) == 0 || len(g.Rings[0]) == 0 {
		g.BBox = [4]float64{}
		return
	}

	first := g.Rings[0][0]
	bbox := [4]float64{first.Lon, first.Lat, first.Lon, first.Lat}
	for _, ring := range g.Rings {
		for _, p := range ring {
			if p.Lon < bbox[0] {
				bbox[0] = p.Lon
			}
			if p.Lat < bbox[1] {
				bbox[1] = p.Lat
			}
			if p.Lon > bbox[2] {
				bbox[2] = p.Lon
			}
			if p.Lat > bbox[3] {
				bbox[3] = p.Lat
			}
		}
	}
	g.BBox = bbox
}

// FitsWithin reports whether g's bounding box lies inside parent's bounding
// box, allowing it to stick out by at most tol on any side. tol is in the
// units of the CRS.
func (g *Geometry) FitsWithin(parent *Geometry, tol float64) bool {
	if len(g.Rings) == 0 || len(parent.Rings) == 0 {
		return true
	}

	return g.BBox[0] >= parent.BBox[0]-tol &&
		g.BBox[1] >= parent.BBox[1]-tol &&
		g.BBox[2] <= parent.BBox[2]+tol &&
		g.BBox[3] <= parent.BBox[3]+tol
}
