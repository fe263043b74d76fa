package domain

// FeatureCollection is the GeoJSON payload behind the participant map.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON point feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Geometry holds a point's coordinates in GeoJSON [lon, lat] order.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// ToFeatureCollection builds the map layer from geocoded submissions.
// Rows without coordinates are omitted, so the map only ever shows postal
// codes that resolved.
func ToFeatureCollection(subs []Submission) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
	for _, s := range subs {
		if s.Geo == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{s.Geo.Lon, s.Geo.Lat},
			},
			Properties: map[string]any{
				"row":         s.Row,
				"postal_code": s.PostalCode,
			},
		})
	}
	return fc
}
