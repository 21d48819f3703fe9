package models

// SurfaceType is the playing surface of a court.
type SurfaceType string

const (
	SurfaceHard   SurfaceType = "Hard"
	SurfaceClay   SurfaceType = "Clay"
	SurfaceGrass  SurfaceType = "Grass"
	SurfaceCarpet SurfaceType = "Carpet"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Court is a venue. PlayerCount is derived from active check-ins and is
// never persisted.
type Court struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	SurfaceType SurfaceType `json:"surface_type"`
	Hours       string      `json:"hours"`
	Coordinate
	Amenities   []string `json:"amenities"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	PlayerCount int      `json:"player_count"`

	// Discovered marks a court synthesized from a postal-code search.
	Discovered bool `json:"discovered,omitempty"`
}

// NearbyCourt pairs a court with its distance from a reference point.
type NearbyCourt struct {
	Court
	DistanceKm float64 `json:"distance_km"`
}
