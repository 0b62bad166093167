package model

// Station is a fixed seismic receiver. Stations never move once a scenario
// has been generated.
type Station struct {
	ID       string
	Position Vec3
}

// StationPositions extracts the positions of a station slice, preserving
// order. Station order defines the index used by relative-time vectors and
// must not be re-sorted.
func StationPositions(stations []Station) []Vec3 {
	positions := make([]Vec3, len(stations))
	for i, s := range stations {
		positions[i] = s.Position
	}
	return positions
}
