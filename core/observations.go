package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/geosignals/quake-locator/model"
)

// ObservationSet is a localization problem read from an external source
// rather than synthesized: a fixed station layout and the measured relative
// arrival times recorded against it.
type ObservationSet struct {
	Stations         []model.Station
	MeasuredRelTimes []float64
	VelocityMS       float64
	RefIndex         int
}

// internal JSON shapes – kept unexported so we're free to evolve them.
type observationsJSON struct {
	VelocityMS     float64       `json:"velocity_ms"`
	RefIndex       *int          `json:"ref_index"` // optional; derived from measurements when absent
	Stations       []stationJSON `json:"stations"`
	RelativeTimesS []float64     `json:"relative_times_s"`
}

type stationJSON struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// LoadObservations reads a JSON observation set from r and validates its
// structure. Station order in the document is significant and preserved.
//
// When the document does not name a reference index explicitly, the station
// with the minimum measured relative time is used. That is the only
// convention available for real data, where the true travel times are
// unknown; it differs from the synthetic generator, which fixes the
// reference from noise-free times.
func LoadObservations(r io.Reader) (*ObservationSet, error) {
	var payload observationsJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadObservations: decode failed: %w", err)
	}

	if payload.VelocityMS <= 0 {
		return nil, fmt.Errorf("LoadObservations: %w: velocity_ms must be positive, got %g", ErrInvalidConfiguration, payload.VelocityMS)
	}
	if len(payload.Stations) < model.MinStations {
		return nil, fmt.Errorf("LoadObservations: %w: need at least %d stations, got %d", ErrInvalidConfiguration, model.MinStations, len(payload.Stations))
	}
	if len(payload.RelativeTimesS) != len(payload.Stations) {
		return nil, fmt.Errorf("LoadObservations: %w: %d stations but %d relative times", ErrInvalidConfiguration, len(payload.Stations), len(payload.RelativeTimesS))
	}

	stations := make([]model.Station, len(payload.Stations))
	for i, js := range payload.Stations {
		if js.ID == "" {
			return nil, fmt.Errorf("LoadObservations: station %d has empty id", i)
		}
		stations[i] = model.Station{
			ID:       js.ID,
			Position: model.Vec3{X: js.X, Y: js.Y, Z: js.Z},
		}
	}

	refIndex := 0
	if payload.RefIndex != nil {
		refIndex = *payload.RefIndex
		if refIndex < 0 || refIndex >= len(stations) {
			return nil, fmt.Errorf("LoadObservations: %w: ref_index %d out of range [0, %d)", ErrInvalidConfiguration, refIndex, len(stations))
		}
	} else {
		for i, t := range payload.RelativeTimesS {
			if t < payload.RelativeTimesS[refIndex] {
				refIndex = i
			}
		}
	}

	return &ObservationSet{
		Stations:         stations,
		MeasuredRelTimes: payload.RelativeTimesS,
		VelocityMS:       payload.VelocityMS,
		RefIndex:         refIndex,
	}, nil
}
