package core

import (
	"github.com/geosignals/quake-locator/model"
)

// TravelTime returns the propagation time in seconds from point p to the
// given station position at uniform speed v (m/s). A zero distance is
// well-defined and contributes zero travel time.
func TravelTime(station, p model.Vec3, v float64) float64 {
	return station.DistanceTo(p) / v
}

// PredictedRelTimes returns the travel time from candidate point p to each
// station minus the travel time to the reference station, in station order.
// The entry at refIndex is exactly zero.
func PredictedRelTimes(p model.Vec3, stations []model.Station, v float64, refIndex int) []float64 {
	tRef := TravelTime(stations[refIndex].Position, p, v)
	rel := make([]float64, len(stations))
	for i, s := range stations {
		rel[i] = TravelTime(s.Position, p, v) - tRef
	}
	return rel
}

// Residuals returns predicted minus measured relative arrival times for
// candidate point p, one entry per station. It is pure and deterministic for
// identical inputs; the solver calls it many times per iteration.
func Residuals(p model.Vec3, stations []model.Station, measuredRelTimes []float64, v float64, refIndex int) []float64 {
	res := PredictedRelTimes(p, stations, v, refIndex)
	for i := range res {
		res[i] -= measuredRelTimes[i]
	}
	return res
}
