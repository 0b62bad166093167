package model

import "fmt"

// MinStations is the smallest station count that constrains an unambiguous
// 3D solve.
const MinStations = 4

// ScenarioConfig describes how a synthetic localization scenario is drawn.
// Depth bounds are positive magnitudes; generated event depths are negative Z.
type ScenarioConfig struct {
	// StationCount is the number of stations n, n >= MinStations.
	StationCount int
	// RadiusM is the placement disk radius in metres for stations and the
	// true event epicentre.
	RadiusM float64
	// DepthMinM and DepthMaxM bound the true event depth in metres,
	// expressed as positive magnitudes, DepthMinM <= DepthMaxM.
	DepthMinM float64
	DepthMaxM float64
	// VelocityMS is the uniform propagation speed in m/s, > 0.
	VelocityMS float64
	// NoiseStdS is the standard deviation in seconds of the zero-mean
	// Gaussian perturbation applied to each station's travel time, >= 0.
	NoiseStdS float64
}

// Validate checks the configuration, returning a descriptive error for the
// first violated constraint.
func (c ScenarioConfig) Validate() error {
	if c.StationCount < MinStations {
		return fmt.Errorf("station count %d below minimum %d", c.StationCount, MinStations)
	}
	if c.RadiusM <= 0 {
		return fmt.Errorf("placement radius must be positive, got %g", c.RadiusM)
	}
	if c.DepthMinM < 0 || c.DepthMaxM < 0 {
		return fmt.Errorf("depth bounds must be positive magnitudes, got [%g, %g]", c.DepthMinM, c.DepthMaxM)
	}
	if c.DepthMinM > c.DepthMaxM {
		return fmt.Errorf("depth lower bound %g exceeds upper bound %g", c.DepthMinM, c.DepthMaxM)
	}
	if c.VelocityMS <= 0 {
		return fmt.Errorf("propagation speed must be positive, got %g", c.VelocityMS)
	}
	if c.NoiseStdS < 0 {
		return fmt.Errorf("noise standard deviation must be non-negative, got %g", c.NoiseStdS)
	}
	return nil
}

// Scenario is one synthetic localization problem together with its ground
// truth. Stations and TruePoint are immutable after generation; the
// relative-time vector is derived data and is redrawn with the noise.
type Scenario struct {
	Config ScenarioConfig

	Stations  []Station
	TruePoint Vec3

	// TravelTimes are the noise-free travel times in seconds, one per
	// station, in station order.
	TravelTimes []float64
	// NoisyTravelTimes are TravelTimes with the Gaussian perturbation
	// applied independently per station.
	NoisyTravelTimes []float64
	// MeasuredRelTimes are NoisyTravelTimes relative to the reference
	// station: noisy[i] - noisy[RefIndex]. The entry at RefIndex is exactly
	// zero only before noise is applied.
	MeasuredRelTimes []float64
	// RefIndex is the station whose receipt event defines t = 0. It is
	// chosen as the argmin of the noise-free travel times and never
	// recomputed mid-solve.
	RefIndex int
}
