package core

import "github.com/geosignals/quake-locator/model"

// BuildReport assembles the structured output consumed by external reporters
// and plotters: station layout, the estimate, per-station predicted travel
// times at the estimate, residuals, and the termination outcome. truePoint
// may be nil for non-validation runs; when present the Euclidean estimation
// error is included.
func BuildReport(stations []model.Station, measuredRelTimes []float64, v float64, refIndex int, sol *model.Solution, truePoint *model.Vec3) *model.LocationReport {
	predicted := make([]float64, len(stations))
	for i, s := range stations {
		predicted[i] = TravelTime(s.Position, sol.Estimate, v)
	}

	report := &model.LocationReport{
		Stations:              stations,
		Estimate:              sol.Estimate,
		PredictedTravelTimesS: predicted,
		ResidualsS:            Residuals(sol.Estimate, stations, measuredRelTimes, v, refIndex),
		RefIndex:              refIndex,
		Status:                sol.Status,
		Converged:             sol.Converged,
		Iterations:            sol.Iterations,
		FinalCost:             sol.FinalCost,
	}

	if truePoint != nil {
		tp := *truePoint
		errM := LocationError(tp, sol.Estimate)
		report.TruePoint = &tp
		report.ErrorM = &errM
	}
	return report
}
