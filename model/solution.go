package model

// TerminationStatus describes how a solve ended. Callers must be able to
// distinguish these outcomes, not just receive a point.
type TerminationStatus int

const (
	// StatusConverged means the step size or cost decrease fell below the
	// solver tolerance.
	StatusConverged TerminationStatus = iota
	// StatusMaxIterations means the iteration cap was reached; the solution
	// carries the best iterate found and may still be useful.
	StatusMaxIterations
	// StatusDegenerate means the station geometry does not constrain all
	// three position parameters (rank-deficient Jacobian).
	StatusDegenerate
	// StatusDiverged means the damping grew without producing an acceptable
	// step, or the normal equations became singular.
	StatusDiverged
)

// String returns a stable name for the status.
func (s TerminationStatus) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIterations:
		return "max_iterations"
	case StatusDegenerate:
		return "degenerate"
	case StatusDiverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// Solution is the result of one localization solve.
type Solution struct {
	// Estimate is the final iterate. For StatusMaxIterations this is the
	// best point found; for StatusDegenerate and StatusDiverged it is the
	// last iterate before the condition was detected.
	Estimate Vec3

	Status    TerminationStatus
	Converged bool

	// Iterations counts accepted Levenberg-Marquardt steps.
	Iterations int
	// DampingRetries counts rejected trial steps across all iterations.
	DampingRetries int
	// FinalCost is 0.5 * sum of squared residuals at Estimate.
	FinalCost float64
	// CostHistory holds the cost after each accepted step, starting with
	// the cost at the initial guess. Accepted costs never increase.
	CostHistory []float64
}

// LocationReport is the structured output handed to external reporters and
// plotters. Ground-truth fields are nil when no truth is available.
type LocationReport struct {
	Stations []Station
	Estimate Vec3

	// PredictedTravelTimesS holds the travel time in seconds from the
	// estimate to each station, in station order.
	PredictedTravelTimesS []float64
	// ResidualsS holds the per-station time-difference residuals in
	// seconds at the estimate.
	ResidualsS []float64

	RefIndex   int
	Status     TerminationStatus
	Converged  bool
	Iterations int
	FinalCost  float64

	// TruePoint and ErrorM are populated for validation runs only.
	TruePoint *Vec3
	ErrorM    *float64
}
