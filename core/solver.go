package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/geosignals/quake-locator/model"
)

// Solver inverts measured relative arrival times into a source location by
// Levenberg-Marquardt minimization of the summed squared residuals. Each
// Solve call is independent and holds no shared state, so one Solver may be
// reused across scenarios.
type Solver struct {
	// MaxIterations caps the number of accepted steps.
	MaxIterations int
	// Tolerance terminates the iteration once the relative step size or the
	// relative cost decrease falls below it.
	Tolerance float64
	// InitialDamping is the starting Levenberg-Marquardt lambda.
	InitialDamping float64
	// MaxDamping bounds lambda growth; exceeding it reports divergence.
	MaxDamping float64
	// RankTolerance is the smallest acceptable ratio between the smallest
	// and largest singular values of the Jacobian. Below it the station
	// geometry does not constrain all three parameters.
	RankTolerance float64
}

// NewSolver returns a solver with defaults suitable for metre-scale
// geometry and second-scale residuals.
func NewSolver() *Solver {
	return &Solver{
		MaxIterations:  200,
		Tolerance:      1e-12,
		InitialDamping: 1e-3,
		MaxDamping:     1e12,
		RankTolerance:  1e-9,
	}
}

// InitialGuess returns the conventional solver seed: the centroid of the
// station (x, y) coordinates with z fixed at the given nominal depth
// (negative metres). The seed matters: travel-time-difference surfaces have
// slow curvature along the deep/shallow trade-off when the network is
// compact relative to depth.
func InitialGuess(stations []model.Station, depthM float64) model.Vec3 {
	c := model.Centroid(model.StationPositions(stations))
	return model.Vec3{X: c.X, Y: c.Y, Z: depthM}
}

// Solve runs damped Gauss-Newton iteration from p0. The returned solution
// always distinguishes how the iteration ended; only structurally invalid
// input or non-finite arithmetic produce an error instead.
func (s *Solver) Solve(p0 model.Vec3, stations []model.Station, measuredRelTimes []float64, v float64, refIndex int) (*model.Solution, error) {
	n := len(stations)
	if v <= 0 {
		return nil, fmt.Errorf("%w: propagation speed must be positive, got %g", ErrInvalidConfiguration, v)
	}
	if len(measuredRelTimes) != n {
		return nil, fmt.Errorf("%w: %d stations but %d measured times", ErrInvalidConfiguration, n, len(measuredRelTimes))
	}
	if refIndex < 0 || refIndex >= n {
		return nil, fmt.Errorf("%w: reference index %d out of range [0, %d)", ErrInvalidConfiguration, refIndex, n)
	}
	if !p0.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite initial guess %+v", ErrNumericInstability, p0)
	}

	// Fewer than four stations cannot constrain three position parameters
	// plus the implicit emission-time nuisance; report the geometry as
	// degenerate rather than pretending to converge.
	if n < model.MinStations {
		return &model.Solution{Estimate: p0, Status: model.StatusDegenerate}, nil
	}

	r := Residuals(p0, stations, measuredRelTimes, v, refIndex)
	cost, err := halfSquaredNorm(r)
	if err != nil {
		return nil, err
	}

	sol := &model.Solution{
		Estimate:    p0,
		Status:      model.StatusMaxIterations,
		FinalCost:   cost,
		CostHistory: []float64{cost},
	}

	p := p0
	lambda := s.InitialDamping

	for iter := 0; iter < s.MaxIterations; iter++ {
		jac := s.jacobian(p, stations, v, refIndex)

		var svd mat.SVD
		if !svd.Factorize(jac, mat.SVDNone) {
			return nil, fmt.Errorf("%w: SVD of Jacobian failed", ErrNumericInstability)
		}
		sv := svd.Values(nil)
		if sv[0] == 0 || sv[len(sv)-1] < s.RankTolerance*sv[0] {
			sol.Status = model.StatusDegenerate
			return sol, nil
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		grad := mat.NewVecDense(3, nil)
		grad.MulVec(jac.T(), mat.NewVecDense(n, r))

		// Stationary point: nothing left to descend.
		if mat.Norm(grad, 2) <= 1e-15 {
			sol.Status = model.StatusConverged
			sol.Converged = true
			return sol, nil
		}

		accepted := false
		lastStepNorm := math.Inf(1)
		for lambda <= s.MaxDamping {
			a := damped(&jtj, lambda)
			step := mat.NewVecDense(3, nil)
			if err := step.SolveVec(a, grad); err != nil {
				// Singular normal equations; more damping may regularize.
				lambda *= 10
				sol.DampingRetries++
				continue
			}

			lastStepNorm = mat.Norm(step, 2)
			trial := p.Sub(model.Vec3{X: step.AtVec(0), Y: step.AtVec(1), Z: step.AtVec(2)})
			if !trial.IsFinite() {
				lambda *= 10
				sol.DampingRetries++
				continue
			}
			rTrial := Residuals(trial, stations, measuredRelTimes, v, refIndex)
			costTrial, err := halfSquaredNorm(rTrial)
			if err != nil {
				return nil, err
			}

			if costTrial < cost {
				prevCost := cost
				p, r, cost = trial, rTrial, costTrial
				lambda = math.Max(lambda/10, 1e-12)
				accepted = true

				sol.Estimate = p
				sol.Iterations++
				sol.FinalCost = cost
				sol.CostHistory = append(sol.CostHistory, cost)

				stepNorm := mat.Norm(step, 2)
				if stepNorm <= s.Tolerance*(p.Norm()+1) || prevCost-cost <= s.Tolerance*prevCost {
					sol.Status = model.StatusConverged
					sol.Converged = true
					return sol, nil
				}
				break
			}

			lambda *= 10
			sol.DampingRetries++
		}

		if !accepted {
			// No acceptable step even at maximum damping. A vanishing
			// trial step means the iterate cannot be improved at float
			// precision, which is convergence, not divergence.
			if lastStepNorm <= s.Tolerance*(p.Norm()+1) {
				sol.Status = model.StatusConverged
				sol.Converged = true
			} else {
				sol.Status = model.StatusDiverged
			}
			return sol, nil
		}
	}

	// Iteration cap reached: a warning-level outcome carrying the best
	// iterate found, not a hard failure.
	sol.FinalCost = cost
	return sol, nil
}

// jacobian returns the n×3 matrix of partial derivatives of the residual
// vector with respect to the candidate point. Rows are exact; the reference
// station's own row is identically zero because its predicted relative time
// is zero for every candidate point.
func (s *Solver) jacobian(p model.Vec3, stations []model.Station, v float64, refIndex int) *mat.Dense {
	n := len(stations)
	jac := mat.NewDense(n, 3, nil)

	gx, gy, gz := travelTimeGradient(p, stations[refIndex].Position, v)
	for i, st := range stations {
		if i == refIndex {
			continue
		}
		ix, iy, iz := travelTimeGradient(p, st.Position, v)
		jac.Set(i, 0, ix-gx)
		jac.Set(i, 1, iy-gy)
		jac.Set(i, 2, iz-gz)
	}
	return jac
}

// travelTimeGradient returns d(‖station − p‖/v)/dp. The derivative has a
// removable singularity when p sits on the station; the distance is floored
// to keep it finite there.
func travelTimeGradient(p, station model.Vec3, v float64) (gx, gy, gz float64) {
	const minDist = 1e-6
	d := station.DistanceTo(p)
	if d < minDist {
		d = minDist
	}
	inv := 1.0 / (v * d)
	return (p.X - station.X) * inv, (p.Y - station.Y) * inv, (p.Z - station.Z) * inv
}

// damped returns JᵀJ + λ·diag(JᵀJ), the Marquardt-scaled normal-equations
// matrix, leaving jtj untouched.
func damped(jtj *mat.Dense, lambda float64) *mat.Dense {
	a := mat.DenseCopyOf(jtj)
	for k := 0; k < 3; k++ {
		d := jtj.At(k, k)
		if d <= 0 {
			d = 1e-30
		}
		a.Set(k, k, d*(1+lambda))
	}
	return a
}

func halfSquaredNorm(r []float64) (float64, error) {
	sum := 0.0
	for _, x := range r {
		sum += x * x
	}
	sum *= 0.5
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("%w: non-finite residual cost", ErrNumericInstability)
	}
	return sum, nil
}
