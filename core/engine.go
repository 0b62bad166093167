package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/geosignals/quake-locator/internal/logging"
	"github.com/geosignals/quake-locator/model"
)

const tracerName = "github.com/geosignals/quake-locator/core"

// DefaultGuessDepthM is the nominal seed depth used when the caller does not
// override it.
const DefaultGuessDepthM = -5000.0

// RunMetrics receives run-level measurements from the engine. Implementations
// must tolerate being called from a single goroutine per run; a nil recorder
// disables metrics entirely.
type RunMetrics interface {
	RecordSolve(status string, duration time.Duration, iterations int)
	ObserveEstimationError(meters float64)
	SetScenarioStations(count int)
}

// Run bundles everything one localization produced: the scenario (nil for
// real observations), the raw solution, and the reporter-facing view.
type Run struct {
	Scenario *model.Scenario
	Solution *model.Solution
	Report   *model.LocationReport
}

// Engine drives the generate-solve-report pipeline. The solver itself stays
// pure; logging, tracing and metrics all live here.
type Engine struct {
	Generator *Generator
	Solver    *Solver
	Log       logging.Logger
	Metrics   RunMetrics

	// GuessDepthM seeds the solver's initial depth (negative metres).
	GuessDepthM float64
}

// NewEngine wires an engine with the given collaborators. log may be nil.
func NewEngine(gen *Generator, solver *Solver, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{
		Generator:   gen,
		Solver:      solver,
		Log:         log,
		GuessDepthM: DefaultGuessDepthM,
	}
}

// RunScenario synthesizes one scenario and inverts it, returning the run
// with ground truth attached so callers can validate the estimate.
func (e *Engine) RunScenario(ctx context.Context, cfg model.ScenarioConfig) (*Run, error) {
	ctx, log := logging.WithRunLogger(ctx, e.Log)
	tracer := otel.Tracer(tracerName)

	ctx, genSpan := tracer.Start(ctx, "scenario.generate",
		trace.WithAttributes(attribute.Int("stations", cfg.StationCount)))
	scenario, err := e.Generator.Generate(cfg)
	genSpan.End()
	if err != nil {
		return nil, err
	}
	if e.Metrics != nil {
		e.Metrics.SetScenarioStations(len(scenario.Stations))
	}

	log.Debug(ctx, "scenario generated",
		logging.Int("stations", len(scenario.Stations)),
		logging.Int("ref_index", scenario.RefIndex),
		logging.Float64("true_depth_m", scenario.TruePoint.Z),
	)

	run, err := e.locate(ctx, log, scenario.Stations, scenario.MeasuredRelTimes,
		cfg.VelocityMS, scenario.RefIndex, &scenario.TruePoint)
	if err != nil {
		return nil, err
	}
	run.Scenario = scenario

	if run.Report.ErrorM != nil && e.Metrics != nil {
		e.Metrics.ObserveEstimationError(*run.Report.ErrorM)
	}
	return run, nil
}

// LocateObservations inverts an externally supplied observation set. No
// ground truth is available, so the report carries no estimation error.
func (e *Engine) LocateObservations(ctx context.Context, obs *ObservationSet) (*Run, error) {
	ctx, log := logging.WithRunLogger(ctx, e.Log)
	if e.Metrics != nil {
		e.Metrics.SetScenarioStations(len(obs.Stations))
	}
	return e.locate(ctx, log, obs.Stations, obs.MeasuredRelTimes, obs.VelocityMS, obs.RefIndex, nil)
}

func (e *Engine) locate(ctx context.Context, log logging.Logger, stations []model.Station, measured []float64, v float64, refIndex int, truePoint *model.Vec3) (*Run, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "solver.solve")
	defer span.End()

	p0 := InitialGuess(stations, e.GuessDepthM)
	start := time.Now()
	sol, err := e.Solver.Solve(p0, stations, measured, v, refIndex)
	elapsed := time.Since(start)
	if err != nil {
		log.Error(ctx, "solve failed", logging.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("status", sol.Status.String()),
		attribute.Int("iterations", sol.Iterations),
	)
	if e.Metrics != nil {
		e.Metrics.RecordSolve(sol.Status.String(), elapsed, sol.Iterations)
	}

	switch sol.Status {
	case model.StatusConverged:
		log.Info(ctx, "solve converged",
			logging.Int("iterations", sol.Iterations),
			logging.Float64("final_cost", sol.FinalCost),
		)
	case model.StatusMaxIterations:
		log.Warn(ctx, "iteration cap reached; returning best iterate",
			logging.Int("iterations", sol.Iterations),
			logging.Float64("final_cost", sol.FinalCost),
		)
	default:
		log.Warn(ctx, "solve did not converge",
			logging.String("status", sol.Status.String()),
			logging.Int("stations", len(stations)),
		)
	}

	return &Run{
		Solution: sol,
		Report:   BuildReport(stations, measured, v, refIndex, sol, truePoint),
	}, nil
}
