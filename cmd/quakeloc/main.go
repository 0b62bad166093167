package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/geosignals/quake-locator/arrivals"
	"github.com/geosignals/quake-locator/core"
	"github.com/geosignals/quake-locator/internal/logging"
	"github.com/geosignals/quake-locator/internal/observability"
	"github.com/geosignals/quake-locator/model"
)

func main() {
	stationCount := flag.Int("stations", 7, "number of stations (minimum 4)")
	radius := flag.Float64("radius", 30000, "station placement radius in metres")
	depthMin := flag.Float64("depth-min", 500, "minimum event depth in metres (positive magnitude)")
	depthMax := flag.Float64("depth-max", 10000, "maximum event depth in metres (positive magnitude)")
	velocity := flag.Float64("velocity", 5000, "uniform propagation speed in m/s")
	noiseStd := flag.Float64("noise-std", 0.01, "travel-time noise standard deviation in seconds")
	guessDepth := flag.Float64("guess-depth", core.DefaultGuessDepthM, "initial-guess depth in metres (negative)")
	tolerance := flag.Float64("tol", 1e-12, "solver convergence tolerance")
	maxIters := flag.Int("max-iters", 200, "solver iteration cap")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for scenario generation")
	obsPath := flag.String("observations", "", "JSON observation file; skips synthetic generation when set")
	metricsAddr := flag.String("metrics-addr", "", "optional address to serve Prometheus /metrics on")

	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewLocatorCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	solverMetrics, err := observability.NewSolverCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error(ctx, "metrics server failed", logging.String("error", err.Error()))
			}
		}()
	}

	rng := rand.New(rand.NewSource(*seed))

	solver := core.NewSolver()
	solver.Tolerance = *tolerance
	solver.MaxIterations = *maxIters

	engine := core.NewEngine(core.NewGenerator(rng), solver, log)
	engine.Metrics = collector
	engine.GuessDepthM = *guessDepth

	var run *core.Run
	if *obsPath != "" {
		f, err := os.Open(*obsPath)
		if err != nil {
			log.Error(ctx, "open observations failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		obs, err := core.LoadObservations(f)
		f.Close()
		if err != nil {
			log.Error(ctx, "load observations failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		run, err = engine.LocateObservations(ctx, obs)
		if err != nil {
			log.Error(ctx, "localization failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		cfg := model.ScenarioConfig{
			StationCount: *stationCount,
			RadiusM:      *radius,
			DepthMinM:    *depthMin,
			DepthMaxM:    *depthMax,
			VelocityMS:   *velocity,
			NoiseStdS:    *noiseStd,
		}
		run, err = engine.RunScenario(ctx, cfg)
		if err != nil {
			log.Error(ctx, "localization failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}
	solverMetrics.ObserveSolution(run.Solution)

	printReport(run, rng)
}

// printReport is the thin console reporter. It consumes only the structured
// report; all the algorithmic work happened in the engine.
func printReport(run *core.Run, rng *rand.Rand) {
	report := run.Report

	fmt.Printf("First station to receive signal: %s (index %d)\n",
		report.Stations[report.RefIndex].ID, report.RefIndex)

	if run.Scenario != nil {
		base := arrivals.RandomBaseTime(rng)
		times := arrivals.Schedule(base, run.Scenario.MeasuredRelTimes)
		fmt.Println("Station arrival times:")
		for _, line := range arrivals.Timetable(report.Stations, times) {
			fmt.Printf("  %s\n", line)
		}
	}

	fmt.Println("\nStations:")
	for i, s := range report.Stations {
		fmt.Printf("  %s @ (%9.1f, %9.1f, %7.1f) m  predicted travel %7.3f s\n",
			s.ID, s.Position.X, s.Position.Y, s.Position.Z, report.PredictedTravelTimesS[i])
	}

	if report.TruePoint != nil {
		fmt.Printf("\nTrue location:      (%9.1f, %9.1f, %9.1f) m\n",
			report.TruePoint.X, report.TruePoint.Y, report.TruePoint.Z)
	}
	fmt.Printf("Estimated location: (%9.1f, %9.1f, %9.1f) m\n",
		report.Estimate.X, report.Estimate.Y, report.Estimate.Z)
	fmt.Printf("Status: %s after %d iterations, final cost %.3e\n",
		report.Status, report.Iterations, report.FinalCost)
	if report.ErrorM != nil {
		fmt.Printf("Error: %.1f m\n", *report.ErrorM)
	}
}
