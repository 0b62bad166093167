package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/geosignals/quake-locator/core"
	"github.com/geosignals/quake-locator/internal/logging"
	"github.com/geosignals/quake-locator/internal/observability"
	"github.com/geosignals/quake-locator/model"
	"github.com/geosignals/quake-locator/runstore"
)

func main() {
	runs := flag.Int("runs", 100, "number of independent scenarios to evaluate")
	stationCount := flag.Int("stations", 7, "number of stations (minimum 4)")
	radius := flag.Float64("radius", 30000, "station placement radius in metres")
	depthMin := flag.Float64("depth-min", 500, "minimum event depth in metres (positive magnitude)")
	depthMax := flag.Float64("depth-max", 10000, "maximum event depth in metres (positive magnitude)")
	velocity := flag.Float64("velocity", 5000, "uniform propagation speed in m/s")
	noiseStd := flag.Float64("noise-std", 0.01, "travel-time noise standard deviation in seconds")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the whole batch")

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

	cfg := model.ScenarioConfig{
		StationCount: *stationCount,
		RadiusM:      *radius,
		DepthMinM:    *depthMin,
		DepthMaxM:    *depthMax,
		VelocityMS:   *velocity,
		NoiseStdS:    *noiseStd,
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "invalid configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}

	engine := core.NewEngine(core.NewGenerator(rand.New(rand.NewSource(*seed))), core.NewSolver(), log)
	engine.Metrics = collector

	store := runstore.NewStore()
	store.Subscribe(func(ev runstore.Event) {
		solverMetrics.ObserveSolution(ev.Run.Solution)
	})

	// Each solve is independent; the batch runs them sequentially and lets
	// the run store accumulate results for the summary.
	byStatus := make(map[model.TerminationStatus]int)
	var errorsM, iterations []float64
	for i := 0; i < *runs; i++ {
		run, err := engine.RunScenario(ctx, cfg)
		if err != nil {
			log.Error(ctx, "run failed", logging.Int("run", i), logging.String("error", err.Error()))
			os.Exit(1)
		}
		if err := store.Add(fmt.Sprintf("run-%04d", i), run); err != nil {
			log.Error(ctx, "record run failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		byStatus[run.Solution.Status]++
		iterations = append(iterations, float64(run.Solution.Iterations))
		if run.Report.ErrorM != nil && run.Solution.Converged {
			errorsM = append(errorsM, *run.Report.ErrorM)
		}
	}

	fmt.Printf("Completed %d runs (%d stations, noise %.4g s)\n", store.Len(), cfg.StationCount, cfg.NoiseStdS)
	for _, status := range []model.TerminationStatus{
		model.StatusConverged, model.StatusMaxIterations, model.StatusDegenerate, model.StatusDiverged,
	} {
		if byStatus[status] > 0 {
			fmt.Printf("  %-14s %d\n", status.String()+":", byStatus[status])
		}
	}

	if len(errorsM) > 0 {
		printSummary("estimation error (m)", errorsM)
	}
	printSummary("iterations", iterations)
}

func printSummary(name string, values []float64) {
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	stddev, _ := stats.StandardDeviation(values)
	p95, _ := stats.Percentile(values, 95)
	fmt.Printf("%s: mean %.2f  median %.2f  stddev %.2f  p95 %.2f\n",
		name, mean, median, stddev, p95)
}
