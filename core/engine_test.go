package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/geosignals/quake-locator/model"
)

type capturingMetrics struct {
	statuses  []string
	errors    []float64
	stations  []int
	durations []time.Duration
}

func (m *capturingMetrics) RecordSolve(status string, duration time.Duration, iterations int) {
	m.statuses = append(m.statuses, status)
	m.durations = append(m.durations, duration)
}

func (m *capturingMetrics) ObserveEstimationError(meters float64) {
	m.errors = append(m.errors, meters)
}

func (m *capturingMetrics) SetScenarioStations(count int) {
	m.stations = append(m.stations, count)
}

func TestEngineRunScenario(t *testing.T) {
	cfg := testConfig()
	cfg.NoiseStdS = 0

	metrics := &capturingMetrics{}
	engine := NewEngine(NewGeneratorFromSeed(3), NewSolver(), nil)
	engine.Metrics = metrics

	run, err := engine.RunScenario(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}

	if run.Scenario == nil {
		t.Fatalf("synthetic run should carry its scenario")
	}
	if run.Report.TruePoint == nil || run.Report.ErrorM == nil {
		t.Fatalf("validation run should carry ground truth and error")
	}
	if *run.Report.ErrorM > 1.0 {
		t.Fatalf("zero-noise error = %v m, want < 1", *run.Report.ErrorM)
	}
	if len(run.Report.PredictedTravelTimesS) != cfg.StationCount {
		t.Fatalf("predicted travel times len = %d, want %d", len(run.Report.PredictedTravelTimesS), cfg.StationCount)
	}

	if len(metrics.statuses) != 1 || metrics.statuses[0] != model.StatusConverged.String() {
		t.Fatalf("recorded statuses = %v", metrics.statuses)
	}
	if len(metrics.errors) != 1 || len(metrics.stations) != 1 || metrics.stations[0] != cfg.StationCount {
		t.Fatalf("metrics not driven: %+v", metrics)
	}
}

func TestEngineRunScenarioInvalidConfig(t *testing.T) {
	engine := NewEngine(NewGeneratorFromSeed(1), NewSolver(), nil)
	cfg := testConfig()
	cfg.VelocityMS = -1

	if _, err := engine.RunScenario(context.Background(), cfg); err == nil {
		t.Fatalf("expected invalid configuration error")
	}
}

func TestEngineLocateObservations(t *testing.T) {
	stations := fourStations()
	truePoint := model.Vec3{X: 3000, Y: 4000, Z: -6000}
	measured, ref := synthesize(stations, truePoint, 5000)

	obs := &ObservationSet{
		Stations:         stations,
		MeasuredRelTimes: measured,
		VelocityMS:       5000,
		RefIndex:         ref,
	}

	engine := NewEngine(nil, NewSolver(), nil)
	run, err := engine.LocateObservations(context.Background(), obs)
	if err != nil {
		t.Fatalf("LocateObservations: %v", err)
	}

	if run.Scenario != nil {
		t.Fatalf("real-data run should not fabricate a scenario")
	}
	if run.Report.TruePoint != nil || run.Report.ErrorM != nil {
		t.Fatalf("real-data run has no ground truth to report")
	}
	if got := LocationError(truePoint, run.Report.Estimate); got > 1.0 {
		t.Fatalf("estimate off by %v m, want < 1", got)
	}
}

func TestEngineLocateLoadedObservations(t *testing.T) {
	doc := `{
	  "velocity_ms": 5000,
	  "stations": [
	    {"id": "ST01", "x": 0, "y": 0, "z": 0},
	    {"id": "ST02", "x": 10000, "y": 0, "z": 0},
	    {"id": "ST03", "x": 0, "y": 10000, "z": 0},
	    {"id": "ST04", "x": 0, "y": 0, "z": -2000}
	  ],
	  "relative_times_s": [0.2814250876947611, 0.7293502767376081, 0.5193751525134303, 0]
	}`

	obs, err := LoadObservations(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadObservations: %v", err)
	}

	engine := NewEngine(nil, NewSolver(), nil)
	run, err := engine.LocateObservations(context.Background(), obs)
	if err != nil {
		t.Fatalf("LocateObservations: %v", err)
	}
	if run.Report.Status != model.StatusConverged {
		t.Fatalf("status = %v, want converged", run.Report.Status)
	}
}
