package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/geosignals/quake-locator/model"
)

func TestRecordSolveDrivesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewLocatorCollector(reg)
	if err != nil {
		t.Fatalf("NewLocatorCollector: %v", err)
	}

	collector.RecordSolve("converged", 3*time.Millisecond, 12)
	collector.RecordSolve("degenerate", time.Millisecond, 0)
	collector.RecordSolve("converged", 2*time.Millisecond, 8)

	if got := counterValue(t, reg, "locator_solves_total", map[string]string{"status": "converged"}); got != 2 {
		t.Fatalf("locator_solves_total{status=converged} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "locator_solves_total", map[string]string{"status": "degenerate"}); got != 1 {
		t.Fatalf("locator_solves_total{status=degenerate} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "locator_solve_duration_seconds"); count != 3 {
		t.Fatalf("locator_solve_duration_seconds sample_count = %d, want 3", count)
	}
	if count := histogramSampleCount(t, reg, "locator_solver_iterations"); count != 3 {
		t.Fatalf("locator_solver_iterations sample_count = %d, want 3", count)
	}
}

func TestEstimationErrorAndStationGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewLocatorCollector(reg)
	if err != nil {
		t.Fatalf("NewLocatorCollector: %v", err)
	}

	collector.ObserveEstimationError(42.5)
	collector.SetScenarioStations(7)

	if count := histogramSampleCount(t, reg, "locator_estimation_error_meters"); count != 1 {
		t.Fatalf("locator_estimation_error_meters sample_count = %d, want 1", count)
	}
	if got := testutil.ToFloat64(collector.ScenarioStations); got != 7 {
		t.Fatalf("locator_scenario_stations = %v, want 7", got)
	}
}

func TestMetricsHandlerExposesPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewLocatorCollector(reg)
	if err != nil {
		t.Fatalf("NewLocatorCollector: %v", err)
	}
	collector.RecordSolve("converged", time.Millisecond, 5)
	collector.SetScenarioStations(4)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"locator_solves_total",
		"locator_solve_duration_seconds",
		"locator_solver_iterations",
		"locator_scenario_stations",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSolverCollectorObserveSolution(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSolverCollector(reg)
	if err != nil {
		t.Fatalf("NewSolverCollector: %v", err)
	}

	collector.ObserveSolution(&model.Solution{DampingRetries: 4, FinalCost: 0.125})
	collector.ObserveSolution(&model.Solution{DampingRetries: 2, FinalCost: 0.25})

	if got := testutil.ToFloat64(collector.DampingRetriesTotal); got != 6 {
		t.Fatalf("solver_damping_retries_total = %v, want 6", got)
	}
	if got := testutil.ToFloat64(collector.FinalCost); got != 0.25 {
		t.Fatalf("solver_final_cost = %v, want 0.25", got)
	}
}

func TestCollectorsTolerateDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewLocatorCollector(reg); err != nil {
		t.Fatalf("first NewLocatorCollector: %v", err)
	}
	if _, err := NewLocatorCollector(reg); err != nil {
		t.Fatalf("second NewLocatorCollector should reuse collectors: %v", err)
	}
	if _, err := NewSolverCollector(reg); err != nil {
		t.Fatalf("first NewSolverCollector: %v", err)
	}
	if _, err := NewSolverCollector(reg); err != nil {
		t.Fatalf("second NewSolverCollector should reuse collectors: %v", err)
	}
}

func counterValue(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}
