package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LocatorCollector bundles Prometheus metrics for the localization pipeline
// and provides a ready-to-serve /metrics handler. It satisfies the engine's
// RunMetrics interface so runs drive the values directly.
type LocatorCollector struct {
	gatherer prometheus.Gatherer

	SolvesTotal      *prometheus.CounterVec
	SolveDuration    prometheus.Histogram
	SolverIterations prometheus.Histogram
	EstimationError  prometheus.Histogram
	ScenarioStations prometheus.Gauge
}

// NewLocatorCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewLocatorCollector(reg prometheus.Registerer) (*LocatorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locator_solves_total",
		Help: "Total number of completed solves, labeled by termination status.",
	}, []string{"status"})
	solves, err := registerCounterVec(reg, solves, "locator_solves_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "locator_solve_duration_seconds",
		Help:    "Wall-clock duration of one localization solve.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	duration, err = registerHistogram(reg, duration, "locator_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	iterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "locator_solver_iterations",
		Help:    "Accepted Levenberg-Marquardt steps per solve.",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})
	iterations, err = registerHistogram(reg, iterations, "locator_solver_iterations")
	if err != nil {
		return nil, err
	}

	estimationError := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "locator_estimation_error_meters",
		Help:    "Euclidean distance between the estimate and ground truth on validation runs.",
		Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	estimationError, err = registerHistogram(reg, estimationError, "locator_estimation_error_meters")
	if err != nil {
		return nil, err
	}

	stations, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "locator_scenario_stations",
		Help: "Station count of the most recent scenario.",
	}), "locator_scenario_stations")
	if err != nil {
		return nil, err
	}

	return &LocatorCollector{
		gatherer:         gatherer,
		SolvesTotal:      solves,
		SolveDuration:    duration,
		SolverIterations: iterations,
		EstimationError:  estimationError,
		ScenarioStations: stations,
	}, nil
}

// RecordSolve counts a completed solve and observes its duration and
// iteration count.
func (c *LocatorCollector) RecordSolve(status string, duration time.Duration, iterations int) {
	if c == nil {
		return
	}
	if c.SolvesTotal != nil {
		c.SolvesTotal.WithLabelValues(status).Inc()
	}
	if c.SolveDuration != nil {
		c.SolveDuration.Observe(duration.Seconds())
	}
	if c.SolverIterations != nil {
		c.SolverIterations.Observe(float64(iterations))
	}
}

// ObserveEstimationError records the estimate-versus-truth distance for a
// validation run.
func (c *LocatorCollector) ObserveEstimationError(meters float64) {
	if c == nil || c.EstimationError == nil {
		return
	}
	c.EstimationError.Observe(meters)
}

// SetScenarioStations updates the station count gauge.
func (c *LocatorCollector) SetScenarioStations(count int) {
	if c == nil || c.ScenarioStations == nil {
		return
	}
	c.ScenarioStations.Set(float64(count))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *LocatorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
