package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geosignals/quake-locator/model"
)

// SolverCollector exposes solver-internal Prometheus metrics, separate from
// the run-level pipeline collector.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	DampingRetriesTotal prometheus.Counter
	FinalCost           prometheus.Gauge
}

// NewSolverCollector registers solver metrics against the provided registerer.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_damping_retries_total",
		Help: "Cumulative number of rejected Levenberg-Marquardt trial steps.",
	})
	retries, err := registerCounter(reg, retries, "solver_damping_retries_total")
	if err != nil {
		return nil, err
	}

	finalCost := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_final_cost",
		Help: "Final half sum of squared residuals of the most recent solve.",
	})
	finalCost, err = registerGauge(reg, finalCost, "solver_final_cost")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:            gatherer,
		DampingRetriesTotal: retries,
		FinalCost:           finalCost,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SolverCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveSolution records the solver-internal counters for one solution.
func (c *SolverCollector) ObserveSolution(sol *model.Solution) {
	if c == nil || sol == nil {
		return
	}
	if c.DampingRetriesTotal != nil {
		c.DampingRetriesTotal.Add(float64(sol.DampingRetries))
	}
	if c.FinalCost != nil {
		c.FinalCost.Set(sol.FinalCost)
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
