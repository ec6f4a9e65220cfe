package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's collectors. Each server owns a registry so
// several servers can live in one process.
type metrics struct {
	registry    *prometheus.Registry
	generations prometheus.Counter
	runs        *prometheus.CounterVec
	bestFitness *prometheus.GaugeVec
	running     prometheus.GaugeFunc
}

// newMetrics creates the collectors. The running-runs gauge is read from jm
// on every scrape.
func newMetrics(jm *JobManager) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blendga_generations_total",
			Help: "Generations ranked across all runs.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blendga_runs_total",
			Help: "Runs that reached a state.",
		}, []string{"state"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blendga_best_fitness",
			Help: "Best fitness of the latest generation of each running run.",
		}, []string{"run_id"}),
		running: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "blendga_running_runs",
			Help: "Runs currently executing.",
		}, func() float64 {
			return float64(len(jm.GetRunningJobs()))
		}),
	}
	m.registry.MustRegister(m.generations, m.runs, m.bestFitness, m.running)
	return m
}

// finish drops the per-run series of a run that reached a terminal state.
func (m *metrics) finish(jobID string, state JobState) {
	m.bestFitness.DeleteLabelValues(jobID)
	m.runs.WithLabelValues(string(state)).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
