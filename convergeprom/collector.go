// Package convergeprom exposes the state of a converge.Coordinator as
// Prometheus metrics.
package convergeprom

import (
	"github.com/prometheus/client_golang/prometheus"

	converge "github.com/converge-go/converge-go"
)

// Collector is a prometheus.Collector that reads a Coordinator's status on
// every scrape. Gauges for absent values (no diversity update yet, no second
// hypervolume update, unlimited budget) are omitted from the scrape.
//
// This type is concurrency safe.
type Collector struct {
	coordinator converge.Coordinator

	generation             *prometheus.Desc
	converged              *prometheus.Desc
	plateauPatience        *prometheus.Desc
	diversityScore         *prometheus.Desc
	hypervolumeImprovement *prometheus.Desc
	remainingEvaluations   *prometheus.Desc
}

var _ prometheus.Collector = &Collector{}

// NewCollector returns a Collector over the coordinator.
func NewCollector(coordinator converge.Coordinator) *Collector {
	return &Collector{
		coordinator: coordinator,
		generation: prometheus.NewDesc(
			"converge_generation",
			"Current generation of the optimization run.",
			nil, nil),
		converged: prometheus.NewDesc(
			"converge_converged",
			"Whether any detector has triggered (1) or not (0), labeled by reason.",
			[]string{"reason"}, nil),
		plateauPatience: prometheus.NewDesc(
			"converge_plateau_patience_count",
			"Consecutive non-improving fitness window comparisons.",
			nil, nil),
		diversityScore: prometheus.NewDesc(
			"converge_diversity_score",
			"Latest pairwise diversity of the candidate population.",
			nil, nil),
		hypervolumeImprovement: prometheus.NewDesc(
			"converge_hypervolume_improvement",
			"Latest absolute hypervolume improvement.",
			nil, nil),
		remainingEvaluations: prometheus.NewDesc(
			"converge_remaining_evaluations",
			"Evaluations left under the configured budget.",
			nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.generation
	ch <- c.converged
	ch <- c.plateauPatience
	ch <- c.diversityScore
	ch <- c.hypervolumeImprovement
	ch <- c.remainingEvaluations
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	status := c.coordinator.Status()

	ch <- prometheus.MustNewConstMetric(c.generation, prometheus.GaugeValue,
		float64(c.coordinator.Generation()))

	convergedValue := 0.0
	if status.Converged {
		convergedValue = 1
	}
	ch <- prometheus.MustNewConstMetric(c.converged, prometheus.GaugeValue,
		convergedValue, status.Reason.String())

	ch <- prometheus.MustNewConstMetric(c.plateauPatience, prometheus.GaugeValue,
		float64(status.PlateauGenerations))

	if status.DiversityScore != nil {
		ch <- prometheus.MustNewConstMetric(c.diversityScore, prometheus.GaugeValue,
			*status.DiversityScore)
	}
	if status.HypervolumeImprovement != nil {
		ch <- prometheus.MustNewConstMetric(c.hypervolumeImprovement, prometheus.GaugeValue,
			*status.HypervolumeImprovement)
	}
	if !status.BudgetRemaining.Unlimited {
		ch <- prometheus.MustNewConstMetric(c.remainingEvaluations, prometheus.GaugeValue,
			float64(status.BudgetRemaining.N))
	}
}
