package converge

import (
	"fmt"
	"slices"
	"sync"
)

// Coordinator feeds per-generation metrics to each detector, aggregates their
// verdicts, and synthesizes warnings for approaching-but-not-yet-converged
// states. Any single detector triggering makes the run converged; the
// triggering reason is chosen by a fixed priority. See Builder for
// configuration options.
//
// This type is concurrency safe.
type Coordinator interface {
	// Update forwards each present metric to the corresponding detector, then
	// advances the generation counter by at least 1, jumping forward if the
	// input carries a larger generation. Returns the first detector's domain
	// error, in which case the remaining detectors are not advanced.
	Update(metrics Metrics) error

	// Status returns the aggregated verdicts, diagnostics, and warnings.
	Status() Status

	// Converged returns whether any detector has triggered.
	Converged() bool

	// Generation returns the current generation counter.
	Generation() int

	// Reset resets every detector and zeroes the generation counter, retaining
	// the configuration.
	Reset()
}

type coordinator struct {
	config *config
	mtx    sync.Mutex

	// Guarded by mtx
	generation int
	notified   bool
}

var _ Coordinator = &coordinator{}

func (c *coordinator) Update(metrics Metrics) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if metrics.Fitness != nil {
		if err := c.config.plateauDetector.Update(*metrics.Fitness); err != nil {
			return fmt.Errorf("plateau: %w", err)
		}
	}
	if metrics.Diversity != nil {
		if err := c.config.diversityMonitor.Update(*metrics.Diversity); err != nil {
			return fmt.Errorf("diversity: %w", err)
		}
	}
	if metrics.Hypervolume != nil {
		sample := *metrics.Hypervolume
		var err error
		if sample.Generation > 0 {
			err = c.config.hypervolumeTracker.UpdateAt(sample.Generation, sample.Hypervolume)
		} else {
			err = c.config.hypervolumeTracker.Update(sample.Hypervolume)
		}
		if err != nil {
			return fmt.Errorf("hypervolume: %w", err)
		}
	}
	if metrics.Consumption != nil {
		if err := c.config.budgetManager.RecordConsumption(*metrics.Consumption); err != nil {
			return fmt.Errorf("budget: %w", err)
		}
	}

	next := c.generation + 1
	if metrics.Generation > next {
		next = metrics.Generation
	}
	c.generation = next

	if status := c.status(); status.Converged && !c.notified {
		c.notified = true
		if c.config.logger != nil {
			c.config.logger.Debug("convergence detected",
				"generation", c.generation,
				"reason", status.Reason.String())
		}
		if c.config.convergedListener != nil {
			c.config.convergedListener(Event{
				Generation: c.generation,
				Reason:     status.Reason,
			})
		}
	}
	return nil
}

func (c *coordinator) Status() Status {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.status()
}

func (c *coordinator) Converged() bool {
	return c.Status().Converged
}

func (c *coordinator) Generation() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.generation
}

// Requires locking externally
func (c *coordinator) status() Status {
	plateauDetected := c.config.plateauDetector.Detected()
	diversityCollapsed := c.config.diversityMonitor.Collapsed()
	hypervolumeSaturated := c.config.hypervolumeTracker.Saturated()
	budgetExhausted := c.config.budgetManager.Exhausted()
	converged := plateauDetected || diversityCollapsed || hypervolumeSaturated || budgetExhausted

	reason := ReasonNone
	switch {
	case budgetExhausted:
		reason = ReasonBudgetExhausted
	case plateauDetected:
		reason = ReasonFitnessPlateau
	case diversityCollapsed:
		reason = ReasonDiversityCollapse
	case hypervolumeSaturated:
		reason = ReasonHypervolumeSaturation
	}

	warnings := c.warnings(plateauDetected, hypervolumeSaturated)
	level := Running
	if converged {
		level = Converged
	} else if len(warnings) > 0 {
		level = Warning
	}

	var diversityScore *float64
	if score, ok := c.config.diversityMonitor.Current(); ok {
		diversityScore = &score
	}
	var hypervolumeImprovement *float64
	if improvement, ok := c.config.hypervolumeTracker.RecentImprovement(); ok {
		hypervolumeImprovement = &improvement
	}

	return Status{
		Converged:              converged,
		Level:                  level,
		Reason:                 reason,
		ShouldStop:             converged,
		Warnings:               warnings,
		PlateauDetected:        plateauDetected,
		DiversityCollapsed:     diversityCollapsed,
		HypervolumeSaturated:   hypervolumeSaturated,
		BudgetExhausted:        budgetExhausted,
		PlateauGenerations:     c.config.plateauDetector.PatienceCount(),
		DiversityScore:         diversityScore,
		HypervolumeImprovement: hypervolumeImprovement,
		BudgetRemaining:        c.config.budgetManager.RemainingEvaluations(),
		Metadata: map[string]any{
			"generation":       c.generation,
			"plateau_patience": c.config.plateauDetector.Patience(),
			"diversity_trend":  c.config.diversityMonitor.Trend().String(),
		},
	}
}

// Requires locking externally. Warnings are collected in a fixed insertion
// order, then reversed for presentation.
func (c *coordinator) warnings(plateauDetected, hypervolumeSaturated bool) []string {
	var warnings []string

	if c.config.diversityMonitor.InWarningZone() {
		warnings = append(warnings, "Diversity below warning threshold")
	}

	counter := c.config.plateauDetector.PatienceCount()
	patience := int(c.config.plateauDetector.Patience())
	if counter > 0 && !plateauDetected && float64(counter)/float64(patience) >= .5 {
		warnings = append(warnings, fmt.Sprintf("Approaching fitness plateau (%d/%d)", counter, patience))
	}

	counter = c.config.hypervolumeTracker.PatienceCount()
	patience = int(c.config.hypervolumeTracker.Patience())
	if counter > 0 && !hypervolumeSaturated && float64(counter)/float64(patience) >= .5 {
		warnings = append(warnings, fmt.Sprintf("Approaching hypervolume saturation (%d/%d)", counter, patience))
	}

	if maxEvaluations, ok := c.config.budgetManager.MaxEvaluations(); ok {
		remaining := c.config.budgetManager.RemainingEvaluations()
		if !remaining.Unlimited && 1-float64(remaining.N)/float64(maxEvaluations) >= .8 {
			warnings = append(warnings, fmt.Sprintf("Budget 80%% consumed (%d evaluations remaining)", remaining.N))
		}
	}

	slices.Reverse(warnings)
	return warnings
}

func (c *coordinator) Reset() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.config.plateauDetector.Reset()
	c.config.diversityMonitor.Reset()
	c.config.hypervolumeTracker.Reset()
	c.config.budgetManager.Reset()
	c.generation = 0
	c.notified = false
}
