package converge

import (
	"github.com/converge-go/converge-go/budget"
	"github.com/converge-go/converge-go/diversity"
	"github.com/converge-go/converge-go/plateau"
)

// StatusLevel describes the overall state of a run.
type StatusLevel int

const (
	// Running means no detector has triggered and no warning condition holds.
	Running StatusLevel = iota

	// Warning means no detector has triggered but at least one warning
	// condition holds.
	Warning

	// Converged means at least one detector has triggered.
	Converged
)

func (s StatusLevel) String() string {
	switch s {
	case Warning:
		return "warning"
	case Converged:
		return "converged"
	default:
		return "running"
	}
}

// Reason identifies which detector caused convergence. When several detectors
// trigger in the same generation, budget exhaustion wins, then fitness plateau,
// then diversity collapse, then hypervolume saturation.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonBudgetExhausted
	ReasonFitnessPlateau
	ReasonDiversityCollapse
	ReasonHypervolumeSaturation
)

func (r Reason) String() string {
	switch r {
	case ReasonBudgetExhausted:
		return "budget_exhausted"
	case ReasonFitnessPlateau:
		return "fitness_plateau"
	case ReasonDiversityCollapse:
		return "diversity_collapse"
	case ReasonHypervolumeSaturation:
		return "hypervolume_saturation"
	default:
		return "none"
	}
}

// HypervolumeSample is a hypervolume observation. A zero Generation selects
// automatic assignment by the tracker.
type HypervolumeSample struct {
	Hypervolume float64
	Generation  int
}

// Metrics is the per-generation input to a Coordinator. Each field is optional;
// a nil field leaves the corresponding detector unchanged. A positive
// Generation makes the coordinator's generation counter jump forward to at
// least that value.
type Metrics struct {
	Generation  int
	Fitness     *plateau.FitnessRecord
	Diversity   *diversity.Record
	Hypervolume *HypervolumeSample
	Consumption *budget.Consumption
}

// Status is a Coordinator's view of a run after a generation.
type Status struct {
	// Converged is true when any detector has triggered.
	Converged bool

	// Level is Converged when any detector has triggered, Warning when
	// warnings are present without a trigger, else Running.
	Level StatusLevel

	// Reason identifies the triggering detector, else ReasonNone.
	Reason Reason

	// ShouldStop mirrors Converged.
	ShouldStop bool

	// Warnings lists approaching-but-not-yet-converged conditions.
	Warnings []string

	PlateauDetected      bool
	DiversityCollapsed   bool
	HypervolumeSaturated bool
	BudgetExhausted      bool

	// PlateauGenerations is the plateau detector's current patience counter.
	PlateauGenerations int

	// DiversityScore is the latest pairwise diversity, else nil before any
	// diversity update.
	DiversityScore *float64

	// HypervolumeImprovement is the latest absolute hypervolume improvement,
	// else nil before two hypervolume updates.
	HypervolumeImprovement *float64

	// BudgetRemaining is the number of evaluations left, or unlimited.
	BudgetRemaining budget.Remaining

	// Metadata carries additional diagnostics, including at least "generation",
	// "plateau_patience", and "diversity_trend".
	Metadata map[string]any
}

// Event carries information about detected convergence.
type Event struct {
	// Generation is the coordinator generation at which convergence was
	// detected.
	Generation int

	// Reason identifies the triggering detector.
	Reason Reason
}
