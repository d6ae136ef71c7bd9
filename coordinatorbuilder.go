package converge

import (
	"log/slog"

	"github.com/converge-go/converge-go/budget"
	"github.com/converge-go/converge-go/diversity"
	"github.com/converge-go/converge-go/hypervolume"
	"github.com/converge-go/converge-go/plateau"
)

// Builder builds Coordinator instances. Detectors left unset are built with
// their defaults.
//
// This type is not concurrency safe.
type Builder interface {
	// WithPlateauDetector configures the fitness plateau detector. The
	// coordinator takes exclusive ownership of it.
	WithPlateauDetector(detector plateau.Detector) Builder

	// WithDiversityMonitor configures the diversity monitor. The coordinator
	// takes exclusive ownership of it.
	WithDiversityMonitor(monitor diversity.Monitor) Builder

	// WithHypervolumeTracker configures the hypervolume tracker. The
	// coordinator takes exclusive ownership of it.
	WithHypervolumeTracker(tracker hypervolume.Tracker) Builder

	// WithBudgetManager configures the budget manager. The coordinator takes
	// exclusive ownership of it.
	WithBudgetManager(manager budget.Manager) Builder

	// WithLogger configures a logger which provides debug logging of detected
	// convergence.
	WithLogger(logger *slog.Logger) Builder

	// OnConverged registers the listener to be called once, when convergence is
	// first detected.
	OnConverged(listener func(Event)) Builder

	// Build returns a new Coordinator using the builder's configuration.
	Build() Coordinator
}

type config struct {
	plateauDetector    plateau.Detector
	diversityMonitor   diversity.Monitor
	hypervolumeTracker hypervolume.Tracker
	budgetManager      budget.Manager
	logger             *slog.Logger
	convergedListener  func(Event)
}

var _ Builder = &config{}

// OfDefaults creates a Coordinator whose four detectors use their default
// configurations and whose budget is unlimited. To configure options, use
// NewBuilder instead.
func OfDefaults() Coordinator {
	return NewBuilder().Build()
}

// NewBuilder returns a Coordinator Builder.
func NewBuilder() Builder {
	return &config{}
}

func (c *config) WithPlateauDetector(detector plateau.Detector) Builder {
	c.plateauDetector = detector
	return c
}

func (c *config) WithDiversityMonitor(monitor diversity.Monitor) Builder {
	c.diversityMonitor = monitor
	return c
}

func (c *config) WithHypervolumeTracker(tracker hypervolume.Tracker) Builder {
	c.hypervolumeTracker = tracker
	return c
}

func (c *config) WithBudgetManager(manager budget.Manager) Builder {
	c.budgetManager = manager
	return c
}

func (c *config) WithLogger(logger *slog.Logger) Builder {
	c.logger = logger
	return c
}

func (c *config) OnConverged(listener func(Event)) Builder {
	c.convergedListener = listener
	return c
}

func (c *config) Build() Coordinator {
	cCopy := *c
	if cCopy.plateauDetector == nil {
		cCopy.plateauDetector = plateau.OfDefaults()
	}
	if cCopy.diversityMonitor == nil {
		cCopy.diversityMonitor = diversity.OfDefaults()
	}
	if cCopy.hypervolumeTracker == nil {
		cCopy.hypervolumeTracker = hypervolume.OfDefaults()
	}
	if cCopy.budgetManager == nil {
		cCopy.budgetManager = budget.OfDefaults()
	}
	return &coordinator{
		config: &cCopy,
	}
}
