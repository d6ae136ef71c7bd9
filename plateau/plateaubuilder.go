package plateau

import (
	"github.com/converge-go/converge-go/internal/util"
)

const (
	defaultWindowSize           = 5
	defaultPatience             = 5
	defaultImprovementThreshold = .01
	defaultAbsoluteThreshold    = .001
	defaultMaxHistory           = 100
)

// Builder builds plateau Detector instances.
//
// This type is not concurrency safe.
type Builder interface {
	// WithWindowSize configures the number of records in the recent and baseline
	// comparison windows. Zero leaves the default of 5.
	WithWindowSize(windowSize uint) Builder

	// WithPatience configures how many consecutive non-improving window
	// comparisons must occur before a plateau is detected. Zero leaves the
	// default of 5.
	WithPatience(patience uint) Builder

	// WithImprovementThreshold configures the relative improvement above which
	// the recent window counts as improving. The default is .01.
	WithImprovementThreshold(improvementThreshold float64) Builder

	// WithAbsoluteThreshold configures the absolute improvement above which the
	// recent window counts as improving. The default is .001.
	WithAbsoluteThreshold(absoluteThreshold float64) Builder

	// WithMaxHistory configures how many fitness records are retained. Zero
	// leaves the default of 100. Values below twice the window size are raised
	// to it so that a comparison is always possible.
	WithMaxHistory(maxHistory uint) Builder

	// OnPlateau registers the listener to be called once, when a plateau is
	// first detected.
	OnPlateau(listener func(Event)) Builder

	// Build returns a new Detector using the builder's configuration.
	Build() Detector
}

type config struct {
	windowSize           uint
	patience             uint
	improvementThreshold float64
	absoluteThreshold    float64
	maxHistory           uint
	plateauListener      func(Event)
}

var _ Builder = &config{}

// OfDefaults creates a Detector with a window size of 5, a patience of 5, a
// relative improvement threshold of .01, an absolute improvement threshold of
// .001, and a max history of 100. To configure additional options, use
// NewBuilder instead.
func OfDefaults() Detector {
	return NewBuilder().Build()
}

// NewBuilder returns a plateau detector Builder.
func NewBuilder() Builder {
	return &config{
		windowSize:           defaultWindowSize,
		patience:             defaultPatience,
		improvementThreshold: defaultImprovementThreshold,
		absoluteThreshold:    defaultAbsoluteThreshold,
		maxHistory:           defaultMaxHistory,
	}
}

func (c *config) WithWindowSize(windowSize uint) Builder {
	if windowSize > 0 {
		c.windowSize = windowSize
	}
	return c
}

func (c *config) WithPatience(patience uint) Builder {
	if patience > 0 {
		c.patience = patience
	}
	return c
}

func (c *config) WithImprovementThreshold(improvementThreshold float64) Builder {
	c.improvementThreshold = improvementThreshold
	return c
}

func (c *config) WithAbsoluteThreshold(absoluteThreshold float64) Builder {
	c.absoluteThreshold = absoluteThreshold
	return c
}

func (c *config) WithMaxHistory(maxHistory uint) Builder {
	if maxHistory > 0 {
		c.maxHistory = maxHistory
	}
	return c
}

func (c *config) OnPlateau(listener func(Event)) Builder {
	c.plateauListener = listener
	return c
}

func (c *config) Build() Detector {
	cCopy := *c
	if cCopy.maxHistory < 2*cCopy.windowSize {
		cCopy.maxHistory = 2 * cCopy.windowSize
	}
	return &detector{
		config:  &cCopy,
		history: util.NewHistory[FitnessRecord](cCopy.maxHistory),
		stats:   util.NewImprovementWindow(cCopy.maxHistory),
		digest:  util.NewDigest(),
	}
}
