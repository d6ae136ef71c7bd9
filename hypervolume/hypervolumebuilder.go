package hypervolume

import (
	"github.com/converge-go/converge-go/internal/util"
)

const (
	defaultAbsoluteThreshold = .001
	defaultRelativeThreshold = .01
	defaultAverageThreshold  = .005
	defaultWindowSize        = 5
	defaultPatience          = 5
	defaultMaxHistory        = 100
)

// Builder builds hypervolume Tracker instances.
//
// This type is not concurrency safe.
type Builder interface {
	// WithAbsoluteThreshold configures the absolute improvement above which a
	// generation counts as improving. The default is .001.
	WithAbsoluteThreshold(absoluteThreshold float64) Builder

	// WithRelativeThreshold configures the relative improvement above which a
	// generation counts as improving. The default is .01.
	WithRelativeThreshold(relativeThreshold float64) Builder

	// WithAverageThreshold configures the window-average improvement above
	// which a generation counts as improving. The default is .005.
	WithAverageThreshold(averageThreshold float64) Builder

	// WithWindowSize configures how many recent improvements feed the window
	// average. Zero leaves the default of 5.
	WithWindowSize(windowSize uint) Builder

	// WithPatience configures how many consecutive non-improving generations
	// must occur before saturation is declared. Zero leaves the default of 5.
	WithPatience(patience uint) Builder

	// WithMaxHistory configures how many records are retained. Zero leaves the
	// default of 100. Values below the window size are raised to it.
	WithMaxHistory(maxHistory uint) Builder

	// OnSaturation registers the listener to be called once, when saturation is
	// first declared.
	OnSaturation(listener func(Event)) Builder

	// Build returns a new Tracker using the builder's configuration.
	Build() Tracker
}

type config struct {
	absoluteThreshold  float64
	relativeThreshold  float64
	averageThreshold   float64
	windowSize         uint
	patience           uint
	maxHistory         uint
	saturationListener func(Event)
}

var _ Builder = &config{}

// OfDefaults creates a Tracker with an absolute threshold of .001, a relative
// threshold of .01, an average threshold of .005, a window size of 5, a
// patience of 5, and a max history of 100. To configure additional options, use
// NewBuilder instead.
func OfDefaults() Tracker {
	return NewBuilder().Build()
}

// NewBuilder returns a hypervolume tracker Builder.
func NewBuilder() Builder {
	return &config{
		absoluteThreshold: defaultAbsoluteThreshold,
		relativeThreshold: defaultRelativeThreshold,
		averageThreshold:  defaultAverageThreshold,
		windowSize:        defaultWindowSize,
		patience:          defaultPatience,
		maxHistory:        defaultMaxHistory,
	}
}

func (c *config) WithAbsoluteThreshold(absoluteThreshold float64) Builder {
	c.absoluteThreshold = absoluteThreshold
	return c
}

func (c *config) WithRelativeThreshold(relativeThreshold float64) Builder {
	c.relativeThreshold = relativeThreshold
	return c
}

func (c *config) WithAverageThreshold(averageThreshold float64) Builder {
	c.averageThreshold = averageThreshold
	return c
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

func (c *config) WithMaxHistory(maxHistory uint) Builder {
	if maxHistory > 0 {
		c.maxHistory = maxHistory
	}
	return c
}

func (c *config) OnSaturation(listener func(Event)) Builder {
	c.saturationListener = listener
	return c
}

func (c *config) Build() Tracker {
	cCopy := *c
	if cCopy.maxHistory < cCopy.windowSize {
		cCopy.maxHistory = cCopy.windowSize
	}
	return &tracker{
		config:  &cCopy,
		history: util.NewHistory[record](cCopy.maxHistory),
		stats:   util.NewImprovementWindow(cCopy.maxHistory),
	}
}
