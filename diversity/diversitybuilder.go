package diversity

import (
	"github.com/converge-go/converge-go/internal/util"
)

const (
	defaultCriticalThreshold = .15
	defaultWarningThreshold  = .30
	defaultTrendWindow       = 5
	defaultPatience          = 3
	defaultMaxHistory        = 100
)

// Builder builds diversity Monitor instances.
//
// This type is not concurrency safe.
type Builder interface {
	// WithCriticalThreshold configures the diversity value below which a
	// generation counts toward collapse. The default is .15.
	WithCriticalThreshold(criticalThreshold float64) Builder

	// WithWarningThreshold configures the diversity value below which the
	// monitor reports the warning zone. The default is .30.
	WithWarningThreshold(warningThreshold float64) Builder

	// WithTrendWindow configures how many recent records feed the trend
	// regression. Zero leaves the default of 5.
	WithTrendWindow(trendWindow uint) Builder

	// WithPatience configures how many consecutive below-critical generations
	// must occur before collapse is declared. Zero leaves the default of 3.
	WithPatience(patience uint) Builder

	// WithMaxHistory configures how many diversity records are retained. Zero
	// leaves the default of 100. Values below the trend window are raised to it.
	WithMaxHistory(maxHistory uint) Builder

	// OnCollapse registers the listener to be called once, when collapse is
	// first declared.
	OnCollapse(listener func(Event)) Builder

	// Build returns a new Monitor using the builder's configuration.
	Build() Monitor
}

type config struct {
	criticalThreshold float64
	warningThreshold  float64
	trendWindow       uint
	patience          uint
	maxHistory        uint
	collapseListener  func(Event)
}

var _ Builder = &config{}

// OfDefaults creates a Monitor with a critical threshold of .15, a warning
// threshold of .30, a trend window of 5, a patience of 3, and a max history of
// 100. To configure additional options, use NewBuilder instead.
func OfDefaults() Monitor {
	return NewBuilder().Build()
}

// NewBuilder returns a diversity monitor Builder.
func NewBuilder() Builder {
	return &config{
		criticalThreshold: defaultCriticalThreshold,
		warningThreshold:  defaultWarningThreshold,
		trendWindow:       defaultTrendWindow,
		patience:          defaultPatience,
		maxHistory:        defaultMaxHistory,
	}
}

func (c *config) WithCriticalThreshold(criticalThreshold float64) Builder {
	c.criticalThreshold = criticalThreshold
	return c
}

func (c *config) WithWarningThreshold(warningThreshold float64) Builder {
	c.warningThreshold = warningThreshold
	return c
}

func (c *config) WithTrendWindow(trendWindow uint) Builder {
	if trendWindow > 0 {
		c.trendWindow = trendWindow
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

func (c *config) OnCollapse(listener func(Event)) Builder {
	c.collapseListener = listener
	return c
}

func (c *config) Build() Monitor {
	cCopy := *c
	if cCopy.maxHistory < cCopy.trendWindow {
		cCopy.maxHistory = cCopy.trendWindow
	}
	return &monitor{
		config:  &cCopy,
		history: util.NewHistory[Record](cCopy.maxHistory),
		trend:   TrendUnknown,
	}
}
