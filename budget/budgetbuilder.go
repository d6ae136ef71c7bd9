package budget

import (
	"time"

	"github.com/converge-go/converge-go/internal/util"
)

// Builder builds budget Manager instances. A limit left unset is unlimited.
//
// This type is not concurrency safe.
type Builder interface {
	// WithMaxEvaluations configures the evaluation limit. Zero means unlimited.
	WithMaxEvaluations(maxEvaluations uint) Builder

	// WithMaxTokens configures the token limit. Zero means unlimited.
	WithMaxTokens(maxTokens uint) Builder

	// WithMaxCost configures the cost limit. Zero means unlimited.
	WithMaxCost(maxCost float64) Builder

	// WithMaxDuration configures the wall-clock limit, measured from Build or
	// the last Reset. Zero means unlimited.
	WithMaxDuration(maxDuration time.Duration) Builder

	// OnExhausted registers the listener to be called once, when a limit is
	// first reached.
	OnExhausted(listener func(Event)) Builder

	// Build returns a new Manager using the builder's configuration.
	Build() Manager
}

type config struct {
	maxEvaluations    uint
	maxTokens         uint
	maxCost           float64
	maxDuration       time.Duration
	exhaustedListener func(Event)
	clock             util.Clock
}

var _ Builder = &config{}

// OfDefaults creates a Manager with no limits configured.
func OfDefaults() Manager {
	return NewBuilder().Build()
}

// NewBuilder returns a budget manager Builder.
func NewBuilder() Builder {
	return &config{
		clock: util.NewClock(),
	}
}

func (c *config) WithMaxEvaluations(maxEvaluations uint) Builder {
	c.maxEvaluations = maxEvaluations
	return c
}

func (c *config) WithMaxTokens(maxTokens uint) Builder {
	c.maxTokens = maxTokens
	return c
}

func (c *config) WithMaxCost(maxCost float64) Builder {
	c.maxCost = maxCost
	return c
}

func (c *config) WithMaxDuration(maxDuration time.Duration) Builder {
	c.maxDuration = maxDuration
	return c
}

func (c *config) OnExhausted(listener func(Event)) Builder {
	c.exhaustedListener = listener
	return c
}

func (c *config) Build() Manager {
	cCopy := *c
	return &manager{
		config:    &cCopy,
		stopwatch: util.NewStopwatch(cCopy.clock),
	}
}
