package budget

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/converge-go/converge-go/internal/util"
)

// ErrNegativeAmount is returned when a consumption record carries a negative or
// non-finite cost.
var ErrNegativeAmount = errors.New("invalid consumption amount")

// Resource identifies a budgeted resource kind.
type Resource string

const (
	Evaluations = Resource("evaluations")
	Tokens      = Resource("tokens")
	Cost        = Resource("cost")
	WallClock   = Resource("wall_clock")
)

// Consumption records amounts consumed during a generation. Amounts accumulate
// across calls.
type Consumption struct {
	Evaluations uint
	Tokens      uint
	Cost        float64
}

// Remaining is a remaining resource count, which may be unlimited.
type Remaining struct {
	N         uint
	Unlimited bool
}

func (r Remaining) String() string {
	if r.Unlimited {
		return "unlimited"
	}
	return strconv.FormatUint(uint64(r.N), 10)
}

// Event carries information about budget exhaustion.
type Event struct {
	// Resource is the resource whose limit was reached.
	Resource Resource
}

// Manager tracks resource consumption against optional evaluation, token, cost,
// and wall-clock limits. See Builder for configuration options.
//
// This type is concurrency safe.
type Manager interface {
	Metrics

	// RecordConsumption adds the amounts to the running totals. Returns
	// ErrNegativeAmount if the cost is negative or non-finite, in which case
	// nothing is recorded.
	RecordConsumption(consumption Consumption) error

	// Exhausted returns whether any configured limit has been met or exceeded.
	// Once true, it remains true until Reset is called.
	Exhausted() bool

	// Reset zeroes the running totals and restarts the wall clock, retaining
	// the configuration.
	Reset()
}

// Metrics provides info about a budget Manager.
//
// This type is concurrency safe.
type Metrics interface {
	// RemainingEvaluations returns the number of evaluations left under the
	// configured limit, else an unlimited Remaining when no limit is set.
	RemainingEvaluations() Remaining

	// MaxEvaluations returns the configured evaluation limit and whether one is
	// set.
	MaxEvaluations() (uint, bool)

	// ConsumedEvaluations returns the total evaluations recorded.
	ConsumedEvaluations() uint

	// ConsumedTokens returns the total tokens recorded.
	ConsumedTokens() uint

	// ConsumedCost returns the total cost recorded.
	ConsumedCost() float64

	// Elapsed returns the wall-clock time since Build or the last Reset.
	Elapsed() time.Duration
}

type manager struct {
	config    *config
	stopwatch util.Stopwatch
	mtx       sync.Mutex

	// Guarded by mtx
	evaluations uint
	tokens      uint
	cost        float64
	exhausted   bool
}

var _ Manager = &manager{}

func (m *manager) RecordConsumption(consumption Consumption) error {
	if consumption.Cost < 0 || math.IsNaN(consumption.Cost) || math.IsInf(consumption.Cost, 0) {
		return fmt.Errorf("%w: cost %v", ErrNegativeAmount, consumption.Cost)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.evaluations += consumption.Evaluations
	m.tokens += consumption.Tokens
	m.cost += consumption.Cost
	m.checkLimits()
	return nil
}

func (m *manager) Exhausted() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.checkLimits()
	return m.exhausted
}

// Requires locking externally
func (m *manager) checkLimits() {
	if m.exhausted {
		return
	}

	var exceeded Resource
	switch {
	case m.config.maxEvaluations > 0 && m.evaluations >= m.config.maxEvaluations:
		exceeded = Evaluations
	case m.config.maxTokens > 0 && m.tokens >= m.config.maxTokens:
		exceeded = Tokens
	case m.config.maxCost > 0 && m.cost >= m.config.maxCost:
		exceeded = Cost
	case m.config.maxDuration > 0 && m.stopwatch.ElapsedTime() >= m.config.maxDuration:
		exceeded = WallClock
	default:
		return
	}

	m.exhausted = true
	if m.config.exhaustedListener != nil {
		m.config.exhaustedListener(Event{Resource: exceeded})
	}
}

func (m *manager) RemainingEvaluations() Remaining {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.config.maxEvaluations == 0 {
		return Remaining{Unlimited: true}
	}
	if m.evaluations >= m.config.maxEvaluations {
		return Remaining{}
	}
	return Remaining{N: m.config.maxEvaluations - m.evaluations}
}

func (m *manager) MaxEvaluations() (uint, bool) {
	return m.config.maxEvaluations, m.config.maxEvaluations > 0
}

func (m *manager) ConsumedEvaluations() uint {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.evaluations
}

func (m *manager) ConsumedTokens() uint {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.tokens
}

func (m *manager) ConsumedCost() float64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.cost
}

func (m *manager) Elapsed() time.Duration {
	return m.stopwatch.ElapsedTime()
}

func (m *manager) Reset() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.evaluations = 0
	m.tokens = 0
	m.cost = 0
	m.exhausted = false
	m.stopwatch.Reset()
}
