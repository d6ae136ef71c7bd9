package hypervolume

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/converge-go/converge-go/internal/util"
)

// ErrNonFiniteHypervolume is returned when a hypervolume value is NaN or
// infinite.
var ErrNonFiniteHypervolume = errors.New("non-finite hypervolume value")

// ErrNegativeHypervolume is returned when a hypervolume value is negative.
var ErrNegativeHypervolume = errors.New("negative hypervolume value")

// ErrGenerationOrder is returned when an explicit generation precedes the
// latest recorded generation.
var ErrGenerationOrder = errors.New("generation went backwards")

// record is one hypervolume observation. Improvement fields are filled in once,
// at insertion time, when a previous record exists.
type record struct {
	generation          int
	hypervolume         float64
	absoluteImprovement float64
	relativeImprovement float64
	improvementKnown    bool
}

// Event carries information about detected saturation.
type Event struct {
	// Generation is the generation whose record crossed the patience line.
	Generation int

	// Hypervolume is the frontier volume at the time of saturation.
	Hypervolume float64
}

// Tracker signals saturation of Pareto-frontier growth by requiring the
// absolute, relative, and window-average improvement measures to all fall under
// their thresholds for a patience period. See Builder for configuration options.
//
// This type is concurrency safe.
type Tracker interface {
	Metrics

	// Update records a hypervolume observation, assigning the next generation
	// number automatically, and re-evaluates saturation. Returns
	// ErrNonFiniteHypervolume or ErrNegativeHypervolume if the value is
	// invalid, in which case it is not incorporated into history.
	Update(hypervolume float64) error

	// UpdateAt records a hypervolume observation for an explicit generation.
	// Additionally returns ErrGenerationOrder if the generation precedes the
	// latest recorded one.
	UpdateAt(generation int, hypervolume float64) error

	// Saturated returns whether frontier growth has saturated. Once true, it
	// remains true until Reset is called.
	Saturated() bool

	// Reset empties the tracker's history and zeroes its counters, retaining
	// the configuration.
	Reset()
}

// Metrics provides info about a hypervolume Tracker.
//
// This type is concurrency safe.
type Metrics interface {
	// Current returns the latest hypervolume, else false on an empty history.
	Current() (float64, bool)

	// RecentImprovement returns the latest absolute improvement, else false
	// before two observations have been recorded.
	RecentImprovement() (float64, bool)

	// AverageImprovementRate returns the mean of the absolute improvements over
	// the most recent window, else 0 before two observations have been
	// recorded.
	AverageImprovementRate() float64

	// PatienceCount returns the number of consecutive non-improving
	// generations. The counter keeps growing past the patience line.
	PatienceCount() int

	// Patience returns the configured patience.
	Patience() uint

	// HistorySize returns the number of records currently held.
	HistorySize() int

	// ImprovementRate returns the percentage of windowed observations that
	// improved, else 0 before any comparison has run.
	ImprovementRate() uint
}

type tracker struct {
	config *config
	mtx    sync.Mutex

	// Guarded by mtx
	history       *util.History[record]
	stats         *util.ImprovementWindow
	patienceCount int
	saturated     bool
}

var _ Tracker = &tracker{}

func (t *tracker) Update(hypervolume float64) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	generation := 1
	if latest, ok := t.history.Latest(); ok {
		generation = latest.generation + 1
	}
	return t.update(generation, hypervolume)
}

func (t *tracker) UpdateAt(generation int, hypervolume float64) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if latest, ok := t.history.Latest(); ok && generation < latest.generation {
		return fmt.Errorf("%w: %d after %d", ErrGenerationOrder, generation, latest.generation)
	}
	return t.update(generation, hypervolume)
}

// Requires locking externally
func (t *tracker) update(generation int, hypervolume float64) error {
	if math.IsNaN(hypervolume) || math.IsInf(hypervolume, 0) {
		return fmt.Errorf("%w in generation %d", ErrNonFiniteHypervolume, generation)
	}
	if hypervolume < 0 {
		return fmt.Errorf("%w in generation %d", ErrNegativeHypervolume, generation)
	}

	current := record{generation: generation, hypervolume: hypervolume}
	t.history.Push(current)
	if t.history.Len() < 2 {
		return nil
	}

	previous := t.history.At(1)
	absolute := hypervolume - previous.hypervolume
	relative := 0.0
	if previous.hypervolume > 0 {
		relative = absolute / previous.hypervolume
	}
	current.absoluteImprovement = absolute
	current.relativeImprovement = relative
	current.improvementKnown = true
	t.history.SetAt(0, current)

	averageRate := t.averageImprovementRate()
	improving := absolute > t.config.absoluteThreshold ||
		relative > t.config.relativeThreshold ||
		averageRate > t.config.averageThreshold
	t.stats.Record(improving)
	if improving {
		t.patienceCount = 0
	} else {
		t.patienceCount++
	}

	if !t.saturated && t.patienceCount >= int(t.config.patience) {
		t.saturated = true
		if t.config.saturationListener != nil {
			t.config.saturationListener(Event{
				Generation:  generation,
				Hypervolume: hypervolume,
			})
		}
	}
	return nil
}

// Requires locking externally
func (t *tracker) averageImprovementRate() float64 {
	if t.history.Len() < 2 {
		return 0
	}

	window := int(t.config.windowSize)
	if t.history.Len() < window {
		window = t.history.Len()
	}
	var sum float64
	var count int
	for i := 0; i < window; i++ {
		if rec := t.history.At(i); rec.improvementKnown {
			sum += rec.absoluteImprovement
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func (t *tracker) Saturated() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.saturated
}

func (t *tracker) Current() (float64, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	latest, ok := t.history.Latest()
	if !ok {
		return 0, false
	}
	return latest.hypervolume, true
}

func (t *tracker) RecentImprovement() (float64, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	latest, ok := t.history.Latest()
	if !ok || !latest.improvementKnown {
		return 0, false
	}
	return latest.absoluteImprovement, true
}

func (t *tracker) AverageImprovementRate() float64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.averageImprovementRate()
}

func (t *tracker) PatienceCount() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.patienceCount
}

func (t *tracker) Patience() uint {
	return t.config.patience
}

func (t *tracker) HistorySize() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.history.Len()
}

func (t *tracker) ImprovementRate() uint {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.stats.ImprovementRate()
}

func (t *tracker) Reset() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.history.Reset()
	t.stats.Reset()
	t.patienceCount = 0
	t.saturated = false
}
