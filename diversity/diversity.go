package diversity

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/converge-go/converge-go/internal/util"
)

// ErrNonFiniteDiversity is returned when a record contains a NaN or infinite
// value.
var ErrNonFiniteDiversity = errors.New("non-finite diversity value")

// ErrDiversityRange is returned when a pairwise diversity or convergence risk
// value falls outside [0, 1].
var ErrDiversityRange = errors.New("diversity value outside [0, 1]")

// ErrGenerationOrder is returned when a record's generation precedes the latest
// recorded generation.
var ErrGenerationOrder = errors.New("generation went backwards")

// Level classifies a pairwise diversity value for presentation. Thresholding
// uses the numeric value directly.
type Level int

const (
	LevelUnknown Level = iota
	LevelCritical
	LevelLow
	LevelModerate
	LevelHealthy
	LevelExcellent
)

// LevelOf classifies a pairwise diversity value: excellent at .70 and above,
// healthy at .50, moderate at .30, low at .15, else critical.
func LevelOf(pairwise float64) Level {
	switch {
	case pairwise >= .70:
		return LevelExcellent
	case pairwise >= .50:
		return LevelHealthy
	case pairwise >= .30:
		return LevelModerate
	case pairwise >= .15:
		return LevelLow
	default:
		return LevelCritical
	}
}

func (l Level) String() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelLow:
		return "low"
	case LevelModerate:
		return "moderate"
	case LevelHealthy:
		return "healthy"
	case LevelExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// Trend is the direction of recent diversity movement, estimated by linear
// regression over the trend window.
type Trend int

const (
	TrendUnknown Trend = iota
	TrendIncreasing
	TrendStable
	TrendDecreasing
)

func (t Trend) String() string {
	switch t {
	case TrendIncreasing:
		return "increasing"
	case TrendStable:
		return "stable"
	case TrendDecreasing:
		return "decreasing"
	default:
		return "unknown"
	}
}

// Regression slopes within this epsilon of zero classify as stable.
const trendEpsilon = .01

// Record describes population diversity for a single generation. A zero Level
// is filled in from Pairwise on update.
type Record struct {
	Generation      int
	Pairwise        float64
	Level           Level
	ConvergenceRisk float64
}

// Event carries information about a detected diversity collapse.
type Event struct {
	// Generation is the generation whose record crossed the patience line.
	Generation int

	// Pairwise is the diversity value at the time of collapse.
	Pairwise float64
}

// Monitor signals when population diversity has collapsed below a critical
// level for a patience period, and exposes a trend estimate for early warnings.
// See Builder for configuration options.
//
// This type is concurrency safe.
type Monitor interface {
	Metrics

	// Update prepends the record to the monitor's history, re-estimates the
	// trend, and re-evaluates collapse status. Returns ErrNonFiniteDiversity,
	// ErrDiversityRange, or ErrGenerationOrder if the record is invalid, in
	// which case it is not incorporated into history.
	Update(record Record) error

	// Collapsed returns whether diversity has collapsed. Once true, it remains
	// true until Reset is called.
	Collapsed() bool

	// InWarningZone returns whether the current diversity sits below the
	// warning threshold but at or above the critical threshold. Returns false
	// on an empty history.
	InWarningZone() bool

	// Reset empties the monitor's history and zeroes its counters, retaining
	// the configuration.
	Reset()
}

// Metrics provides info about a diversity Monitor.
//
// This type is concurrency safe.
type Metrics interface {
	// Trend returns the regression-estimated diversity trend, else TrendUnknown
	// until the trend window has filled.
	Trend() Trend

	// Current returns the latest pairwise diversity, else false on an empty
	// history.
	Current() (float64, bool)

	// CurrentLevel returns the classification of the latest record, else
	// LevelUnknown on an empty history.
	CurrentLevel() Level

	// PatienceCount returns the number of consecutive below-critical
	// generations. The counter keeps growing past the patience line.
	PatienceCount() int

	// Patience returns the configured patience.
	Patience() uint

	// HistorySize returns the number of diversity records currently held.
	HistorySize() int
}

type monitor struct {
	config *config
	mtx    sync.Mutex

	// Guarded by mtx
	history       *util.History[Record]
	trend         Trend
	patienceCount int
	collapsed     bool
}

var _ Monitor = &monitor{}

func (m *monitor) Update(record Record) error {
	if math.IsNaN(record.Pairwise) || math.IsInf(record.Pairwise, 0) ||
		math.IsNaN(record.ConvergenceRisk) || math.IsInf(record.ConvergenceRisk, 0) {
		return fmt.Errorf("%w in generation %d", ErrNonFiniteDiversity, record.Generation)
	}
	if record.Pairwise < 0 || record.Pairwise > 1 || record.ConvergenceRisk < 0 || record.ConvergenceRisk > 1 {
		return fmt.Errorf("%w in generation %d", ErrDiversityRange, record.Generation)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if latest, ok := m.history.Latest(); ok && record.Generation < latest.Generation {
		return fmt.Errorf("%w: %d after %d", ErrGenerationOrder, record.Generation, latest.Generation)
	}

	if record.Level == LevelUnknown {
		record.Level = LevelOf(record.Pairwise)
	}
	m.history.Push(record)
	m.trend = m.estimateTrend()

	if record.Pairwise < m.config.criticalThreshold {
		m.patienceCount++
	} else {
		m.patienceCount = 0
	}
	if !m.collapsed && m.patienceCount >= int(m.config.patience) {
		m.collapsed = true
		if m.config.collapseListener != nil {
			m.config.collapseListener(Event{
				Generation: record.Generation,
				Pairwise:   record.Pairwise,
			})
		}
	}
	return nil
}

// Requires locking externally. Fits an ordinary least-squares line through the
// newest trendWindow records, with x coordinates assigned oldest to newest.
func (m *monitor) estimateTrend() Trend {
	window := int(m.config.trendWindow)
	if m.history.Len() < window {
		return TrendUnknown
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := 0; i < window; i++ {
		x := float64(window - 1 - i)
		y := m.history.At(i).Pairwise
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	n := float64(window)
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		// Degenerate with a single point; treated as no movement
		return TrendStable
	}

	switch slope := (n*sumXY - sumX*sumY) / denominator; {
	case slope > trendEpsilon:
		return TrendIncreasing
	case slope < -trendEpsilon:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func (m *monitor) Collapsed() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.collapsed
}

func (m *monitor) InWarningZone() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	latest, ok := m.history.Latest()
	if !ok {
		return false
	}
	return latest.Pairwise < m.config.warningThreshold && latest.Pairwise >= m.config.criticalThreshold
}

func (m *monitor) Trend() Trend {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.trend
}

func (m *monitor) Current() (float64, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	latest, ok := m.history.Latest()
	if !ok {
		return 0, false
	}
	return latest.Pairwise, true
}

func (m *monitor) CurrentLevel() Level {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	latest, ok := m.history.Latest()
	if !ok {
		return LevelUnknown
	}
	return latest.Level
}

func (m *monitor) PatienceCount() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.patienceCount
}

func (m *monitor) Patience() uint {
	return m.config.patience
}

func (m *monitor) HistorySize() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.history.Len()
}

func (m *monitor) Reset() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.history.Reset()
	m.trend = TrendUnknown
	m.patienceCount = 0
	m.collapsed = false
}
