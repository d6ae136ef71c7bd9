package plateau

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/converge-go/converge-go/internal/util"
)

// ErrNonFiniteFitness is returned when a fitness record contains a NaN or
// infinite value.
var ErrNonFiniteFitness = errors.New("non-finite fitness value")

// ErrNegativeStdDev is returned when a fitness record carries a negative
// standard deviation.
var ErrNegativeStdDev = errors.New("negative fitness std dev")

// ErrGenerationOrder is returned when a record's generation precedes the latest
// recorded generation.
var ErrGenerationOrder = errors.New("generation went backwards")

// FitnessRecord describes the fitness of a candidate population for a single
// generation. Records are immutable once added to a detector's history.
type FitnessRecord struct {
	Generation    int
	BestFitness   float64
	MeanFitness   float64
	MedianFitness float64
	StdDev        float64
}

// Event carries information about a detected plateau.
type Event struct {
	// Generation is the generation whose record crossed the patience line.
	Generation int

	// PatienceCount is the patience counter value at the time of detection.
	PatienceCount int
}

// Detector signals when successive best-fitness values over a recent window are
// no longer outperforming an earlier baseline window by a meaningful amount,
// held for a patience period. See Builder for configuration options.
//
// This type is concurrency safe.
type Detector interface {
	Metrics

	// Update prepends the record to the detector's history and re-evaluates
	// plateau status. Returns ErrNonFiniteFitness, ErrNegativeStdDev, or
	// ErrGenerationOrder if the record is invalid, in which case it is not
	// incorporated into history.
	Update(record FitnessRecord) error

	// Detected returns whether a plateau has been detected. Once true, it
	// remains true until Reset is called.
	Detected() bool

	// Reset empties the detector's history and zeroes its counters, retaining
	// the configuration.
	Reset()
}

// Metrics provides info about a plateau Detector.
//
// This type is concurrency safe.
type Metrics interface {
	// PatienceCount returns the number of consecutive non-improving window
	// comparisons. The counter keeps growing past the patience line.
	PatienceCount() int

	// Patience returns the configured patience.
	Patience() uint

	// HistorySize returns the number of fitness records currently held.
	HistorySize() int

	// LastImprovement returns the absolute and relative improvement of the most
	// recent window comparison, else false if two full windows haven't been
	// observed yet.
	LastImprovement() (absolute float64, relative float64, ok bool)

	// ImprovementRate returns the percentage of windowed comparisons that
	// improved, else 0 before any comparison has run.
	ImprovementRate() uint

	// FitnessQuantile returns the estimated q quantile of all best-fitness
	// values observed since the last Reset, else 0 before any update.
	FitnessQuantile(q float64) float64
}

type detector struct {
	config *config
	mtx    sync.Mutex

	// Guarded by mtx
	history         *util.History[FitnessRecord]
	stats           *util.ImprovementWindow
	digest          *util.Digest
	patienceCount   int
	detected        bool
	lastAbsolute    float64
	lastRelative    float64
	haveImprovement bool
}

var _ Detector = &detector{}

func (d *detector) Update(record FitnessRecord) error {
	if !isFinite(record.BestFitness) || !isFinite(record.MeanFitness) ||
		!isFinite(record.MedianFitness) || !isFinite(record.StdDev) {
		return fmt.Errorf("%w in generation %d", ErrNonFiniteFitness, record.Generation)
	}
	if record.StdDev < 0 {
		return fmt.Errorf("%w in generation %d", ErrNegativeStdDev, record.Generation)
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	if latest, ok := d.history.Latest(); ok && record.Generation < latest.Generation {
		return fmt.Errorf("%w: %d after %d", ErrGenerationOrder, record.Generation, latest.Generation)
	}

	d.history.Push(record)
	d.digest.Add(record.BestFitness)
	d.evaluate(record.Generation)
	return nil
}

// Requires locking externally
func (d *detector) evaluate(generation int) {
	windowSize := int(d.config.windowSize)
	if d.history.Len() < 2*windowSize {
		// Insufficient evidence; the patience counter is left untouched.
		return
	}

	var recentSum, baselineSum float64
	for i := 0; i < windowSize; i++ {
		recentSum += d.history.At(i).BestFitness
	}
	for i := windowSize; i < 2*windowSize; i++ {
		baselineSum += d.history.At(i).BestFitness
	}
	recentMean := recentSum / float64(windowSize)
	baselineMean := baselineSum / float64(windowSize)

	absolute := recentMean - baselineMean
	relative := 0.0
	if baselineMean > 0 {
		relative = absolute / baselineMean
	}
	d.lastAbsolute = absolute
	d.lastRelative = relative
	d.haveImprovement = true

	improving := absolute > d.config.absoluteThreshold || relative > d.config.improvementThreshold
	d.stats.Record(improving)
	if improving {
		d.patienceCount = 0
	} else {
		d.patienceCount++
	}

	if !d.detected && d.patienceCount >= int(d.config.patience) {
		d.detected = true
		if d.config.plateauListener != nil {
			d.config.plateauListener(Event{
				Generation:    generation,
				PatienceCount: d.patienceCount,
			})
		}
	}
}

func (d *detector) Detected() bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.detected
}

func (d *detector) PatienceCount() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.patienceCount
}

func (d *detector) Patience() uint {
	return d.config.patience
}

func (d *detector) HistorySize() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.history.Len()
}

func (d *detector) LastImprovement() (absolute float64, relative float64, ok bool) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.lastAbsolute, d.lastRelative, d.haveImprovement
}

func (d *detector) ImprovementRate() uint {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.stats.ImprovementRate()
}

func (d *detector) FitnessQuantile(q float64) float64 {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.digest.Quantile(q)
}

func (d *detector) Reset() {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.history.Reset()
	d.stats.Reset()
	d.digest.Reset()
	d.patienceCount = 0
	d.detected = false
	d.lastAbsolute = 0
	d.lastRelative = 0
	d.haveImprovement = false
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
