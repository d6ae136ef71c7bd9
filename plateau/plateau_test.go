package plateau

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ Detector = &detector{}

func record(generation int, bestFitness float64) FitnessRecord {
	return FitnessRecord{
		Generation:    generation,
		BestFitness:   bestFitness,
		MeanFitness:   bestFitness * .9,
		MedianFitness: bestFitness * .9,
		StdDev:        .05,
	}
}

func TestImprovingRunNeverPlateaus(t *testing.T) {
	d := OfDefaults()

	for g := 1; g <= 20; g++ {
		assert.NoError(t, d.Update(record(g, .5+.05*float64(g))))
	}

	assert.False(t, d.Detected())
	assert.Equal(t, 0, d.PatienceCount())
}

func TestConstantRunPlateaus(t *testing.T) {
	// Given
	d := OfDefaults()

	// When: 2 * windowSize + patience constant generations
	for g := 1; g <= 15; g++ {
		assert.NoError(t, d.Update(record(g, .75)))
	}

	// Then
	assert.True(t, d.Detected())
	assert.GreaterOrEqual(t, d.PatienceCount(), 5)
}

func TestPreWindowPhaseLeavesPatienceUntouched(t *testing.T) {
	d := OfDefaults()

	// One record short of two full windows
	for g := 1; g <= 9; g++ {
		assert.NoError(t, d.Update(record(g, .5)))
	}

	assert.False(t, d.Detected())
	assert.Equal(t, 0, d.PatienceCount())
	_, _, ok := d.LastImprovement()
	assert.False(t, ok)
}

func TestWindowComparison(t *testing.T) {
	d := NewBuilder().WithWindowSize(2).Build()

	d.Update(record(1, 1))
	d.Update(record(2, 2))
	d.Update(record(3, 3))
	d.Update(record(4, 4))

	absolute, relative, ok := d.LastImprovement()
	assert.True(t, ok)
	assert.InDelta(t, 2, absolute, .0001)
	assert.InDelta(t, 2.0/1.5, relative, .0001)
	assert.Equal(t, 0, d.PatienceCount())
}

func TestZeroBaselineYieldsZeroRelativeImprovement(t *testing.T) {
	d := NewBuilder().WithWindowSize(1).WithPatience(1).Build()

	d.Update(record(1, 0))
	d.Update(record(2, 0))

	_, relative, ok := d.LastImprovement()
	assert.True(t, ok)
	assert.Equal(t, float64(0), relative)
	assert.True(t, d.Detected())
}

func TestEqualImprovementDoesNotCount(t *testing.T) {
	// Thresholds are strict; an improvement exactly at the absolute threshold
	// stalls the counter
	d := NewBuilder().
		WithWindowSize(1).
		WithPatience(2).
		WithAbsoluteThreshold(.125).
		WithImprovementThreshold(10).
		Build()

	d.Update(record(1, 1.0))
	d.Update(record(2, 1.125))
	d.Update(record(3, 1.25))

	assert.Equal(t, 2, d.PatienceCount())
	assert.True(t, d.Detected())
}

func TestDetectionLatchesUntilReset(t *testing.T) {
	// Given
	d := NewBuilder().WithWindowSize(2).WithPatience(2).Build()
	for g := 1; g <= 6; g++ {
		d.Update(record(g, .5))
	}
	assert.True(t, d.Detected())

	// When: strongly improving records arrive after detection
	d.Update(record(7, 5))
	d.Update(record(8, 10))

	// Then: the counter snaps back but the trigger holds
	assert.Equal(t, 0, d.PatienceCount())
	assert.True(t, d.Detected())

	// When
	d.Reset()

	// Then
	assert.False(t, d.Detected())
	assert.Equal(t, 0, d.PatienceCount())
	assert.Equal(t, 0, d.HistorySize())
}

func TestPatienceCounterGrowsPastPatience(t *testing.T) {
	d := NewBuilder().WithWindowSize(1).WithPatience(2).Build()

	for g := 1; g <= 8; g++ {
		d.Update(record(g, .5))
	}

	assert.True(t, d.Detected())
	assert.Equal(t, 7, d.PatienceCount())
}

func TestRejectsInvalidRecords(t *testing.T) {
	d := OfDefaults()
	assert.NoError(t, d.Update(record(1, .5)))

	err := d.Update(record(2, math.NaN()))
	assert.ErrorIs(t, err, ErrNonFiniteFitness)

	err = d.Update(record(2, math.Inf(1)))
	assert.ErrorIs(t, err, ErrNonFiniteFitness)

	invalid := record(2, .5)
	invalid.StdDev = -1
	assert.ErrorIs(t, d.Update(invalid), ErrNegativeStdDev)

	assert.ErrorIs(t, d.Update(record(0, .5)), ErrGenerationOrder)

	// Rejected records are never incorporated
	assert.Equal(t, 1, d.HistorySize())
}

func TestHistoryBounded(t *testing.T) {
	d := NewBuilder().WithMaxHistory(10).Build()

	for g := 1; g <= 50; g++ {
		d.Update(record(g, float64(g)))
	}

	assert.Equal(t, 10, d.HistorySize())
}

func TestMaxHistoryRaisedToTwoWindows(t *testing.T) {
	d := NewBuilder().WithWindowSize(5).WithMaxHistory(3).Build()

	for g := 1; g <= 10; g++ {
		d.Update(record(g, .5))
	}

	// A comparison must still be possible
	_, _, ok := d.LastImprovement()
	assert.True(t, ok)
	assert.Equal(t, 10, d.HistorySize())
}

func TestFitnessQuantile(t *testing.T) {
	d := OfDefaults()
	assert.Equal(t, float64(0), d.FitnessQuantile(.5))

	for g := 1; g <= 100; g++ {
		d.Update(record(g, float64(g)))
	}

	assert.InDelta(t, 50, d.FitnessQuantile(.5), 2)
	assert.InDelta(t, 90, d.FitnessQuantile(.9), 2)
}

func TestImprovementRate(t *testing.T) {
	d := NewBuilder().WithWindowSize(1).Build()
	assert.Equal(t, uint(0), d.ImprovementRate())

	d.Update(record(1, 1))
	d.Update(record(2, 2))
	d.Update(record(3, 3))
	d.Update(record(4, 3))

	// Three comparisons ran, two improved
	assert.Equal(t, uint(67), d.ImprovementRate())
}

func TestOnPlateauListenerFiresOnce(t *testing.T) {
	events := 0
	d := NewBuilder().
		WithWindowSize(1).
		WithPatience(2).
		OnPlateau(func(e Event) {
			events++
			assert.Equal(t, 2, e.PatienceCount)
		}).
		Build()

	for g := 1; g <= 6; g++ {
		d.Update(record(g, .5))
	}

	assert.Equal(t, 1, events)
}

func TestResetIdempotent(t *testing.T) {
	d := OfDefaults()
	for g := 1; g <= 15; g++ {
		d.Update(record(g, .75))
	}

	d.Reset()
	d.Reset()

	assert.False(t, d.Detected())
	assert.Equal(t, 0, d.PatienceCount())
	assert.Equal(t, 0, d.HistorySize())
	assert.Equal(t, uint(5), d.Patience())
}
