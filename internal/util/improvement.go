package util

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

// ImprovementWindow remembers which of the last N observations improved, one
// bit per observation. Counts are taken by popcount over the window rather than
// maintained incrementally.
//
// This type is not concurrency safe.
type ImprovementWindow struct {
	bits     *bitset.BitSet
	size     uint
	next     uint
	occupied uint
}

func NewImprovementWindow(capacity uint) *ImprovementWindow {
	return &ImprovementWindow{
		bits: bitset.New(capacity),
		size: capacity,
	}
}

// Record writes the observation into the window, overwriting the oldest one
// once the window is full.
func (w *ImprovementWindow) Record(improving bool) {
	w.bits.SetTo(w.next, improving)
	w.next++
	if w.next == w.size {
		w.next = 0
	}
	if w.occupied < w.size {
		w.occupied++
	}
}

func (w *ImprovementWindow) Count() uint {
	return w.occupied
}

// Improvements returns how many windowed observations improved. Slots beyond
// the occupied region are never set, so the popcount covers exactly the window.
func (w *ImprovementWindow) Improvements() uint {
	return w.bits.Count()
}

func (w *ImprovementWindow) Stalls() uint {
	return w.occupied - w.bits.Count()
}

// ImprovementRate returns the percentage of windowed observations that
// improved, else 0 if the window is empty.
func (w *ImprovementWindow) ImprovementRate() uint {
	if w.occupied == 0 {
		return 0
	}
	return uint(math.Round(float64(w.bits.Count()) / float64(w.occupied) * 100.0))
}

func (w *ImprovementWindow) Reset() {
	w.bits.ClearAll()
	w.next = 0
	w.occupied = 0
}
