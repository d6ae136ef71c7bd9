package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImprovementWindow(t *testing.T) {
	w := NewImprovementWindow(4)
	assert.Equal(t, uint(0), w.ImprovementRate())

	w.Record(true)
	w.Record(true)
	w.Record(false)

	assert.Equal(t, uint(3), w.Count())
	assert.Equal(t, uint(2), w.Improvements())
	assert.Equal(t, uint(1), w.Stalls())
	assert.Equal(t, uint(67), w.ImprovementRate())
}

func TestImprovementWindowOverwritesOldest(t *testing.T) {
	w := NewImprovementWindow(2)
	w.Record(true)
	w.Record(true)
	w.Record(false)

	assert.Equal(t, uint(2), w.Count())
	assert.Equal(t, uint(1), w.Improvements())
	assert.Equal(t, uint(1), w.Stalls())
	assert.Equal(t, uint(50), w.ImprovementRate())

	w.Record(false)

	assert.Equal(t, uint(0), w.Improvements())
	assert.Equal(t, uint(2), w.Stalls())
	assert.Equal(t, uint(0), w.ImprovementRate())
}

func TestImprovementWindowReset(t *testing.T) {
	w := NewImprovementWindow(2)
	w.Record(true)
	w.Record(false)

	w.Reset()

	assert.Equal(t, uint(0), w.Count())
	assert.Equal(t, uint(0), w.Improvements())
	assert.Equal(t, uint(0), w.Stalls())
	assert.Equal(t, uint(0), w.ImprovementRate())

	w.Record(true)
	assert.Equal(t, uint(1), w.Improvements())
	assert.Equal(t, uint(100), w.ImprovementRate())
}
