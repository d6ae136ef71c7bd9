package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestQuantile(t *testing.T) {
	d := NewDigest()
	assert.Equal(t, float64(0), d.Quantile(.5))

	for i := 1; i <= 100; i++ {
		d.Add(float64(i))
	}

	assert.Equal(t, uint(100), d.Size())
	assert.InDelta(t, 50, d.Quantile(.5), 2)
	assert.InDelta(t, 90, d.Quantile(.9), 2)
}

func TestDigestReset(t *testing.T) {
	d := NewDigest()
	d.Add(1)
	d.Add(2)

	d.Reset()

	assert.Equal(t, uint(0), d.Size())
	assert.Equal(t, float64(0), d.Quantile(.5))
}
