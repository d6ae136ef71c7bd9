package util

import (
	"github.com/influxdata/tdigest"
)

// Digest is a running t-digest over observed values, tracking the sample count
// alongside the sketch.
//
// This type is not concurrency safe.
type Digest struct {
	td   *tdigest.TDigest
	size uint
}

func NewDigest() *Digest {
	return &Digest{
		td: tdigest.NewWithCompression(100),
	}
}

func (d *Digest) Add(value float64) {
	d.td.Add(value, 1)
	d.size++
}

// Quantile returns the estimated q quantile of the observed values, else 0 if no
// values have been observed.
func (d *Digest) Quantile(q float64) float64 {
	if d.size == 0 {
		return 0
	}
	return d.td.Quantile(q)
}

func (d *Digest) Size() uint {
	return d.size
}

func (d *Digest) Reset() {
	d.td = tdigest.NewWithCompression(100)
	d.size = 0
}
