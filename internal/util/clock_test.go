package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/converge-go/converge-go/internal/testutil"
)

func TestStopwatch(t *testing.T) {
	clock := &testutil.TestClock{CurrentTime: int64(time.Second)}
	stopwatch := NewStopwatch(clock)

	assert.Equal(t, time.Duration(0), stopwatch.ElapsedTime())

	clock.CurrentTime = int64(3 * time.Second)
	assert.Equal(t, 2*time.Second, stopwatch.ElapsedTime())

	stopwatch.Reset()
	assert.Equal(t, time.Duration(0), stopwatch.ElapsedTime())

	clock.CurrentTime = int64(5 * time.Second)
	assert.Equal(t, 2*time.Second, stopwatch.ElapsedTime())
}
