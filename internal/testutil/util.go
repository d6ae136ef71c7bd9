package testutil

import (
	"time"
)

// TestClock is a Clock whose current time is set by the test.
type TestClock struct {
	CurrentTime int64
}

func (t *TestClock) CurrentUnixNano() int64 {
	return t.CurrentTime
}

// TestStopwatch is a Stopwatch whose elapsed time is set by the test.
type TestStopwatch struct {
	CurrentTime int64
}

func (t *TestStopwatch) ElapsedTime() time.Duration {
	return time.Duration(t.CurrentTime)
}

func (t *TestStopwatch) Reset() {
	t.CurrentTime = 0
}
