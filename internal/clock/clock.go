// ABOUTME: Monotonic time source for the playback engine
// ABOUTME: Real clock for devices, manual clock for deterministic tests
package clock

import (
	"math"
	"sync"
	"time"
)

// Clock reports the current instant on a monotonic timeline
type Clock interface {
	Now() time.Time
}

// Real reads the system monotonic clock
type Real struct{}

// Now returns time.Now, which carries a monotonic reading
func (Real) Now() time.Time {
	return time.Now()
}

// Manual is a clock that only moves when told to
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a manual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual instant
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set moves the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Seconds converts a duration to floating-point seconds
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// FromSeconds converts floating-point seconds to a duration, rounding to the nearest nanosecond
func FromSeconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
