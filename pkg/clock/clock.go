// Package clock abstracts the wall clock so expiry logic can be driven
// deterministically in tests.
package clock

import (
	"math"
	"sync"
	"time"
)

// MaxHours is the largest hour count that fits in a time.Duration.
const MaxHours = math.MaxInt64 / int64(time.Hour)

// Hours converts n hours to a Duration. It reports false when n is not
// positive or would overflow.
func Hours(n int) (time.Duration, bool) {
	if n <= 0 || int64(n) > MaxHours {
		return 0, false
	}
	return time.Duration(n) * time.Hour, true
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real returns a Clock backed by time.Now, normalized to UTC.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually driven Clock. The zero value is not usable; use NewFake.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC()
	f.mu.Unlock()
}
