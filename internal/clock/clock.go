package clock

import "time"

// Clock abstracts time to keep session logic deterministic in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Fake is a manually advanced clock for tests. Sleep advances the
// clock instead of blocking.
type Fake struct {
	Current time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{Current: start}
}

func (f *Fake) Now() time.Time {
	return f.Current
}

func (f *Fake) Sleep(d time.Duration) {
	f.Current = f.Current.Add(d)
}

func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
