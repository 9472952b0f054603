package timing

import (
	"time"

	"github.com/wippyai/toolbox/clock"
)

// Timer times units of work against a monotonic clock.
type Timer struct {
	clock    clock.Monotonic
	observer Observer
	name     string
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the clock readings are taken from.
func WithClock(c clock.Monotonic) Option {
	return func(t *Timer) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithObserver sets the observer notified after each completed measurement.
func WithObserver(o Observer) Option {
	return func(t *Timer) {
		t.observer = o
	}
}

// WithName sets the unit name passed to the observer.
func WithName(name string) Option {
	return func(t *Timer) {
		t.name = name
	}
}

// NewTimer creates a Timer on the system monotonic clock.
func NewTimer(opts ...Option) *Timer {
	t := &Timer{clock: clock.System()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Named returns a copy of t that reports under name.
func (t *Timer) Named(name string) *Timer {
	c := *t
	c.name = name
	return &c
}

// Name returns the unit name.
func (t *Timer) Name() string {
	return t.name
}

// Measure runs fn once and returns the elapsed seconds.
func (t *Timer) Measure(fn func()) float64 {
	start := t.clock.Now()
	fn()
	return t.finish(start)
}

// Value runs fn once and returns its result and the elapsed seconds.
func Value[T any](t *Timer, fn func() T) (T, float64) {
	start := t.clock.Now()
	v := fn()
	return v, t.finish(start)
}

// Err runs fn once. On success it returns the value and the elapsed seconds.
// On failure it returns the zero value, no duration and fn's error as is.
func Err[T any](t *Timer, fn func() (T, error)) (T, float64, error) {
	start := t.clock.Now()
	v, err := fn()
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return v, t.finish(start), nil
}

func (t *Timer) finish(start time.Duration) float64 {
	elapsed := t.clock.Now() - start
	if elapsed < 0 {
		elapsed = 0
	}
	if t.observer != nil {
		t.observer.Observe(t.name, elapsed)
	}
	return elapsed.Seconds()
}

var defaultTimer = NewTimer()

// Measure runs fn once and returns the elapsed seconds.
func Measure(fn func()) float64 {
	return defaultTimer.Measure(fn)
}

// MeasureValue runs fn once and returns its result and the elapsed seconds.
func MeasureValue[T any](fn func() T) (T, float64) {
	return Value(defaultTimer, fn)
}

// MeasureErr runs fn once; see Err.
func MeasureErr[T any](fn func() (T, error)) (T, float64, error) {
	return Err(defaultTimer, fn)
}

// MeasureCall runs fn(a) once and returns the elapsed seconds.
func MeasureCall[A any](fn func(A), a A) float64 {
	return defaultTimer.Measure(func() { fn(a) })
}

// MeasureValueCall runs fn(a) once and returns its result and the elapsed seconds.
func MeasureValueCall[A, T any](fn func(A) T, a A) (T, float64) {
	return Value(defaultTimer, func() T { return fn(a) })
}
