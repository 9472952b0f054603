// Package timing measures how long a unit of work takes.
//
// A unit of work is a Go function value. Arguments are bound by a closure
// (or by the *Call helpers for the unary case), so the argument list is fixed
// at compile time. Two entry points cover the two shapes of work:
//
//	secs := timing.Measure(func() { countdown(3) })
//	n, secs := timing.MeasureValue(func() int { return count(path) })
//
// Error-returning work uses MeasureErr, which hands the error back unchanged
// and reports no duration for it:
//
//	data, secs, err := timing.MeasureErr(func() ([]byte, error) { return os.ReadFile(p) })
//
// The work runs exactly once on the calling goroutine. Durations are taken
// from a monotonic clock immediately before and after the call and reported
// as floating point seconds. A panic in the work propagates untouched and
// produces no measurement.
//
// A Timer carries a clock, a name and an Observer that is told about every
// completed measurement. LogObserver writes to zap, HistogramObserver feeds a
// Prometheus histogram:
//
//	hist := timing.NewHistogram("toolbox")
//	registry.MustRegister(hist)
//	t := timing.NewTimer(timing.WithObserver(timing.Observers(
//		timing.NewLogObserver(logger),
//		timing.NewHistogramObserver(hist),
//	)))
//	t.Named("append").Measure(work)
//
// The toolbox command wires this up behind its --metrics flag.
package timing
