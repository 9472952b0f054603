// Package clock provides monotonic time sources.
//
// A Monotonic clock reports elapsed time since its own origin. The system
// implementation reads Go's monotonic clock, so readings are unaffected by
// wall-clock adjustments. Manual is a hand-driven clock for tests.
package clock
