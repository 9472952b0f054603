// Package toolbox provides timed execution of units of work and scoped,
// encoding-aware file streams.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	toolbox/             Root package, documentation only
//	├── timing/          Measure, MeasureValue, MeasureErr and observers
//	├── clock/           Monotonic time sources (system and manual)
//	├── stream/          InputStream and OutputStream with scoped release
//	├── charset/         Narrow encoding lookup and strict decoding
//	├── resource/        Table of live file handles
//	├── errors/          Structured error types
//	└── cmd/toolbox/     Demonstration command
//
// # Quick Start
//
// Time a unit of work:
//
//	n, secs := timing.MeasureValue(func() int {
//	    return expensive()
//	})
//
// Append UTF-8 text and read it back through the platform encoding:
//
//	err := stream.WithOutput("x.txt", stream.ModeAppend, func(out *stream.OutputStream) error {
//	    _, err := out.WriteString("hello\n")
//	    return err
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := stream.ReadFile("x.txt")
//
// # Resource Release
//
// A stream owns at most one file handle. The handle is released by Close, by
// leaving a WithInput or WithOutput scope (including by panic) or, as a last
// resort, when the garbage collector finds the stream unreachable. Every
// live handle is recorded in a resource.Table so leaks can be observed.
//
// # Thread Safety
//
// Timers and resource tables are safe for concurrent use. Streams are NOT
// thread-safe and should be used by a single goroutine.
package toolbox
