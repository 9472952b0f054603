// Package stream provides file wrappers that own exactly one native handle
// and translate text between Go strings and the bytes on disk.
//
// Two variants share the same lifecycle:
//
//	InputStream   decodes the platform narrow encoding into UTF-8 on read
//	OutputStream  writes UTF-8 text byte for byte, optionally appending
//
// # Lifecycle
//
// A wrapper starts closed. Open is the only way to acquire a handle and
// Close (or Move, on the source side) the only way to give it up:
//
//	Closed --Open--> Open --Close/Move--> Closed
//
// Reads and writes are only valid while open; on a closed wrapper they fail
// with an error matching errors.ErrStreamState. Close is idempotent and a
// closed wrapper may be opened again.
//
// # Open failures
//
// A failed Open leaves the wrapper closed. The error is returned, and the
// same outcome is visible through IsOpen, so both styles work:
//
//	in := stream.NewInputStream()
//	in.Open("x.txt", stream.ModeRead)
//	if !in.IsOpen() { ... }
//
// # Scoped release
//
// Release the handle with defer, or let WithInput/WithOutput do it. Both
// run on normal return, early return and panic unwinding:
//
//	err := stream.WithOutput("x.txt", stream.ModeAppend, func(out *stream.OutputStream) error {
//		return out.WriteLine("hello")
//	})
//
// A wrapper that becomes unreachable while still open has its handle
// released by a runtime cleanup, and a warning is logged. Every live handle
// is recorded in a resource.Table (resource.Default unless WithTable is
// given), so leaks are visible as a non-zero Len.
//
// # Ownership
//
// Wrappers must not be copied; go vet reports copies. Move hands the handle
// to a new wrapper and leaves the source closed.
//
// # Errors
//
// Decoding failures match errors.ErrDecoding, system call failures after a
// successful open match errors.ErrIO. Neither is logged or swallowed here.
//
// Wrappers are not safe for concurrent use. Two wrappers on the same path
// are not coordinated.
package stream
