// Package errors provides structured error types for the toolbox module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the file path, the text encoding involved, a byte
// offset for decoding failures and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindDecoding).
//		Path("x.txt").
//		Encoding("ISO-8859-1").
//		Offset(12).
//		Detail("byte 0x81 is undefined").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.StreamState(errors.PhaseRead, "read")
//	err := errors.IO(errors.PhaseWrite, path, cause)
//
// The package-level Err* values match any phase of their kind:
//
//	if errors.Is(err, toolerrors.ErrStreamState) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
