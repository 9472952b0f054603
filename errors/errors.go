package errors

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseOpen   Phase = "open"   // acquiring a file handle
	PhaseClose  Phase = "close"  // releasing a file handle
	PhaseRead   Phase = "read"   // pulling bytes from a handle
	PhaseDecode Phase = "decode" // narrow bytes to Go text
	PhaseWrite  Phase = "write"  // pushing bytes to a handle
	PhaseEncode Phase = "encode" // Go text to on-disk bytes
	PhaseConfig Phase = "config" // option and configuration handling
)

// Kind categorizes the error
type Kind string

const (
	KindOpenFailed      Kind = "open_failed"
	KindInvalidMode     Kind = "invalid_mode"
	KindStreamState     Kind = "stream_state"
	KindDecoding        Kind = "decoding"
	KindInvalidUTF8     Kind = "invalid_utf8"
	KindIO              Kind = "io"
	KindUnknownEncoding Kind = "unknown_encoding"
	KindInvalidInput    Kind = "invalid_input"
)

// Matchers for errors.Is. They carry no Phase and therefore match any phase.
var (
	ErrOpenFailed  = &Error{Kind: KindOpenFailed}
	ErrInvalidMode = &Error{Kind: KindInvalidMode}
	ErrStreamState = &Error{Kind: KindStreamState}
	ErrDecoding    = &Error{Kind: KindDecoding}
	ErrInvalidUTF8 = &Error{Kind: KindInvalidUTF8}
	ErrIO          = &Error{Kind: KindIO}
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Path     string
	Encoding string
	Detail   string
	Offset   int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Encoding != "" {
		b.WriteString(" (encoding ")
		b.WriteString(e.Encoding)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the file path the error refers to
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Encoding sets the text encoding name
func (b *Builder) Encoding(name string) *Builder {
	b.err.Encoding = name
	return b
}

// Offset sets the byte offset where the error was detected
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// OpenFailed creates an error for a path that could not be opened
func OpenFailed(path, mode string, cause error) *Error {
	return New(PhaseOpen, KindOpenFailed).
		Path(path).
		Detail("cannot open with mode %s", mode).
		Cause(cause).
		Build()
}

// InvalidMode creates an error for an unusable open mode
func InvalidMode(path, mode string) *Error {
	return New(PhaseOpen, KindInvalidMode).
		Path(path).
		Detail("invalid open mode %s", mode).
		Build()
}

// StreamState creates an error for an operation on a stream in the wrong state
func StreamState(phase Phase, op string) *Error {
	return New(phase, KindStreamState).Detail("%s on closed stream", op).Build()
}

// AlreadyOpen creates an error for opening a stream that already owns a handle
func AlreadyOpen(path, current string) *Error {
	return New(PhaseOpen, KindStreamState).
		Path(path).
		Detail("stream already open on %s", current).
		Build()
}

// Decoding creates an error for bytes that are invalid in the given encoding
func Decoding(path, encoding string, offset int64, cause error) *Error {
	return New(PhaseDecode, KindDecoding).
		Path(path).
		Encoding(encoding).
		Offset(offset).
		Detail("invalid byte sequence near offset %d", offset).
		Cause(cause).
		Build()
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	offset := 0
	for offset < len(data) {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	return New(phase, KindInvalidUTF8).
		Path(path).
		Encoding("UTF-8").
		Offset(int64(offset)).
		Detail("invalid UTF-8 sequence at byte %d: %x", offset, preview).
		Build()
}

// IO creates an error for a failed system call on an open handle
func IO(phase Phase, path string, cause error) *Error {
	return New(phase, KindIO).Path(path).Cause(cause).Build()
}

// UnknownEncoding creates an error for an encoding name that cannot be resolved
func UnknownEncoding(name string, cause error) *Error {
	return New(PhaseConfig, KindUnknownEncoding).
		Encoding(name).
		Detail("unknown encoding %q", name).
		Cause(cause).
		Build()
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail(detail).Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Detail(detail).Cause(cause).Build()
}
