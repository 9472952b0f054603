package stream

import (
	"go.uber.org/multierr"
)

// WithInput opens path for reading, runs fn and closes the stream on every
// way out of fn: return, error or panic. If the open fails fn is not called.
// A close failure is combined with fn's error.
func WithInput(path string, mode Mode, fn func(*InputStream) error, opts ...Option) (err error) {
	in := NewInputStream(opts...)
	if err := in.Open(path, mode); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, in.Close())
	}()
	return fn(in)
}

// WithOutput opens path for writing, runs fn and closes the stream on every
// way out of fn: return, error or panic. If the open fails fn is not called.
// A close failure is combined with fn's error.
func WithOutput(path string, mode Mode, fn func(*OutputStream) error, opts ...Option) (err error) {
	out := NewOutputStream(opts...)
	if err := out.Open(path, mode); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()
	return fn(out)
}

// AppendString appends s to the file at path, creating it if needed.
func AppendString(path, s string, opts ...Option) error {
	return WithOutput(path, ModeAppend, func(out *OutputStream) error {
		_, err := out.WriteString(s)
		return err
	}, opts...)
}

// ReadFile decodes the whole file at path from the narrow encoding.
func ReadFile(path string, opts ...Option) (string, error) {
	var text string
	err := WithInput(path, ModeRead, func(in *InputStream) error {
		var err error
		text, err = in.ReadAll()
		return err
	}, opts...)
	return text, err
}
