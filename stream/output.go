package stream

import (
	"io"
	"unicode/utf8"

	toolerrors "github.com/wippyai/toolbox/errors"
	"github.com/wippyai/toolbox/resource"
)

// OutputStream writes UTF-8 text to a file byte for byte.
type OutputStream struct {
	core
}

// NewOutputStream creates a closed output stream.
func NewOutputStream(opts ...Option) *OutputStream {
	out := &OutputStream{}
	out.opts = buildOptions(opts)
	out.typeID = resource.TypeOutputStream
	return out
}

// OpenOutput creates an output stream and opens path with mode. On failure
// the returned stream is closed and the error says why.
func OpenOutput(path string, mode Mode, opts ...Option) (*OutputStream, error) {
	out := NewOutputStream(opts...)
	err := out.Open(path, mode)
	return out, err
}

// Open acquires a handle on path. ModeWrite is always added to mode; without
// ModeAppend the file is truncated. On failure the stream stays closed.
func (out *OutputStream) Open(path string, mode Mode) error {
	out.typeID = resource.TypeOutputStream
	if err := out.open(path, mode|ModeWrite); err != nil {
		return err
	}
	guard(out, &out.core)
	return nil
}

// Move transfers ownership of the open handle to a new stream and leaves out closed.
func (out *OutputStream) Move() *OutputStream {
	dst := &OutputStream{}
	dst.opts = out.opts
	dst.typeID = out.typeID
	if !out.IsOpen() {
		return dst
	}
	dst.sess = out.transfer()
	guard(dst, &dst.core)
	return dst
}

// Write implements io.Writer. p is written unmodified.
func (out *OutputStream) Write(p []byte) (int, error) {
	if !out.IsOpen() {
		return 0, toolerrors.StreamState(toolerrors.PhaseWrite, "write")
	}
	n, err := out.file().Write(p)
	if err != nil {
		return n, toolerrors.IO(toolerrors.PhaseWrite, out.sess.path, err)
	}
	if out.opts.sync {
		return n, out.Sync()
	}
	return n, nil
}

// WriteString writes s, which must be valid UTF-8. Invalid text is rejected
// before anything reaches the file.
func (out *OutputStream) WriteString(s string) (int, error) {
	if !out.IsOpen() {
		return 0, toolerrors.StreamState(toolerrors.PhaseWrite, "write string")
	}
	if !utf8.ValidString(s) {
		return 0, toolerrors.InvalidUTF8(toolerrors.PhaseEncode, out.sess.path, []byte(s))
	}
	return out.Write([]byte(s))
}

// WriteLine writes s followed by "\n".
func (out *OutputStream) WriteLine(s string) error {
	_, err := out.WriteString(s + "\n")
	return err
}

// Sync commits written data to stable storage.
func (out *OutputStream) Sync() error {
	if !out.IsOpen() {
		return toolerrors.StreamState(toolerrors.PhaseWrite, "sync")
	}
	if err := out.file().Sync(); err != nil {
		return toolerrors.IO(toolerrors.PhaseWrite, out.sess.path, err)
	}
	return nil
}

var (
	_ io.Writer       = (*OutputStream)(nil)
	_ io.StringWriter = (*OutputStream)(nil)
	_ io.Reader       = (*InputStream)(nil)
	_ io.RuneReader   = (*InputStream)(nil)
)
