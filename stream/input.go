package stream

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/wippyai/toolbox/charset"
	toolerrors "github.com/wippyai/toolbox/errors"
	"github.com/wippyai/toolbox/resource"
)

// InputStream reads a file written in a narrow encoding and yields UTF-8 text.
type InputStream struct {
	core
	enc     encoding.Encoding
	decoder *charset.Decoder
	reader  *bufio.Reader
}

// NewInputStream creates a closed input stream.
func NewInputStream(opts ...Option) *InputStream {
	in := &InputStream{}
	in.opts = buildOptions(opts)
	in.typeID = resource.TypeInputStream
	return in
}

// OpenInput creates an input stream and opens path for reading. On failure the
// returned stream is closed and the error says why.
func OpenInput(path string, opts ...Option) (*InputStream, error) {
	in := NewInputStream(opts...)
	err := in.Open(path, ModeRead)
	return in, err
}

// Encoding returns the narrow encoding bytes are decoded from.
func (in *InputStream) Encoding() encoding.Encoding {
	if in.enc != nil {
		return in.enc
	}
	if in.opts.enc != nil {
		return in.opts.enc
	}
	return charset.Native()
}

// Open acquires a handle on path. ModeRead is always added to mode. On
// failure the stream stays closed; IsOpen reports the outcome as well.
func (in *InputStream) Open(path string, mode Mode) error {
	if in.opts.encErr != nil {
		return in.opts.encErr
	}
	in.typeID = resource.TypeInputStream
	if err := in.open(path, mode|ModeRead); err != nil {
		return err
	}
	in.enc = in.Encoding()
	in.decoder = charset.StrictDecoder(in.enc)
	src := &fileReader{f: in.file(), path: path}
	in.reader = bufio.NewReader(transform.NewReader(src, in.decoder))
	guard(in, &in.core)
	return nil
}

// Close releases the handle. Closing a closed stream is a no-op.
func (in *InputStream) Close() error {
	in.reader = nil
	in.decoder = nil
	return in.core.Close()
}

// Move transfers ownership of the open handle to a new stream and leaves in closed.
func (in *InputStream) Move() *InputStream {
	out := &InputStream{}
	out.opts = in.opts
	out.typeID = in.typeID
	if !in.IsOpen() {
		return out
	}
	out.sess = in.transfer()
	out.enc, out.decoder, out.reader = in.enc, in.decoder, in.reader
	in.reader, in.decoder = nil, nil
	guard(out, &out.core)
	return out
}

// Read implements io.Reader over the decoded UTF-8 text.
func (in *InputStream) Read(p []byte) (int, error) {
	if !in.IsOpen() {
		return 0, toolerrors.StreamState(toolerrors.PhaseRead, "read")
	}
	n, err := in.reader.Read(p)
	return n, in.mapErr(err)
}

// ReadRune reads a single decoded rune.
func (in *InputStream) ReadRune() (rune, int, error) {
	if !in.IsOpen() {
		return 0, 0, toolerrors.StreamState(toolerrors.PhaseRead, "read rune")
	}
	r, size, err := in.reader.ReadRune()
	return r, size, in.mapErr(err)
}

// ReadString reads up to and including delim. At end of data it returns
// what was read together with io.EOF.
func (in *InputStream) ReadString(delim byte) (string, error) {
	if !in.IsOpen() {
		return "", toolerrors.StreamState(toolerrors.PhaseRead, "read string")
	}
	s, err := in.reader.ReadString(delim)
	return s, in.mapErr(err)
}

// ReadLine reads one line without its "\n" or "\r\n" terminator. A final
// line without terminator is returned with a nil error; io.EOF follows.
func (in *InputStream) ReadLine() (string, error) {
	if !in.IsOpen() {
		return "", toolerrors.StreamState(toolerrors.PhaseRead, "read line")
	}
	line, err := in.reader.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return line, in.mapErr(err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// ReadAll reads the remaining text.
func (in *InputStream) ReadAll() (string, error) {
	if !in.IsOpen() {
		return "", toolerrors.StreamState(toolerrors.PhaseRead, "read all")
	}
	var b strings.Builder
	_, err := io.Copy(&b, in.reader)
	return b.String(), in.mapErr(err)
}

func (in *InputStream) mapErr(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var te *toolerrors.Error
	if errors.As(err, &te) {
		return err
	}
	var ise *charset.InvalidSequenceError
	if errors.As(err, &ise) {
		return toolerrors.Decoding(in.sess.path, ise.Encoding, ise.Offset, err)
	}
	return toolerrors.IO(toolerrors.PhaseRead, in.sess.path, err)
}

// fileReader tags system call failures so they are not mistaken for
// decoding failures once they come out of the transform reader.
type fileReader struct {
	f    *os.File
	path string
}

func (r *fileReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil && err != io.EOF {
		return n, toolerrors.IO(toolerrors.PhaseRead, r.path, err)
	}
	return n, err
}
