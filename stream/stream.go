package stream

import (
	"errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/wippyai/toolbox/charset"
	toolerrors "github.com/wippyai/toolbox/errors"
	"github.com/wippyai/toolbox/resource"
)

// noCopy makes go vet's copylocks check reject copies of a wrapper.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// fileHandle is the value recorded in the resource table. Drop closes the
// file once and keeps reporting the first result.
type fileHandle struct {
	file    *os.File
	err     error
	once    sync.Once
	dropped atomic.Bool
}

func (h *fileHandle) Drop() error {
	h.once.Do(func() {
		h.dropped.Store(true)
		h.err = h.file.Close()
	})
	return h.err
}

// released reports whether Drop ran, possibly from a table the stream does not control.
func (h *fileHandle) released() bool {
	return h.dropped.Load()
}

func (h *fileHandle) Name() string {
	return h.file.Name()
}

// session is everything owned between a successful Open and the release.
type session struct {
	handle *fileHandle
	table  *resource.Table
	path   string
	id     resource.Handle
	mode   Mode
}

func (s *session) release() error {
	// once released elsewhere the id may already belong to another resource
	if s.id != 0 && !s.handle.released() {
		err := s.table.Drop(s.id)
		if !errors.Is(err, resource.ErrInvalidHandle) {
			return err
		}
	}
	return s.handle.Drop()
}

// reclaim runs when a wrapper that still owns a session becomes unreachable.
func reclaim(s *session) {
	Logger().Warn("stream released by garbage collector",
		zap.String("path", s.path),
		zap.Stringer("mode", s.mode),
	)
	_ = s.release()
}

// Option configures a stream wrapper.
type Option func(*options)

type options struct {
	table  *resource.Table
	enc    encoding.Encoding
	encErr error
	sync   bool
}

// WithTable records handles in t instead of resource.Default().
func WithTable(t *resource.Table) Option {
	return func(o *options) {
		o.table = t
	}
}

// WithEncoding sets the narrow encoding used by an InputStream.
func WithEncoding(enc encoding.Encoding) Option {
	return func(o *options) {
		o.enc = enc
		o.encErr = nil
	}
}

// WithEncodingName resolves name with charset.Lookup. A name that does not
// resolve makes every Open fail.
func WithEncodingName(name string) Option {
	return func(o *options) {
		o.enc, o.encErr = charset.Lookup(name)
	}
}

// WithSync makes an OutputStream flush to stable storage after every write.
func WithSync(enabled bool) Option {
	return func(o *options) {
		o.sync = enabled
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.table == nil {
		o.table = resource.Default()
	}
	return o
}

// core owns at most one native file handle. It is embedded by InputStream
// and OutputStream and is not safe for concurrent use.
type core struct {
	noCopy  noCopy
	opts    options
	sess    *session
	cleanup runtime.Cleanup
	typeID  resource.TypeID
}

// IsOpen reports whether the wrapper currently owns a live handle. A handle
// released underneath the wrapper, for example by closing its resource
// table, no longer counts as open.
func (c *core) IsOpen() bool {
	return c.sess != nil && !c.sess.handle.released()
}

// Path returns the path of the open file, or "" when closed.
func (c *core) Path() string {
	if !c.IsOpen() {
		return ""
	}
	return c.sess.path
}

// Mode returns the mode of the open session, or 0 when closed.
func (c *core) Mode() Mode {
	if !c.IsOpen() {
		return 0
	}
	return c.sess.mode
}

// Close releases the handle. Closing a closed wrapper is a no-op.
func (c *core) Close() error {
	if c.sess == nil {
		return nil
	}
	s := c.detach()
	if err := s.release(); err != nil {
		Logger().Debug("stream close failed", zap.String("path", s.path), zap.Error(err))
		return toolerrors.IO(toolerrors.PhaseClose, s.path, err)
	}
	Logger().Debug("stream closed", zap.String("path", s.path))
	return nil
}

func (c *core) open(path string, mode Mode) error {
	if c.IsOpen() {
		return toolerrors.AlreadyOpen(path, c.sess.path)
	}
	if c.sess != nil {
		// released underneath; forget the dead session
		_ = c.detach().release()
	}
	if c.opts.table == nil {
		c.opts.table = resource.Default()
	}
	flags, ok := mode.flags()
	if !ok {
		Logger().Debug("stream open rejected", zap.String("path", path), zap.Stringer("mode", mode))
		return toolerrors.InvalidMode(path, mode.String())
	}

	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec // caller-chosen path
	if err != nil {
		Logger().Debug("stream open failed", zap.String("path", path), zap.Stringer("mode", mode), zap.Error(err))
		return toolerrors.OpenFailed(path, mode.String(), err)
	}

	h := &fileHandle{file: f}
	c.sess = &session{
		handle: h,
		table:  c.opts.table,
		path:   path,
		mode:   mode,
		id:     c.opts.table.Insert(c.typeID, h),
	}
	Logger().Debug("stream opened",
		zap.String("path", path),
		zap.Stringer("mode", mode),
		zap.Uint32("handle", uint32(c.sess.id)),
	)
	return nil
}

// transfer takes the session away from c for a new owner. The handle is
// re-registered so table observers see the change of ownership.
func (c *core) transfer() *session {
	s := c.detach()
	if s.id == 0 {
		return s
	}
	if v, ok := s.table.Remove(s.id); ok {
		s.id = s.table.Insert(c.typeID, v)
	}
	return s
}

// detach takes the session away from c without releasing it.
func (c *core) detach() *session {
	s := c.sess
	c.sess = nil
	c.cleanup.Stop()
	c.cleanup = runtime.Cleanup{}
	return s
}

func (c *core) file() *os.File {
	return c.sess.handle.file
}

// guard arranges for owner's session to be released if owner is collected
// while still open.
func guard[T any](owner *T, c *core) {
	c.cleanup = runtime.AddCleanup(owner, reclaim, c.sess)
}
