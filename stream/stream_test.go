package stream

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/charmap"

	"github.com/wippyai/toolbox/charset"
	toolerrors "github.com/wippyai/toolbox/errors"
	"github.com/wippyai/toolbox/resource"
)

func readBytes(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func writeBytes(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNeverOpened(t *testing.T) {
	in := NewInputStream()
	out := NewOutputStream()
	var zeroIn InputStream
	var zeroOut OutputStream

	for name, open := range map[string]bool{
		"input":       in.IsOpen(),
		"output":      out.IsOpen(),
		"zero input":  zeroIn.IsOpen(),
		"zero output": zeroOut.IsOpen(),
	} {
		if open {
			t.Errorf("%s: never opened wrapper reports open", name)
		}
	}
	if in.Path() != "" || in.Mode() != 0 {
		t.Errorf("closed wrapper reports session %q %v", in.Path(), in.Mode())
	}
}

func TestScenario_AppendTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.txt")
	table := resource.NewTable()

	in := NewInputStream(WithTable(table), WithEncoding(charset.UTF8))
	err := in.Open(path, ModeRead)
	if in.IsOpen() {
		t.Fatal("input on missing file must not be open")
	}
	if !errors.Is(err, toolerrors.ErrOpenFailed) {
		t.Fatalf("err = %v, want ErrOpenFailed", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("open failure should carry the OS cause, got %v", err)
	}

	out := NewOutputStream(WithTable(table))
	if err := out.Open(path, ModeAppend); err != nil {
		t.Fatal(err)
	}
	if _, err := out.WriteString("hello\n"); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readBytes(t, path); got != "hello\n" {
		t.Fatalf("after first append: %q", got)
	}

	if err := out.Open(path, ModeAppend); err != nil {
		t.Fatal(err)
	}
	if _, err := out.WriteString("world\n"); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readBytes(t, path); got != "hello\nworld\n" {
		t.Fatalf("after second append: %q", got)
	}

	if err := in.Open(path, ModeRead); err != nil || !in.IsOpen() {
		t.Fatalf("fresh open after file exists: open=%v err=%v", in.IsOpen(), err)
	}
	defer in.Close()

	if table.Len() != 1 {
		t.Errorf("table holds %d handles, want 1", table.Len())
	}
}

func TestRoundTrip_UTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.txt")
	text := "naïve café - 日本語 🚀\nsecond line\n"

	if err := WithOutput(path, ModeWrite, func(out *OutputStream) error {
		_, err := out.WriteString(text)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path, WithEncoding(charset.UTF8))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(text, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_Latin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")

	// ASCII text is identical in UTF-8 and Latin-1
	if err := AppendString(path, "plain ascii\n"); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path, WithEncoding(charmap.ISO8859_1))
	if err != nil {
		t.Fatal(err)
	}
	if got != "plain ascii\n" {
		t.Errorf("got %q", got)
	}

	// bytes that are only meaningful in Latin-1
	writeBytes(t, path, []byte{'c', 'a', 'f', 0xe9, '\n'})
	got, err = ReadFile(path, WithEncodingName("ISO-8859-1"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "café\n" {
		t.Errorf("got %q, want %q", got, "café\n")
	}
}

func TestDecodingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	writeBytes(t, path, []byte{'o', 'k', '\n', 0xff, 0xfe})

	in := NewInputStream(WithTable(resource.NewTable()), WithEncoding(charset.UTF8))
	if err := in.Open(path, ModeRead); err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	line, err := in.ReadLine()
	if err != nil || line != "ok" {
		t.Fatalf("first line = %q, %v", line, err)
	}

	_, err = in.ReadAll()
	if !errors.Is(err, toolerrors.ErrDecoding) {
		t.Fatalf("err = %v, want ErrDecoding", err)
	}
	var te *toolerrors.Error
	if !errors.As(err, &te) {
		t.Fatal("decoding error is not *errors.Error")
	}
	if te.Offset != 3 || te.Path != path || te.Encoding != "UTF-8" {
		t.Errorf("unexpected decoding error details: %+v", te)
	}
	if !errors.Is(err, charset.ErrInvalidSequence) {
		t.Error("decoding error should wrap the charset cause")
	}
}

func TestClosedOperations(t *testing.T) {
	in := NewInputStream()
	out := NewOutputStream()

	checks := map[string]error{}
	_, checks["Read"] = in.Read(make([]byte, 4))
	_, _, checks["ReadRune"] = in.ReadRune()
	_, checks["ReadString"] = in.ReadString('\n')
	_, checks["ReadLine"] = in.ReadLine()
	_, checks["ReadAll"] = in.ReadAll()
	_, checks["Write"] = out.Write([]byte("x"))
	_, checks["WriteString"] = out.WriteString("x")
	checks["WriteLine"] = out.WriteLine("x")
	checks["Sync"] = out.Sync()

	for name, err := range checks {
		if !errors.Is(err, toolerrors.ErrStreamState) {
			t.Errorf("%s on closed stream: err = %v, want ErrStreamState", name, err)
		}
	}
}

func TestClose_IdempotentAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	table := resource.NewTable()
	out := NewOutputStream(WithTable(table))

	if err := out.Close(); err != nil {
		t.Fatalf("Close on never-opened stream: %v", err)
	}
	if err := out.Open(path, ModeWrite); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if out.IsOpen() {
		t.Fatal("closed stream reports open")
	}
	if _, err := out.WriteString("late"); !errors.Is(err, toolerrors.ErrStreamState) {
		t.Fatalf("write after close: %v", err)
	}

	if err := out.Open(path, ModeAppend); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if out.Mode() != ModeAppend|ModeWrite || out.Path() != path {
		t.Errorf("session = %q %v", out.Path(), out.Mode())
	}
	out.Close()

	if table.Len() != 0 {
		t.Errorf("table holds %d handles after close", table.Len())
	}
}

func TestOpen_AlreadyOpen(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")
	out := NewOutputStream(WithTable(resource.NewTable()))
	if err := out.Open(a, ModeWrite); err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	err := out.Open(b, ModeWrite)
	if !errors.Is(err, toolerrors.ErrStreamState) {
		t.Fatalf("err = %v, want ErrStreamState", err)
	}
	if !out.IsOpen() || out.Path() != a {
		t.Fatalf("failed reopen must keep the current session, path=%q", out.Path())
	}
	if _, statErr := os.Stat(b); !os.IsNotExist(statErr) {
		t.Error("second path must not be created")
	}
}

func TestOpen_InvalidMode(t *testing.T) {
	out := NewOutputStream()
	err := out.Open(filepath.Join(t.TempDir(), "m.txt"), ModeAppend|ModeTruncate)
	if !errors.Is(err, toolerrors.ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
	if out.IsOpen() {
		t.Fatal("stream must stay closed")
	}
}

func TestOpen_Directory(t *testing.T) {
	out := NewOutputStream()
	err := out.Open(t.TempDir(), ModeAppend)
	if !errors.Is(err, toolerrors.ErrOpenFailed) || out.IsOpen() {
		t.Fatalf("opening a directory for writing: open=%v err=%v", out.IsOpen(), err)
	}
}

func TestOpen_UnknownEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.txt")
	writeBytes(t, path, []byte("x"))

	in := NewInputStream(WithEncodingName("no-such-charset"))
	err := in.Open(path, ModeRead)
	var te *toolerrors.Error
	if !errors.As(err, &te) || te.Kind != toolerrors.KindUnknownEncoding {
		t.Fatalf("err = %v, want unknown_encoding", err)
	}
	if in.IsOpen() {
		t.Fatal("stream must stay closed")
	}
}

func TestOutput_TruncatesByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.txt")
	writeBytes(t, path, []byte("old content that is long\n"))

	if err := WithOutput(path, ModeWrite, func(out *OutputStream) error {
		return out.WriteLine("new")
	}); err != nil {
		t.Fatal(err)
	}
	if got := readBytes(t, path); got != "new\n" {
		t.Errorf("got %q", got)
	}
}

func TestOutput_WriteVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.bin")
	raw := []byte{0x00, 0xff, 'a', 0xc3, 0xa9}

	if err := WithOutput(path, ModeWrite, func(out *OutputStream) error {
		n, err := out.Write(raw)
		if n != len(raw) {
			t.Errorf("wrote %d bytes, want %d", n, len(raw))
		}
		return err
	}, WithSync(true)); err != nil {
		t.Fatal(err)
	}
	if got := readBytes(t, path); got != string(raw) {
		t.Errorf("got %x, want %x", got, raw)
	}
}

func TestOutput_RejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u.txt")
	err := WithOutput(path, ModeWrite, func(out *OutputStream) error {
		_, err := out.WriteString("ok\xff")
		return err
	})
	if !errors.Is(err, toolerrors.ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
	if got := readBytes(t, path); got != "" {
		t.Errorf("nothing may be written, got %q", got)
	}
}

func TestInput_ReadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt")
	writeBytes(t, path, []byte("one\r\ntwo\nthree"))

	in, err := OpenInput(path, WithEncoding(charset.UTF8))
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	var lines []string
	for {
		line, err := in.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("ReadLine: %v", err)
			}
			break
		}
		lines = append(lines, line)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestInput_ReadRuneAndString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.txt")
	writeBytes(t, path, []byte("é,rest"))

	in, err := OpenInput(path, WithEncoding(charset.UTF8))
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	r, size, err := in.ReadRune()
	if err != nil || r != 'é' || size != 2 {
		t.Fatalf("ReadRune = %q %d %v", r, size, err)
	}
	s, err := in.ReadString(',')
	if err != nil || s != "," {
		t.Fatalf("ReadString = %q %v", s, err)
	}
	buf := make([]byte, 16)
	n, err := in.Read(buf)
	if err != nil || string(buf[:n]) != "rest" {
		t.Fatalf("Read = %q %v", buf[:n], err)
	}
}

func TestWithOutput_ReleasesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.txt")
	table := resource.NewTable()
	want := errors.New("abort")

	err := WithOutput(path, ModeWrite, func(out *OutputStream) error {
		if table.Len() != 1 {
			t.Errorf("handle not recorded while open")
		}
		return want
	}, WithTable(table))

	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if table.Len() != 0 {
		t.Fatalf("handle leaked after error: %d live", table.Len())
	}
}

func TestWithOutput_ReleasesOnPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.txt")
	table := resource.NewTable()
	var captured *OutputStream

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		_ = WithOutput(path, ModeWrite, func(out *OutputStream) error {
			captured = out
			panic("boom")
		}, WithTable(table))
	}()

	if table.Len() != 0 {
		t.Fatalf("handle leaked after panic: %d live", table.Len())
	}
	if captured.IsOpen() {
		t.Fatal("stream still open after panic unwinding")
	}
}

func TestWithInput_OpenFailureSkipsFn(t *testing.T) {
	called := false
	err := WithInput(filepath.Join(t.TempDir(), "missing.txt"), ModeRead, func(*InputStream) error {
		called = true
		return nil
	})
	if called {
		t.Fatal("fn must not run when open fails")
	}
	if !errors.Is(err, toolerrors.ErrOpenFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestMove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.txt")
	writeBytes(t, path, []byte("first\nsecond\n"))
	table := resource.NewTable()

	src := NewInputStream(WithTable(table), WithEncoding(charset.UTF8))
	if err := src.Open(path, ModeRead); err != nil {
		t.Fatal(err)
	}
	if line, _ := src.ReadLine(); line != "first" {
		t.Fatalf("first line = %q", line)
	}

	events := &eventRecorder{}
	table.Subscribe(events)
	dst := src.Move()
	defer dst.Close()

	if got := events.types(); len(got) != 2 || got[0] != resource.EventRemoved || got[1] != resource.EventCreated {
		t.Fatalf("Move events = %v, want [removed created]", got)
	}

	if src.IsOpen() {
		t.Fatal("source must be closed after Move")
	}
	if !dst.IsOpen() || dst.Path() != path {
		t.Fatal("destination must own the handle")
	}
	if table.Len() != 1 {
		t.Fatalf("Move must not duplicate or drop the handle, %d live", table.Len())
	}
	if line, err := dst.ReadLine(); err != nil || line != "second" {
		t.Fatalf("read after move = %q, %v", line, err)
	}
	if _, err := src.ReadLine(); !errors.Is(err, toolerrors.ErrStreamState) {
		t.Fatalf("read on moved-from stream: %v", err)
	}

	empty := NewOutputStream().Move()
	if empty.IsOpen() {
		t.Fatal("moving a closed stream yields a closed stream")
	}
}

type eventRecorder struct {
	events []resource.Event
}

func (r *eventRecorder) OnResourceEvent(e resource.Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) types() []resource.EventType {
	var out []resource.EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestOutput_Move(t *testing.T) {
	path := filepath.Join(t.TempDir(), "om.txt")
	table := resource.NewTable()

	src, err := OpenOutput(path, ModeAppend, WithTable(table))
	if err != nil {
		t.Fatal(err)
	}
	dst := src.Move()
	if err := dst.WriteLine("moved"); err != nil {
		t.Fatal(err)
	}
	if err := src.WriteLine("nope"); !errors.Is(err, toolerrors.ErrStreamState) {
		t.Fatalf("write on moved-from stream: %v", err)
	}
	if err := dst.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readBytes(t, path); got != "moved\n" {
		t.Errorf("got %q", got)
	}
	if table.Len() != 0 {
		t.Errorf("%d handles live after close", table.Len())
	}
}

func TestTableClosedUnderneath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.txt")
	table := resource.NewTable()
	out, err := OpenOutput(path, ModeWrite, WithTable(table))
	if err != nil {
		t.Fatal(err)
	}

	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if out.IsOpen() || out.Path() != "" || out.Mode() != 0 {
		t.Fatalf("revoked stream still reports open: %v %q %v", out.IsOpen(), out.Path(), out.Mode())
	}
	if _, err := out.WriteString("x"); !errors.Is(err, toolerrors.ErrStreamState) {
		t.Fatalf("write on revoked handle: err = %v, want ErrStreamState", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close after revocation: %v", err)
	}

	if err := out.Open(path, ModeWrite); err != nil {
		t.Fatalf("reopen after revocation: %v", err)
	}
	_ = out.Close()
}

func TestReopenAfterHandleDroppedUnderneath(t *testing.T) {
	dir := t.TempDir()
	table := resource.NewTable()
	first, err := OpenOutput(filepath.Join(dir, "first.txt"), ModeWrite, WithTable(table))
	if err != nil {
		t.Fatal(err)
	}

	var id resource.Handle
	table.Each(func(h resource.Handle, _ resource.TypeID, _ any) bool {
		id = h
		return false
	})
	if err := table.Drop(id); err != nil {
		t.Fatal(err)
	}
	if first.IsOpen() {
		t.Fatal("stream whose handle was dropped must not report open")
	}

	// the freed id is handed to the next stream
	second, err := OpenOutput(filepath.Join(dir, "second.txt"), ModeWrite, WithTable(table))
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if err := first.Open(filepath.Join(dir, "first.txt"), ModeAppend); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	if !second.IsOpen() || table.Len() != 1 {
		t.Fatalf("closing the first stream released the second: open=%v live=%d", second.IsOpen(), table.Len())
	}
	if err := second.WriteLine("still here"); err != nil {
		t.Fatal(err)
	}
}

func TestUnreachableStreamIsReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gc.txt")
	table := resource.NewTable()

	func() {
		out := NewOutputStream(WithTable(table))
		if err := out.Open(path, ModeWrite); err != nil {
			t.Fatal(err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for table.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("unreachable stream was never released")
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	path := filepath.Join(t.TempDir(), "log.txt")
	if err := AppendString(path, "x", WithTable(resource.NewTable())); err != nil {
		t.Fatal(err)
	}
	_ = NewInputStream().Open(filepath.Join(t.TempDir(), "missing"), ModeRead)

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	joined := strings.Join(msgs, ",")
	for _, want := range []string{"stream opened", "stream closed", "stream open failed"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing log %q in %v", want, msgs)
		}
	}
}
