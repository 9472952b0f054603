package charset

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrInvalidSequence is matched by every InvalidSequenceError.
var ErrInvalidSequence = errors.New("invalid byte sequence")

// InvalidSequenceError reports where strict decoding stopped.
type InvalidSequenceError struct {
	Encoding string
	Offset   int64
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("invalid %s byte sequence at offset %d", e.Encoding, e.Offset)
}

func (e *InvalidSequenceError) Is(target error) bool {
	return target == ErrInvalidSequence
}

// Decoder is a transformer that fails on undecodable input and remembers
// how many source bytes it has consumed.
type Decoder struct {
	t          transform.Transformer
	enc        *encoding.Encoder
	name       string
	bom        []byte // written by enc before any text
	fffd       []byte // enc's encoding of U+FFFD, nil if it has none
	lead       int    // source bytes taken by a byte order mark
	offset     int64
	utf8       bool
	singleByte bool
	swapped    bool
}

// StrictDecoder returns a decoder from enc to UTF-8 that fails with an
// *InvalidSequenceError instead of substituting U+FFFD. Encodings that can
// represent U+FFFD themselves are told apart by comparing the source bytes.
func StrictDecoder(enc encoding.Encoding) *Decoder {
	d := &Decoder{name: Name(enc)}
	if IsUTF8(enc) {
		d.t = encoding.UTF8Validator
		d.utf8 = true
		return d
	}
	d.t = enc.NewDecoder()
	d.singleByte = singleByte(enc)
	d.enc = enc.NewEncoder()

	one, err1 := d.enc.String("a")
	two, err2 := d.enc.String("aa")
	if err1 == nil && err2 == nil {
		if n := 2*len(one) - len(two); n > 0 && n <= len(one) {
			d.bom = []byte(one[:n])
		}
	}
	if r, err := d.enc.String(string(utf8.RuneError)); err == nil && len(r) > len(d.bom) {
		d.fffd = []byte(r[len(d.bom):])
	}
	return d
}

// Offset returns the number of source bytes decoded so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Reset implements transform.Transformer.
func (d *Decoder) Reset() {
	d.t.Reset()
	d.offset = 0
	d.lead = 0
	if d.swapped {
		d.fffd = swapPairs(d.fffd)
		d.swapped = false
	}
}

// Transform implements transform.Transformer.
func (d *Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	nDst, nSrc, err = d.t.Transform(dst, src, atEOF)

	if d.utf8 {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			// the validator stops right before the offending byte
			d.offset += int64(nSrc)
			return nDst, nSrc, &InvalidSequenceError{Encoding: d.name, Offset: d.offset}
		}
		d.offset += int64(nSrc)
		return nDst, nSrc, err
	}

	if d.offset == 0 && nSrc > 0 {
		d.readBOM(src[:nSrc])
	}
	if i, at := d.invalid(dst[:nDst], src[:nSrc]); i >= 0 {
		d.offset += int64(at)
		return i, nSrc, &InvalidSequenceError{Encoding: d.name, Offset: d.offset}
	}
	d.offset += int64(nSrc)
	return nDst, nSrc, err
}

// readBOM notes a byte order mark at the start of the source. A mark in the
// opposite byte order flips how U+FFFD is spelled.
func (d *Decoder) readBOM(src []byte) {
	if len(d.bom) != 2 || len(src) < 2 {
		return
	}
	switch {
	case bytes.HasPrefix(src, d.bom):
		d.lead = 2
	case src[0] == d.bom[1] && src[1] == d.bom[0]:
		d.lead = 2
		d.fffd = swapPairs(d.fffd)
		d.swapped = true
	}
}

func swapPairs(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	for i := 0; i+1 < len(b); i += 2 {
		out[i], out[i+1] = b[i+1], b[i]
	}
	return out
}

// invalid finds the first U+FFFD in out that the decoder substituted for bad
// input. It returns its index in out and its offset in in, or -1 when every
// U+FFFD was spelled out in the source.
func (d *Decoder) invalid(out, in []byte) (int, int) {
	pos, last := 0, 0
	if d.offset == 0 {
		pos = d.lead
	}
	for {
		i := bytes.IndexRune(out[last:], utf8.RuneError)
		if i < 0 {
			return -1, 0
		}
		i += last

		n, ok := d.sourceLen(out[last:i])
		if !ok {
			return i, pos
		}
		pos += n
		if pos > len(in) {
			return i, len(in)
		}
		if d.fffd == nil || !bytes.HasPrefix(in[pos:], d.fffd) {
			return i, pos
		}
		pos += len(d.fffd)
		last = i + utf8.RuneLen(utf8.RuneError)
	}
}

// sourceLen is the number of source bytes text was decoded from.
func (d *Decoder) sourceLen(text []byte) (int, bool) {
	if len(text) == 0 {
		return 0, true
	}
	if d.singleByte {
		return utf8.RuneCount(text), true
	}
	b, err := d.enc.Bytes(text)
	if err != nil || len(b) < len(d.bom) {
		return 0, false
	}
	return len(b) - len(d.bom), true
}
