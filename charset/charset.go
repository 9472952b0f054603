package charset

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	toolerrors "github.com/wippyai/toolbox/errors"
)

// UTF8 is the encoding of Go strings and the fallback narrow encoding.
var UTF8 encoding.Encoding = unicode.UTF8

var (
	native     encoding.Encoding
	nativeName string
	nativeOnce sync.Once
)

// Native returns the platform narrow encoding. The result is computed once.
func Native() encoding.Encoding {
	nativeOnce.Do(func() {
		name := platformCodeset()
		enc, err := Lookup(name)
		if err != nil || name == "" {
			native, nativeName = UTF8, "UTF-8"
			return
		}
		native, nativeName = enc, Name(enc)
	})
	return native
}

// NativeName returns the canonical name of Native().
func NativeName() string {
	Native()
	return nativeName
}

var isoCodeset = regexp.MustCompile(`(?i)^iso[-_]?8859[-_]?(\d+)$`)

// normalize maps libc codeset spellings onto names the IANA index knows.
func normalize(name string) string {
	name = strings.TrimSpace(name)
	if m := isoCodeset.FindStringSubmatch(name); m != nil {
		return "ISO-8859-" + m[1]
	}
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "utf8":
		return "UTF-8"
	case "eucjp":
		return "EUC-JP"
	case "euckr":
		return "EUC-KR"
	case "sjis":
		return "Shift_JIS"
	case "ansi_x3.41968", "ascii", "usascii":
		return "US-ASCII"
	}
	return name
}

// Lookup resolves an encoding by IANA name, MIME name or WHATWG label.
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, toolerrors.UnknownEncoding(name, nil)
	}
	norm := normalize(name)
	if strings.EqualFold(norm, "UTF-8") {
		return UTF8, nil
	}
	if strings.EqualFold(norm, "US-ASCII") {
		// ASCII text is valid UTF-8.
		return UTF8, nil
	}
	for _, idx := range []*ianaindex.Index{ianaindex.IANA, ianaindex.MIME} {
		enc, err := idx.Encoding(norm)
		if err == nil && enc != nil {
			return enc, nil
		}
	}
	enc, err := htmlindex.Get(norm)
	if err != nil {
		return nil, toolerrors.UnknownEncoding(name, err)
	}
	return enc, nil
}

// Name returns a canonical, human-readable name for enc.
func Name(enc encoding.Encoding) string {
	if enc == UTF8 {
		return "UTF-8"
	}
	for _, idx := range []*ianaindex.Index{ianaindex.MIME, ianaindex.IANA} {
		if n, err := idx.Name(enc); err == nil {
			return n
		}
	}
	if n, err := htmlindex.Name(enc); err == nil {
		return n
	}
	if s, ok := enc.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", enc)
}

// IsUTF8 reports whether enc is UTF-8, in which case decoding is validation only.
func IsUTF8(enc encoding.Encoding) bool {
	return enc == UTF8
}

// NewReader returns a reader that strictly decodes r from enc into UTF-8.
func NewReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, StrictDecoder(enc))
}

func singleByte(enc encoding.Encoding) bool {
	_, ok := enc.(*charmap.Charmap)
	return ok
}
