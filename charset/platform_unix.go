//go:build !windows

package charset

import (
	"os"
	"strings"
)

// platformCodeset returns the codeset of the active locale, following the
// LC_ALL > LC_CTYPE > LANG precedence. "C" and "POSIX" have no codeset.
func platformCodeset() string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return codesetOf(v)
		}
	}
	return ""
}

// codesetOf extracts CODESET from language[_territory][.codeset][@modifier].
func codesetOf(locale string) string {
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	i := strings.IndexByte(locale, '.')
	if i < 0 {
		return ""
	}
	return locale[i+1:]
}
