// Package charset resolves the platform narrow text encoding and provides
// strict decoders built on golang.org/x/text.
//
// The narrow encoding is what the operating system considers the default
// byte encoding for text files: the locale codeset on Unix-like systems and
// the ANSI code page on Windows. Go strings are UTF-8, so every narrow
// encoding is decoded into UTF-8 on read.
//
// The decoders in x/text substitute U+FFFD for byte sequences they cannot
// map. StrictDecoder turns that substitution into an error so callers can
// tell corrupt input from valid text.
package charset
