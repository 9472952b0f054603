package stream

import (
	"os"
	"strings"
)

// Mode is a composable set of open flags.
type Mode uint8

const (
	// ModeRead opens for reading.
	ModeRead Mode = 1 << iota
	// ModeWrite opens for writing. Without ModeAppend or ModeRead it truncates.
	ModeWrite
	// ModeAppend positions every write at the current end of file.
	ModeAppend
	// ModeTruncate discards existing content on open.
	ModeTruncate

	modeMask = ModeRead | ModeWrite | ModeAppend | ModeTruncate
)

var modeNames = []struct {
	m    Mode
	name string
}{
	{ModeRead, "read"},
	{ModeWrite, "write"},
	{ModeAppend, "append"},
	{ModeTruncate, "truncate"},
}

func (m Mode) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, n := range modeNames {
		if m&n.m != 0 {
			parts = append(parts, n.name)
		}
	}
	if m&^modeMask != 0 {
		parts = append(parts, "invalid")
	}
	return strings.Join(parts, "|")
}

// Has reports whether every bit of flag is set in m.
func (m Mode) Has(flag Mode) bool {
	return m&flag == flag
}

// Valid reports whether m can be used to open a file.
func (m Mode) Valid() bool {
	_, ok := m.flags()
	return ok
}

// flags maps m onto os.OpenFile flags.
func (m Mode) flags() (int, bool) {
	if m == 0 || m&^modeMask != 0 {
		return 0, false
	}
	if m.Has(ModeAppend) && m.Has(ModeTruncate) {
		return 0, false
	}

	read := m.Has(ModeRead)
	write := m&(ModeWrite|ModeAppend|ModeTruncate) != 0

	switch {
	case read && !write:
		return os.O_RDONLY, true
	case !read:
		f := os.O_WRONLY | os.O_CREATE
		if m.Has(ModeAppend) {
			f |= os.O_APPEND
		} else {
			f |= os.O_TRUNC
		}
		return f, true
	default:
		f := os.O_RDWR
		if m.Has(ModeAppend) {
			f |= os.O_CREATE | os.O_APPEND
		} else if m.Has(ModeTruncate) {
			f |= os.O_CREATE | os.O_TRUNC
		}
		return f, true
	}
}
