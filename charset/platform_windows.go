//go:build windows

package charset

import (
	"strconv"

	"golang.org/x/sys/windows"
)

var codePages = map[uint32]string{
	437:   "IBM437",
	866:   "IBM866",
	874:   "windows-874",
	932:   "Shift_JIS",
	936:   "GBK",
	949:   "EUC-KR",
	950:   "Big5",
	20866: "KOI8-R",
	28591: "ISO-8859-1",
	65001: "UTF-8",
}

// platformCodeset returns the name of the process ANSI code page.
func platformCodeset() string {
	acp := windows.GetACP()
	if name, ok := codePages[acp]; ok {
		return name
	}
	if acp >= 1250 && acp <= 1258 {
		return "windows-" + strconv.FormatUint(uint64(acp), 10)
	}
	return ""
}
