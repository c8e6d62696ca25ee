package port

import (
	"regexp"
	"strconv"
	"strings"
)

var hexEscape = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)

// DecodeName repairs process names that lsof emits with byte escapes
// for spaces and non-ASCII characters ("Code\x20Helper"). Every \xNN
// sequence becomes the raw byte it names, so multi-byte UTF-8 names
// escaped byte by byte come back intact. Bytes that still do not form
// valid UTF-8 afterwards, and any replacement-character glyphs already
// present, become the literal token "unknown".
//
// DecodeName never fails and leaves already-clean names unchanged.
func DecodeName(name string) string {
	if strings.Contains(name, `\x`) {
		name = hexEscape.ReplaceAllStringFunc(name, func(esc string) string {
			b, err := strconv.ParseUint(esc[2:], 16, 8)
			if err != nil {
				return esc
			}
			return string([]byte{byte(b)})
		})
	}
	name = strings.ToValidUTF8(name, "�")
	return strings.ReplaceAll(name, "�", "unknown")
}
