package logging

import "github.com/acarl005/stripansi"

// stripANSIEscapeSequences removes terminal escape sequences (colors, bold,
// cursor movement) from s. Literal backslash-escaped sequences inside quoted
// text are left untouched.
func stripANSIEscapeSequences(s string) string {
	return stripansi.Strip(s)
}
