// internal/room/codes.go
package room

import (
	"math/rand"
	"strings"
)

// codeAlphabet omits I and O, which read as digits when spoken or
// scrawled on a napkin.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength is the fixed room code length.
const CodeLength = 4

// newCode draws a random four-letter room code.
func newCode(r *rand.Rand) string {
	var b strings.Builder
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[r.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode uppercases and trims a client-supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a normalized code is well-formed.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
