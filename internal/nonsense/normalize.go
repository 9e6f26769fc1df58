package nonsense

import (
	"strings"
	"unicode"
)

// Normalize canonicalises text into the lowercase letter-only form that
// n-gram windows slide across. Digits, punctuation, and whitespace are
// removed outright, so windows span the concatenation of the letter runs:
// "foo_bar9baz" normalises to "foobarbaz".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
