// Package textnorm holds the text normalization shared by the risk and QA
// engines so keyword, phrase, and token-set matching all agree on what a
// word is.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases the text, composes combining accents (ASR output can
// arrive decomposed, which would break "cancelación" lookups), and collapses
// everything that is not a letter or digit into single spaces.
func Normalize(text string) string {
	composed := norm.NFC.String(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits the normalized text into words.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// TokenSet returns the distinct normalized words.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokens(text) {
		set[tok] = struct{}{}
	}
	return set
}

// ContainsPhrase reports whether the normalized phrase occurs in the
// normalized text on word boundaries.
func ContainsPhrase(text, phrase string) bool {
	return CountPhrase(text, phrase) > 0
}

// CountPhrase counts word-boundary occurrences of the normalized phrase.
func CountPhrase(text, phrase string) int {
	p := Normalize(phrase)
	if p == "" {
		return 0
	}
	padded := " " + Normalize(text) + " "
	needle := " " + p + " "
	count := 0
	for i := 0; ; {
		j := strings.Index(padded[i:], needle)
		if j < 0 {
			return count
		}
		count++
		// Keep the trailing space as the next occurrence's leading
		// boundary so adjacent repeats all count.
		i += j + len(needle) - 1
	}
}

// ContextWindow returns up to window runes of raw text around the first
// case-insensitive occurrence of needle, for evidence snippets. Empty when
// the needle cannot be located in the raw text.
func ContextWindow(raw, needle string, window int) string {
	idx := strings.Index(strings.ToLower(raw), strings.ToLower(needle))
	if idx < 0 {
		return ""
	}
	runes := []rune(raw)
	// byte index -> rune index
	start := len([]rune(raw[:idx]))
	end := start + len([]rune(needle))
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(runes) {
		hi = len(runes)
	}
	return strings.TrimSpace(string(runes[lo:hi]))
}
