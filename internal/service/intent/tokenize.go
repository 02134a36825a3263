package intent

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text, strips punctuation and symbols, and splits on
// whitespace. Empty tokens are dropped.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.Fields(b.String())
}

// termFrequency counts tokens relative to the message length.
func termFrequency(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	if len(tokens) == 0 {
		return tf
	}
	for _, tok := range tokens {
		tf[tok]++
	}
	n := float64(len(tokens))
	for tok, count := range tf {
		tf[tok] = count / n
	}
	return tf
}
