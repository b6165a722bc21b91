package textutil

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenSplitPattern matches runs of characters that are neither letters nor digits.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fingerprint represents a term-frequency vector for token overlap comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits text into lowercase tokens, dropping tokens shorter than 3 runes.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// SortedTokens returns the whitespace-separated words of s in lexical order,
// so "Hamilton Lewis" and "Lewis Hamilton" compare equal.
func SortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
