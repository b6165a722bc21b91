// Package textutil provides the string metrics the matchers score with.
//
// Distances (Levenshtein, unrestricted Damerau-Levenshtein) and similarities
// (Jaro, Jaro-Winkler, cosine over token fingerprints) operate on runes, are
// pure, and never fail. Callers fold and normalize their inputs first; these
// functions compare exactly what they are given.
package textutil
