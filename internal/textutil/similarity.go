package textutil

// Cosine returns the cosine similarity between two fingerprints, or 0 when
// either is nil.
func (f *Fingerprint) Cosine(other *Fingerprint) float64 {
	if f == nil || other == nil || f.norm == 0 || other.norm == 0 {
		return 0
	}
	var dot float64
	small, large := f, other
	if len(small.tokens) > len(large.tokens) {
		small, large = large, small
	}
	for token, count := range small.tokens {
		dot += count * large.tokens[token]
	}
	if dot == 0 {
		return 0
	}
	score := dot / (f.norm * other.norm)
	if score > 1 {
		return 1
	}
	return score
}

// TokenOverlap scores how many words a and b share, independent of order.
func TokenOverlap(a, b string) float64 {
	return NewFingerprint(a).Cosine(NewFingerprint(b))
}
