package textutil

const (
	winklerPrefixScale = 0.1
	winklerMaxPrefix   = 4
)

// Jaro returns the Jaro similarity of a and b in [0,1]. Two empty strings are
// identical; an empty string against a non-empty one scores 0.
func Jaro(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	window := max(len(ra), len(rb))/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(ra))
	matchedB := make([]bool, len(rb))
	matches := 0
	for i := range ra {
		lo := max(0, i-window)
		hi := min(len(rb)-1, i+window)
		for j := lo; j <= hi; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := range ra {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(ra)) + m/float64(len(rb)) + (m-t)/m) / 3
}

// JaroWinkler boosts the Jaro similarity by the length of the common prefix
// (at most four runes, scale 0.1). JaroWinkler(a, a) is 1 for any a.
func JaroWinkler(a, b string) float64 {
	j := Jaro(a, b)
	if j <= 0 {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	prefix := 0
	for prefix < min(len(ra), len(rb), winklerMaxPrefix) && ra[prefix] == rb[prefix] {
		prefix++
	}

	score := j + float64(prefix)*winklerPrefixScale*(1-j)
	if score > 1 {
		return 1
	}
	return score
}
