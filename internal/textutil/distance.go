package textutil

// Levenshtein returns the edit distance between a and b counted in runes, with
// unit cost for insertion, deletion and substitution.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Keep the shorter input in ra so the rows stay small.
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

// DamerauLevenshtein returns the unrestricted Damerau-Levenshtein distance:
// Levenshtein edits plus transposition of two adjacent runes, where a
// transposed pair may be edited again afterwards ("CA" → "ABC" costs 2).
func DamerauLevenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	inf := la + lb
	d := make([][]int, la+2)
	for i := range d {
		d[i] = make([]int, lb+2)
	}
	d[0][0] = inf
	for i := 0; i <= la; i++ {
		d[i+1][0] = inf
		d[i+1][1] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j+1] = inf
		d[1][j+1] = j
	}

	lastRow := make(map[rune]int, la)
	for i := 1; i <= la; i++ {
		lastMatchCol := 0
		for j := 1; j <= lb; j++ {
			i1 := lastRow[rb[j-1]]
			j1 := lastMatchCol
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
				lastMatchCol = j
			}
			d[i+1][j+1] = min(
				d[i][j]+cost,
				d[i+1][j]+1,
				d[i][j+1]+1,
				d[i1][j1]+(i-i1-1)+1+(j-j1-1),
			)
		}
		lastRow[ra[i-1]] = i
	}
	return d[la+1][lb+1]
}

// LevenshteinSimilarity maps the edit distance onto [0,1]:
// 1 - distance/max(len(a), len(b)). Two empty strings are identical.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}
