package matching

import (
	"sort"

	"paddock/internal/entity"
)

// Candidate is a scored canonical entity.
type Candidate struct {
	Entity *entity.Entity
	Scores []FeatureScore
	Total  float64
}

// EntityID returns the candidate's canonical ID.
func (c Candidate) EntityID() string {
	if c.Entity == nil {
		return ""
	}
	return c.Entity.ID
}

// CandidateList ranks candidates by total score.
type CandidateList []Candidate

func (c CandidateList) Len() int { return len(c) }

func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less sorts by total descending, then by entity ID for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Total != c[j].Total {
		return c[i].Total > c[j].Total
	}
	return c[i].EntityID() < c[j].EntityID()
}

// Rank sorts the list in place and returns it.
func (c CandidateList) Rank() CandidateList {
	sort.Sort(c)
	return c
}

// Top returns at most n leading candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n <= 0 || n >= len(c) {
		return c
	}
	return c[:n]
}

// Best returns the leading candidate of a ranked list.
func (c CandidateList) Best() (Candidate, bool) {
	if len(c) == 0 {
		return Candidate{}, false
	}
	return c[0], true
}

// Contenders counts the leading candidates whose total is within epsilon of the
// best and at or above floor. A ranked list is assumed.
func (c CandidateList) Contenders(epsilon, floor float64) int {
	best, ok := c.Best()
	if !ok {
		return 0
	}
	count := 0
	for _, cand := range c {
		if best.Total-cand.Total > epsilon+ScoreTolerance || cand.Total < floor-ScoreTolerance {
			break
		}
		count++
	}
	return count
}

// ScoreTolerance absorbs float rounding when totals are compared to thresholds.
// Stored score filters apply it too.
const ScoreTolerance = 1e-9

// AtLeast reports whether score reaches threshold, allowing for float rounding
// in weighted sums.
func AtLeast(score, threshold float64) bool {
	return score >= threshold-ScoreTolerance
}

// AtMost reports whether score does not exceed threshold, allowing for float
// rounding in weighted sums.
func AtMost(score, threshold float64) bool {
	return score <= threshold+ScoreTolerance
}
