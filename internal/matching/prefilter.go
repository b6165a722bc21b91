package matching

import (
	"slices"
	"strings"

	"paddock/internal/config"
	"paddock/internal/entity"
)

// Prefilter discards candidates that cannot plausibly match before they are
// scored. Rules only reject when both sides carry the compared attribute.
type Prefilter struct {
	rules config.Prefilter
}

// NewPrefilter builds a pre-filter from configuration.
func NewPrefilter(rules config.Prefilter) Prefilter {
	return Prefilter{rules: rules}
}

// Allow reports whether cand should be scored against rec.
func (p Prefilter) Allow(rec, cand *Subject) bool {
	switch rec.Type {
	case entity.TypeDriver:
		return p.allowDriver(rec, cand)
	case entity.TypeTeam:
		if p.rules.TeamYearOverlap {
			rt, ct := rec.Attrs.Team, cand.Attrs.Team
			if rt != nil && ct != nil && rt.ActiveFrom > 0 && ct.ActiveFrom > 0 {
				return yearsOverlap(rt, ct, p.rules.TeamYearSlack)
			}
		}
		return true
	case entity.TypeCircuit:
		if p.rules.CircuitCountry && rec.Country != "" && cand.Country != "" {
			return rec.Country == cand.Country
		}
		return true
	case entity.TypeRound:
		if p.rules.RoundSeason {
			rr, cr := rec.Attrs.Round, cand.Attrs.Round
			if rr != nil && cr != nil && rr.Season > 0 && cr.Season > 0 {
				return rr.Season == cr.Season
			}
		}
		return true
	default:
		return true
	}
}

func (p Prefilter) allowDriver(rec, cand *Subject) bool {
	if p.rules.DriverNationality && rec.Country != "" && cand.Country != "" && rec.Country != cand.Country {
		return false
	}
	if !p.rules.DriverNameInitial {
		return true
	}
	ri, ci := surnameInitial(rec.LastName), surnameInitial(cand.LastName)
	if ri == "" || ci == "" || ri == ci {
		return true
	}
	if exactKnown(rec.Abbreviation, cand.Abbreviation) == 1 {
		return true
	}
	if driverNumber(rec, cand) == 1 {
		return true
	}
	return surnameInName(rec.LastName, cand.Sorted) || surnameInName(cand.LastName, rec.Sorted)
}

// surnameInName reports whether every word of lastName appears in the sorted
// full name, which catches feeds that put the family name first.
func surnameInName(lastName, sorted string) bool {
	words := strings.Fields(lastName)
	if len(words) == 0 {
		return false
	}
	names := strings.Fields(sorted)
	for _, w := range words {
		if !slices.Contains(names, w) {
			return false
		}
	}
	return true
}

// surnameInitial is the first letter of the last word of a normalized surname,
// so "de vries" and "vries" agree.
func surnameInitial(lastName string) string {
	words := strings.Fields(lastName)
	if len(words) == 0 {
		return ""
	}
	last := []rune(words[len(words)-1])
	return string(last[0])
}
