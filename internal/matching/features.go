package matching

import (
	"fmt"
	"math"
	"strings"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/textutil"
)

// Feature names. They double as the keys of [matching.weights.<type>].
const (
	FeatureLastName     = "last_name"
	FeatureFirstName    = "first_name"
	FeatureNumber       = "number"
	FeatureAbbreviation = "abbreviation"
	FeatureNationality  = "nationality"
	FeatureFullName     = "full_name"

	FeatureExactName   = "exact_name"
	FeatureContainment = "containment"
	FeatureFuzzy       = "fuzzy"
	FeatureColor       = "color"
	FeatureActiveYears = "active_years"

	FeatureLocation    = "location"
	FeatureCountry     = "country"
	FeatureCoordinates = "coordinates"

	FeatureCircuit     = "circuit"
	FeatureDate        = "date"
	FeatureRoundNumber = "round_number"
)

// seasonOnlyScore is the round_number credit when both seasons agree but a
// round number is missing on either side.
const seasonOnlyScore = 0.5

const earthRadiusKM = 6371.0088

type featureDef struct {
	name   string
	weight float64
	score  ScoreFunc
}

// DefaultWeights returns the built-in weights of a matcher in declaration order.
func DefaultWeights(typ entity.Type) []FeatureScore {
	defs := definitions(typ, config.Default().Matching)
	out := make([]FeatureScore, len(defs))
	for i, d := range defs {
		out[i] = FeatureScore{Name: d.name, Weight: d.weight}
	}
	return out
}

// BuildFeatures merges weight overrides over the built-in table of typ.
// Unknown feature names are configuration errors.
func BuildFeatures(typ entity.Type, cfg config.Matching) ([]Feature, error) {
	defs := definitions(typ, cfg)
	if defs == nil {
		return nil, &config.ConfigurationError{Component: string(typ) + " matcher", Reason: "unknown entity type"}
	}
	overrides := overridesFor(typ, cfg.Weights)
	known := make(map[string]struct{}, len(defs))
	features := make([]Feature, len(defs))
	for i, d := range defs {
		known[d.name] = struct{}{}
		weight := d.weight
		if w, ok := overrides[d.name]; ok {
			weight = w
		}
		features[i] = Feature{Name: d.name, Weight: weight, Score: d.score}
	}
	for name := range overrides {
		if _, ok := known[name]; !ok {
			return nil, &config.ConfigurationError{
				Component: string(typ) + " matcher",
				Field:     "weights." + name,
				Reason:    fmt.Sprintf("is not a %s feature", typ),
			}
		}
	}
	return features, nil
}

func overridesFor(typ entity.Type, w config.Weights) map[string]float64 {
	switch typ {
	case entity.TypeDriver:
		return w.Driver
	case entity.TypeTeam:
		return w.Team
	case entity.TypeCircuit:
		return w.Circuit
	case entity.TypeRound:
		return w.Round
	default:
		return nil
	}
}

func definitions(typ entity.Type, cfg config.Matching) []featureDef {
	switch typ {
	case entity.TypeDriver:
		return []featureDef{
			{FeatureLastName, 0.30, func(r, c *Subject) float64 { return nameSimilarity(r.LastName, c.LastName) }},
			{FeatureFirstName, 0.20, func(r, c *Subject) float64 { return nameSimilarity(r.FirstName, c.FirstName) }},
			{FeatureNumber, 0.15, driverNumber},
			{FeatureAbbreviation, 0.15, bothUnknown(cfg.UnknownAbbreviationScore, func(s *Subject) string { return s.Abbreviation })},
			{FeatureNationality, 0.10, bothUnknown(cfg.UnknownNationalityScore, func(s *Subject) string { return s.Country })},
			{FeatureFullName, 0.10, func(r, c *Subject) float64 { return nameSimilarity(r.Sorted, c.Sorted) }},
		}
	case entity.TypeTeam:
		return []featureDef{
			{FeatureExactName, 0.40, teamExact},
			{FeatureContainment, 0.20, teamContainment},
			{FeatureFuzzy, 0.20, func(r, c *Subject) float64 { return nameSimilarity(r.TeamName, c.TeamName) }},
			{FeatureColor, 0.10, func(r, c *Subject) float64 { return exactKnown(r.Color, c.Color) }},
			{FeatureActiveYears, 0.10, activeYears},
		}
	case entity.TypeCircuit:
		return []featureDef{
			{FeatureExactName, 0.30, func(r, c *Subject) float64 { return exactKnown(r.Expanded, c.Expanded) }},
			{FeatureLocation, 0.25, circuitLocation},
			{FeatureCountry, 0.15, func(r, c *Subject) float64 { return exactKnown(r.Country, c.Country) }},
			{FeatureFuzzy, 0.15, func(r, c *Subject) float64 { return nameSimilarity(r.Expanded, c.Expanded) }},
			{FeatureCoordinates, 0.15, coordinates(cfg.DistanceBands)},
		}
	case entity.TypeRound:
		return []featureDef{
			{FeatureExactName, 0.25, func(r, c *Subject) float64 { return exactKnown(r.Stripped, c.Stripped) }},
			{FeatureCircuit, 0.25, roundCircuit},
			{FeatureDate, 0.25, dateProximity(cfg.DateWindowDays)},
			{FeatureRoundNumber, 0.15, roundNumber},
			{FeatureFuzzy, 0.10, func(r, c *Subject) float64 { return nameSimilarity(r.Stripped, c.Stripped) }},
		}
	default:
		return nil
	}
}

// nameSimilarity is Jaro-Winkler on normalized strings; a missing side scores 0.
func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return textutil.JaroWinkler(a, b)
}

// exactKnown is 1.0 for equal non-empty values.
func exactKnown(a, b string) float64 {
	if a != "" && a == b {
		return 1
	}
	return 0
}

func driverNumber(r, c *Subject) float64 {
	rd, cd := r.Attrs.Driver, c.Attrs.Driver
	if rd == nil || cd == nil || rd.Number <= 0 || rd.Number != cd.Number {
		return 0
	}
	return 1
}

// bothUnknown is a categorical feature that scores unknownScore when neither
// side carries the value.
func bothUnknown(unknownScore float64, value func(*Subject) string) ScoreFunc {
	return func(r, c *Subject) float64 {
		rv, cv := value(r), value(c)
		if rv == "" && cv == "" {
			return unknownScore
		}
		return exactKnown(rv, cv)
	}
}

func teamExact(r, c *Subject) float64 {
	if exactKnown(r.TeamName, c.TeamName) == 1 {
		return 1
	}
	if exactKnown(r.TeamName, c.ShortName) == 1 || exactKnown(r.ShortName, c.TeamName) == 1 {
		return 1
	}
	return 0
}

// teamContainment is 1.0 when one normalized name appears word-aligned inside
// the other ("red bull racing" in "oracle red bull racing").
func teamContainment(r, c *Subject) float64 {
	a, b := r.TeamName, c.TeamName
	if len(a) < 3 || len(b) < 3 {
		return 0
	}
	if containsWords(a, b) || containsWords(b, a) {
		return 1
	}
	return 0
}

func containsWords(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

func activeYears(r, c *Subject) float64 {
	if yearsOverlap(r.Attrs.Team, c.Attrs.Team, 0) {
		return 1
	}
	return 0
}

// yearsOverlap reports whether two known active ranges intersect once widened
// by slack. An open-ended range (ActiveTo 0) runs to the present.
func yearsOverlap(a, b *entity.TeamAttrs, slack int) bool {
	if a == nil || b == nil || a.ActiveFrom <= 0 || b.ActiveFrom <= 0 {
		return false
	}
	aTo, bTo := a.ActiveTo, b.ActiveTo
	if aTo <= 0 {
		aTo = math.MaxInt32
	}
	if bTo <= 0 {
		bTo = math.MaxInt32
	}
	return a.ActiveFrom-slack <= bTo && b.ActiveFrom-slack <= aTo
}

func circuitLocation(r, c *Subject) float64 {
	if r.Location == "" || c.Location == "" {
		return 0
	}
	return math.Max(textutil.JaroWinkler(r.Location, c.Location), textutil.TokenOverlap(r.Location, c.Location))
}

func coordinates(bands []config.DistanceBand) ScoreFunc {
	return func(r, c *Subject) float64 {
		rc, cc := r.Attrs.Circuit, c.Attrs.Circuit
		if !rc.HasCoordinates() || !cc.HasCoordinates() {
			return 0
		}
		distance := HaversineKM(*rc.Latitude, *rc.Longitude, *cc.Latitude, *cc.Longitude)
		for _, band := range bands {
			if distance < band.MaxKM {
				return band.Score
			}
		}
		return 0
	}
}

// HaversineKM returns the great-circle distance between two points in kilometres.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func roundCircuit(r, c *Subject) float64 {
	rr, cr := r.Attrs.Round, c.Attrs.Round
	if rr != nil && cr != nil && rr.CircuitID != "" && rr.CircuitID == cr.CircuitID {
		return 1
	}
	return exactKnown(r.CircuitName, c.CircuitName)
}

// dateProximity decays linearly from 1.0 for overlapping event dates to 0 at
// windowDays apart.
func dateProximity(windowDays int) ScoreFunc {
	window := float64(windowDays)
	return func(r, c *Subject) float64 {
		if !r.HasDates || !c.HasDates || window <= 0 {
			return 0
		}
		days := gapDays(r, c)
		return math.Max(0, 1-days/window)
	}
}

// gapDays is the number of days between two date intervals, 0 when they overlap.
func gapDays(a, b *Subject) float64 {
	switch {
	case a.End.Before(b.Start):
		return b.Start.Sub(a.End).Hours() / 24
	case b.End.Before(a.Start):
		return a.Start.Sub(b.End).Hours() / 24
	default:
		return 0
	}
}

func roundNumber(r, c *Subject) float64 {
	rr, cr := r.Attrs.Round, c.Attrs.Round
	if rr == nil || cr == nil || rr.Season <= 0 || rr.Season != cr.Season {
		return 0
	}
	if rr.RoundNumber <= 0 || cr.RoundNumber <= 0 {
		return seasonOnlyScore
	}
	if rr.RoundNumber == cr.RoundNumber {
		return 1
	}
	return 0
}
