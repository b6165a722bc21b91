package matching

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paddock/internal/config"
	"paddock/internal/entity"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(config.Default().Matching, nil)
	require.NoError(t, err)
	return reg
}

func prepared(t *testing.T, rec entity.Record) entity.Record {
	t.Helper()
	out, err := rec.Prepare()
	require.NoError(t, err)
	return out
}

func canonical(t *testing.T, id string, rec entity.Record) *entity.Entity {
	t.Helper()
	e := entity.NewEntityFromRecord(id, prepared(t, rec), time.Unix(0, 0))
	return &e
}

func featureScore(t *testing.T, c Candidate, name string) float64 {
	t.Helper()
	for _, s := range c.Scores {
		if s.Name == name {
			return s.Score
		}
	}
	t.Fatalf("feature %q missing from breakdown", name)
	return 0
}

func ptr(v float64) *float64 { return &v }

func TestDefaultWeightsSumToOne(t *testing.T) {
	reg := newTestRegistry(t)
	for _, typ := range entity.AllTypes() {
		m, err := reg.For(typ)
		require.NoError(t, err)
		sum := 0.0
		for _, w := range m.Weights() {
			sum += w.Weight
		}
		assert.InDelta(t, 1.0, sum, weightTolerance, "type %s", typ)
		assert.Equal(t, DefaultWeights(typ), m.Weights())
	}
}

func TestNewMatcherRejectsInvalidWeights(t *testing.T) {
	score := func(*Subject, *Subject) float64 { return 1 }
	cases := []struct {
		name     string
		features []Feature
	}{
		{"empty", nil},
		{"sum below one", []Feature{{Name: "a", Weight: 0.5, Score: score}, {Name: "b", Weight: 0.3, Score: score}}},
		{"negative", []Feature{{Name: "a", Weight: 1.2, Score: score}, {Name: "b", Weight: -0.2, Score: score}}},
		{"duplicate", []Feature{{Name: "a", Weight: 0.5, Score: score}, {Name: "a", Weight: 0.5, Score: score}}},
		{"missing scorer", []Feature{{Name: "a", Weight: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMatcher(entity.TypeDriver, tc.features)
			var cfgErr *config.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, "driver matcher", cfgErr.Component)
			assert.True(t, errors.Is(err, config.ErrConfiguration))
		})
	}
}

func TestRegistryWeightOverrides(t *testing.T) {
	cfg := config.Default().Matching
	cfg.Weights.Team = map[string]float64{"exact_name": 0.30, "fuzzy": 0.30}
	reg, err := NewRegistry(cfg, nil)
	require.NoError(t, err)
	m, err := reg.For(entity.TypeTeam)
	require.NoError(t, err)
	assert.Equal(t, 0.30, m.Weights()[0].Weight)

	cfg = config.Default().Matching
	cfg.Weights.Driver = map[string]float64{"last_name": 0.50}
	_, err = NewRegistry(cfg, nil)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "driver matcher", cfgErr.Component)
	assert.Contains(t, err.Error(), "must sum to 1.0")

	cfg = config.Default().Matching
	cfg.Weights.Circuit = map[string]float64{"altitude": 0.0}
	_, err = NewRegistry(cfg, nil)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "circuit matcher", cfgErr.Component)
	assert.Equal(t, "weights.altitude", cfgErr.Field)
}

func TestDriverIdenticalNamesAndNumber(t *testing.T) {
	reg := newTestRegistry(t)
	m, _ := reg.For(entity.TypeDriver)
	rec := prepared(t, entity.Record{
		Type: entity.TypeDriver, Source: "timing",
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{FirstName: "Lewis", LastName: "Hamilton", Number: 44}},
	})
	cand := canonical(t, "drv-1", entity.Record{
		Type: entity.TypeDriver, Source: "seed", Name: "Lewis Hamilton",
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{Number: 44}},
	})

	got := m.Score(reg.Subject(rec), reg.EntitySubject(cand))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureLastName))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureFirstName))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureNumber))
	assert.Equal(t, 0.5, featureScore(t, got, FeatureNationality))
	assert.InDelta(t, 0.875, got.Total, 1e-9)
	assert.True(t, AtLeast(got.Total, 0.85))
	assert.Equal(t, "drv-1", got.EntityID())
}

func TestDriverNationalityAliases(t *testing.T) {
	reg := newTestRegistry(t)
	m, _ := reg.For(entity.TypeDriver)
	rec := prepared(t, entity.Record{
		Type: entity.TypeDriver, Source: "timing", Name: "Max Verstappen",
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{Number: 1, Nationality: "NED", Abbreviation: "ver"}},
	})
	cand := canonical(t, "drv-33", entity.Record{
		Type: entity.TypeDriver, Source: "seed", Name: "Max Verstappen",
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{Number: 33, Nationality: "Dutch", Abbreviation: "VER"}},
	})

	got := m.Score(reg.Subject(rec), reg.EntitySubject(cand))
	assert.Equal(t, 0.0, featureScore(t, got, FeatureNumber))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureNationality))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureAbbreviation))
	assert.InDelta(t, 0.85, got.Total, 1e-9)
	assert.True(t, AtLeast(got.Total, 0.85))
}

func TestRoundSponsorTextIgnored(t *testing.T) {
	reg := newTestRegistry(t)
	m, _ := reg.For(entity.TypeRound)
	rec := prepared(t, entity.Record{
		Type: entity.TypeRound, Source: "feed", Name: "FORMULA 1 HEINEKEN CHINESE GRAND PRIX 2025",
		Attributes: entity.Attributes{Round: &entity.RoundAttrs{Season: 2025, StartDate: "2025-03-21", CircuitName: "Shanghai International Circuit"}},
	})
	cand := canonical(t, "rnd-2", entity.Record{
		Type: entity.TypeRound, Source: "seed", Name: "Chinese Grand Prix",
		Attributes: entity.Attributes{Round: &entity.RoundAttrs{Season: 2025, RoundNumber: 2, StartDate: "2025-03-21", EndDate: "2025-03-23", CircuitName: "Shanghai International Circuit"}},
	})

	got := m.Score(reg.Subject(rec), reg.EntitySubject(cand))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureExactName))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureCircuit))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureDate))
	assert.Equal(t, seasonOnlyScore, featureScore(t, got, FeatureRoundNumber))
	assert.True(t, AtLeast(got.Total, 0.85), "total %.4f", got.Total)
}

func TestRoundDateDecay(t *testing.T) {
	score := dateProximity(7)
	a := &Subject{HasDates: true, Start: date("2024-05-01"), End: date("2024-05-01")}
	b := &Subject{HasDates: true, Start: date("2024-05-04"), End: date("2024-05-05")}
	assert.InDelta(t, 1-3.0/7.0, score(a, b), 1e-9)
	assert.InDelta(t, 1-3.0/7.0, score(b, a), 1e-9)

	overlap := &Subject{HasDates: true, Start: date("2024-05-03"), End: date("2024-05-05")}
	assert.Equal(t, 1.0, score(b, overlap))

	far := &Subject{HasDates: true, Start: date("2024-06-01"), End: date("2024-06-01")}
	assert.Equal(t, 0.0, score(a, far))
	assert.Equal(t, 0.0, score(a, &Subject{}))
}

func date(s string) time.Time {
	t, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHaversine(t *testing.T) {
	assert.Equal(t, 0.0, HaversineKM(31.33, 121.22, 31.33, 121.22))
	assert.InDelta(t, 111.195, HaversineKM(0, 0, 0, 1), 0.01)
	assert.InDelta(t, HaversineKM(52.07, -1.02, 45.62, 9.28), HaversineKM(45.62, 9.28, 52.07, -1.02), 1e-9)
}

func TestCircuitCoordinateBands(t *testing.T) {
	score := coordinates(config.Default().Matching.DistanceBands)
	at := func(lat, lon float64) *Subject {
		return &Subject{Attrs: entity.Attributes{Circuit: &entity.CircuitAttrs{Latitude: ptr(lat), Longitude: ptr(lon)}}}
	}
	base := at(52.0786, -1.0169)
	cases := []struct {
		name string
		cand *Subject
		want float64
	}{
		{"same point", at(52.0786, -1.0169), 1.0},
		{"under one km", at(52.0796, -1.0169), 1.0},
		{"under ten km", at(52.1286, -1.0169), 0.5},
		{"far", at(52.5786, -1.0169), 0.0},
		{"unknown", &Subject{Attrs: entity.Attributes{Circuit: &entity.CircuitAttrs{}}}, 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, score(base, tc.cand))
		})
	}
}

func TestCircuitAbbreviationExpansion(t *testing.T) {
	reg := newTestRegistry(t)
	m, _ := reg.For(entity.TypeCircuit)
	rec := prepared(t, entity.Record{
		Type: entity.TypeCircuit, Source: "feed", Name: "COTA",
		Attributes: entity.Attributes{Circuit: &entity.CircuitAttrs{Location: "Austin", Country: "USA", Latitude: ptr(30.1328), Longitude: ptr(-97.6411)}},
	})
	cand := canonical(t, "cir-1", entity.Record{
		Type: entity.TypeCircuit, Source: "seed", Name: "Circuit of the Americas",
		Attributes: entity.Attributes{Circuit: &entity.CircuitAttrs{Location: "Austin, Texas", Country: "United States", Latitude: ptr(30.1328), Longitude: ptr(-97.6411)}},
	})

	got := m.Score(reg.Subject(rec), reg.EntitySubject(cand))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureExactName))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureCountry))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureCoordinates))
	assert.True(t, AtLeast(got.Total, 0.85), "total %.4f", got.Total)
}

func TestTeamContainmentAndColor(t *testing.T) {
	reg := newTestRegistry(t)
	m, _ := reg.For(entity.TypeTeam)
	rec := prepared(t, entity.Record{
		Type: entity.TypeTeam, Source: "feed", Name: "Oracle Red Bull Racing",
		Attributes: entity.Attributes{Team: &entity.TeamAttrs{Color: "#3671C6", Season: 2024}},
	})
	cand := canonical(t, "team-rb", entity.Record{
		Type: entity.TypeTeam, Source: "seed", Name: "Red Bull Racing",
		Attributes: entity.Attributes{Team: &entity.TeamAttrs{Color: "3671c6", ActiveFrom: 2005}},
	})

	got := m.Score(reg.Subject(rec), reg.EntitySubject(cand))
	assert.Equal(t, 0.0, featureScore(t, got, FeatureExactName))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureContainment))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureColor))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureActiveYears))
	assert.Greater(t, featureScore(t, got, FeatureFuzzy), 0.5)
}

func TestTeamShortNameCountsAsExact(t *testing.T) {
	reg := newTestRegistry(t)
	m, _ := reg.For(entity.TypeTeam)
	rec := prepared(t, entity.Record{Type: entity.TypeTeam, Source: "feed", Name: "McLaren"})
	cand := canonical(t, "team-mcl", entity.Record{
		Type: entity.TypeTeam, Source: "seed", Name: "McLaren Formula 1 Team",
		Attributes: entity.Attributes{Team: &entity.TeamAttrs{ShortName: "McLaren"}},
	})
	got := m.Score(reg.Subject(rec), reg.EntitySubject(cand))
	assert.Equal(t, 1.0, featureScore(t, got, FeatureExactName))
}

func TestPrefilter(t *testing.T) {
	reg := newTestRegistry(t)
	pf := reg.Prefilter()
	driver := func(name string, number int, nationality string) *Subject {
		return reg.Subject(prepared(t, entity.Record{
			Type: entity.TypeDriver, Source: "s", Name: name,
			Attributes: entity.Attributes{Driver: &entity.DriverAttrs{Number: number, Nationality: nationality}},
		}))
	}
	assert.True(t, pf.Allow(driver("Lewis Hamilton", 44, ""), driver("L. Hamilton", 0, "")))
	assert.False(t, pf.Allow(driver("Lewis Hamilton", 44, ""), driver("Max Verstappen", 1, "")))
	assert.True(t, pf.Allow(driver("Lewis Hamilton", 44, ""), driver("Lewis Hamiltn", 44, "")))
	assert.True(t, pf.Allow(driver("Nyck de Vries", 21, ""), driver("Nyck Vries", 0, "")))
	assert.True(t, pf.Allow(driver("Zhou Guanyu", 0, ""), driver("Guanyu Zhou", 0, "")))
	assert.False(t, pf.Allow(driver("Max Chilton", 0, ""), driver("Max Verstappen", 0, "")))

	team := func(from, to int) *Subject {
		return &Subject{Type: entity.TypeTeam, Attrs: entity.Attributes{Team: &entity.TeamAttrs{ActiveFrom: from, ActiveTo: to}}}
	}
	assert.False(t, pf.Allow(team(2010, 2012), team(2014, 2016)))
	assert.True(t, pf.Allow(team(2010, 2012), team(2013, 2016)))
	assert.True(t, pf.Allow(team(2010, 0), team(2024, 2024)))
	assert.True(t, pf.Allow(team(0, 0), team(2014, 2016)))

	circuit := func(country string) *Subject {
		return &Subject{Type: entity.TypeCircuit, Country: country}
	}
	assert.False(t, pf.Allow(circuit("IT"), circuit("GB")))
	assert.True(t, pf.Allow(circuit("IT"), circuit("")))

	round := func(season int) *Subject {
		return &Subject{Type: entity.TypeRound, Attrs: entity.Attributes{Round: &entity.RoundAttrs{Season: season}}}
	}
	assert.False(t, pf.Allow(round(2024), round(2025)))
	assert.True(t, pf.Allow(round(2024), round(2024)))
}

func TestCandidateRankingAndContenders(t *testing.T) {
	mk := func(id string, total float64) Candidate {
		return Candidate{Entity: &entity.Entity{ID: id}, Total: total}
	}
	list := CandidateList{mk("c", 0.70), mk("b", 0.885), mk("a", 0.90), mk("d", 0.885)}.Rank()
	require.Equal(t, []string{"a", "b", "d", "c"}, []string{list[0].EntityID(), list[1].EntityID(), list[2].EntityID(), list[3].EntityID()})
	assert.Equal(t, 3, list.Contenders(0.02, 0.85))
	assert.Len(t, list.Top(2), 2)
	assert.Len(t, list.Top(10), 4)

	clear := CandidateList{mk("a", 0.90), mk("b", 0.87)}.Rank()
	assert.Equal(t, 1, clear.Contenders(0.02, 0.85))

	belowFloor := CandidateList{mk("a", 0.84), mk("b", 0.83)}.Rank()
	assert.Equal(t, 0, belowFloor.Contenders(0.02, 0.85))
	assert.Equal(t, 0, CandidateList{}.Contenders(0.02, 0.85))
}

func TestThresholdComparisons(t *testing.T) {
	sum := 0.3 + 0.2 + 0.15 + 0.1 + 0.1
	assert.True(t, AtLeast(sum, 0.85))
	assert.False(t, AtLeast(0.8499, 0.85))
	assert.True(t, AtMost(0.40, 0.40))
	assert.False(t, AtMost(math.Nextafter(0.40, 1)+1e-6, 0.40))
}
