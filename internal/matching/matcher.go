package matching

import (
	"fmt"
	"math"

	"paddock/internal/config"
	"paddock/internal/entity"
)

// weightTolerance is how far a weight sum may drift from 1.0.
const weightTolerance = 1e-6

// ScoreFunc returns a feature similarity in [0,1].
type ScoreFunc func(rec, cand *Subject) float64

// Feature is one weighted signal of a matcher.
type Feature struct {
	Name   string
	Weight float64
	Score  ScoreFunc
}

// FeatureScore is the explainable contribution of one feature.
type FeatureScore struct {
	Name     string  `json:"name" yaml:"name"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Score    float64 `json:"score" yaml:"score"`
	Weighted float64 `json:"weighted" yaml:"weighted"`
}

// Matcher scores a record against candidates of one entity type with a fixed,
// validated list of weighted features.
type Matcher struct {
	typ      entity.Type
	features []Feature
}

// NewMatcher validates the feature list: names unique, weights non-negative
// and summing to 1.0.
func NewMatcher(typ entity.Type, features []Feature) (*Matcher, error) {
	component := fmt.Sprintf("%s matcher", typ)
	if len(features) == 0 {
		return nil, &config.ConfigurationError{Component: component, Reason: "has no features"}
	}
	seen := make(map[string]struct{}, len(features))
	sum := 0.0
	for _, f := range features {
		field := "weights." + f.Name
		if f.Name == "" || f.Score == nil {
			return nil, &config.ConfigurationError{Component: component, Reason: "feature needs a name and a scorer"}
		}
		if _, ok := seen[f.Name]; ok {
			return nil, &config.ConfigurationError{Component: component, Field: field, Reason: "is declared twice"}
		}
		seen[f.Name] = struct{}{}
		if f.Weight < 0 || math.IsNaN(f.Weight) {
			return nil, &config.ConfigurationError{Component: component, Field: field, Reason: "must not be negative"}
		}
		sum += f.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, &config.ConfigurationError{
			Component: component,
			Field:     "weights",
			Reason:    fmt.Sprintf("must sum to 1.0, got %.4f", sum),
		}
	}
	return &Matcher{typ: typ, features: append([]Feature(nil), features...)}, nil
}

// Type returns the entity type this matcher scores.
func (m *Matcher) Type() entity.Type { return m.typ }

// Weights returns feature name to weight, in declaration order.
func (m *Matcher) Weights() []FeatureScore {
	out := make([]FeatureScore, len(m.features))
	for i, f := range m.features {
		out[i] = FeatureScore{Name: f.Name, Weight: f.Weight}
	}
	return out
}

// Score evaluates every feature and returns the weighted total with its
// per-feature breakdown. The total is within [0,1].
func (m *Matcher) Score(rec, cand *Subject) Candidate {
	scores := make([]FeatureScore, len(m.features))
	total := 0.0
	for i, f := range m.features {
		value := clampUnit(f.Score(rec, cand))
		weighted := value * f.Weight
		scores[i] = FeatureScore{Name: f.Name, Weight: f.Weight, Score: value, Weighted: weighted}
		total += weighted
	}
	return Candidate{Entity: cand.Entity, Scores: scores, Total: clampUnit(total)}
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
