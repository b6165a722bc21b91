package resolver

import (
	"fmt"
	"strings"
	"time"

	"paddock/internal/entity"
	"paddock/internal/matching"
	"paddock/internal/store"
)

// Strategy selects how much of the resolution pipeline runs.
type Strategy string

const (
	// StrategyScored runs the alias fast path, then scores candidates.
	StrategyScored Strategy = "scored"
	// StrategyExact only consults aliases; a miss creates a new entity. Use it
	// for trusted sources.
	StrategyExact Strategy = "exact"
)

// ParseStrategy converts user input into a Strategy. Empty input is scored.
func ParseStrategy(value string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(value))); s {
	case "":
		return StrategyScored, nil
	case StrategyScored, StrategyExact:
		return s, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want scored or exact)", value)
	}
}

// Outcome is the decision class of one record.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeCreated Outcome = "created"
	OutcomeQueued  Outcome = "queued"
)

// Reason explains which rule produced an outcome.
type Reason string

const (
	ReasonAlias        Reason = "alias"
	ReasonPending      Reason = "pending"
	ReasonAutoAccept   Reason = "auto_accept"
	ReasonAutoReject   Reason = "auto_reject"
	ReasonAmbiguous    Reason = "ambiguous"
	ReasonTie          Reason = "tie"
	ReasonNoCandidates Reason = "no_candidates"
	ReasonExactMiss    Reason = "exact_miss"
)

// AliasWrite says what happens to the alias table for a decision.
type AliasWrite string

const (
	AliasNew   AliasWrite = "new"
	AliasTouch AliasWrite = "touch"
	AliasNone  AliasWrite = "none"
)

// Decision is the outcome of resolving one record. The resolver does not
// persist it; callers write Change() and then Commit the decision.
type Decision struct {
	EntityType  entity.Type              `json:"entity_type"`
	Outcome     Outcome                  `json:"decision"`
	Reason      Reason                   `json:"reason"`
	Strategy    Strategy                 `json:"strategy"`
	CanonicalID string                   `json:"canonical_id,omitempty"`
	PendingID   string                   `json:"pending_id,omitempty"`
	Record      entity.Record            `json:"record"`
	Entity      *entity.Entity           `json:"entity,omitempty"`
	Candidates  []store.PendingCandidate `json:"candidates,omitempty"`
	Scores      []matching.FeatureScore  `json:"per_feature_scores,omitempty"`
	TotalScore  float64                  `json:"total_score"`
	AliasWrite  AliasWrite               `json:"alias_write"`
	DecidedAt   time.Time                `json:"decided_at"`
}

// Key returns the alias key of the decided record.
func (d Decision) Key() entity.AliasKey {
	return d.Record.Key()
}

// NewPending reports whether the decision opens a new review item.
func (d Decision) NewPending() bool {
	return d.Outcome == OutcomeQueued && d.Reason != ReasonPending
}

// Change returns the rows the decision writes.
func (d Decision) Change() store.Change {
	key := d.Key()
	var change store.Change
	switch d.Outcome {
	case OutcomeCreated:
		change.Entity = d.Entity
	case OutcomeQueued:
		if d.NewPending() {
			change.Pending = &store.PendingMatch{
				ID:         d.PendingID,
				Type:       key.Type,
				Source:     key.Source,
				RawKey:     key.RawKey,
				RawName:    d.Record.Name,
				Record:     d.Record,
				Candidates: d.Candidates,
				TotalScore: d.TotalScore,
				Reason:     string(d.Reason),
				Status:     store.StatusPending,
				CreatedAt:  d.DecidedAt,
				UpdatedAt:  d.DecidedAt,
			}
		}
	}
	switch d.AliasWrite {
	case AliasNew:
		change.Alias = &entity.Alias{
			Type:      key.Type,
			Source:    key.Source,
			RawKey:    key.RawKey,
			RawName:   d.Record.Name,
			EntityID:  d.CanonicalID,
			FirstSeen: d.DecidedAt,
			LastSeen:  d.DecidedAt,
		}
	case AliasTouch:
		change.Touch = &key
	}
	return change
}
