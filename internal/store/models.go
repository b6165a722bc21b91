package store

import (
	"strings"
	"time"

	"paddock/internal/entity"
	"paddock/internal/matching"
)

// PendingStatus is the review state of a pending match.
type PendingStatus string

const (
	StatusPending  PendingStatus = "pending"
	StatusApproved PendingStatus = "approved"
	StatusRejected PendingStatus = "rejected"
)

// ParsePendingStatus converts user input into a PendingStatus.
func ParsePendingStatus(value string) (PendingStatus, bool) {
	switch status := PendingStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case StatusPending, StatusApproved, StatusRejected:
		return status, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is allowed.
func (s PendingStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PendingCandidate is one scored candidate stored with a pending match.
type PendingCandidate struct {
	EntityID string                  `json:"entity_id" yaml:"entity_id"`
	Name     string                  `json:"name" yaml:"name"`
	Total    float64                 `json:"total" yaml:"total"`
	Scores   []matching.FeatureScore `json:"scores" yaml:"scores"`
}

// PendingMatch is a record awaiting human adjudication. Rows are kept after
// resolution for audit.
type PendingMatch struct {
	ID               string             `json:"id" yaml:"id"`
	Type             entity.Type        `json:"entity_type" yaml:"entity_type"`
	Source           string             `json:"source" yaml:"source"`
	RawKey           string             `json:"raw_key" yaml:"raw_key"`
	RawName          string             `json:"raw_name" yaml:"raw_name"`
	Record           entity.Record      `json:"record" yaml:"record"`
	Candidates       []PendingCandidate `json:"candidates" yaml:"candidates"`
	TotalScore       float64            `json:"total_score" yaml:"total_score"`
	Reason           string             `json:"reason" yaml:"reason"`
	Status           PendingStatus      `json:"status" yaml:"status"`
	DecidedBy        string             `json:"decided_by,omitempty" yaml:"decided_by,omitempty"`
	DecidedAt        *time.Time         `json:"decided_at,omitempty" yaml:"decided_at,omitempty"`
	ResolvedEntityID string             `json:"resolved_entity_id,omitempty" yaml:"resolved_entity_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" yaml:"updated_at"`
}

// Key returns the alias key the pending match will resolve.
func (p PendingMatch) Key() entity.AliasKey {
	return entity.AliasKey{Type: p.Type, Source: p.Source, RawKey: p.RawKey}
}

// BestCandidate returns the highest scored candidate.
func (p PendingMatch) BestCandidate() (PendingCandidate, bool) {
	if len(p.Candidates) == 0 {
		return PendingCandidate{}, false
	}
	return p.Candidates[0], true
}

// PendingFilter narrows ListPending. Zero values match everything except
// Status, which defaults to pending.
type PendingFilter struct {
	Type     entity.Type
	Status   PendingStatus
	AnyState bool
	MinScore *float64
	Limit    int
}

// Change is everything one resolution decision writes. Fields are applied in
// order (entity, alias, touch, pending) within one transaction.
type Change struct {
	Entity  *entity.Entity
	Alias   *entity.Alias
	Touch   *entity.AliasKey
	Pending *PendingMatch
}

// Empty reports whether the change writes nothing.
func (c Change) Empty() bool {
	return c.Entity == nil && c.Alias == nil && c.Touch == nil && c.Pending == nil
}

// Stats summarizes table contents per entity type.
type Stats struct {
	Entities map[entity.Type]int                   `json:"entities" yaml:"entities"`
	Aliases  map[entity.Type]int                   `json:"aliases" yaml:"aliases"`
	Pending  map[entity.Type]map[PendingStatus]int `json:"pending" yaml:"pending"`
}
