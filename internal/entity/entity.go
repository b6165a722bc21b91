package entity

import "time"

// Entity is the canonical representation of a driver, team, circuit or round.
// Its Name is the display form and only changes through alias promotion.
type Entity struct {
	ID         string     `json:"id" yaml:"id"`
	Type       Type       `json:"type" yaml:"type"`
	Name       string     `json:"name" yaml:"name"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"updated_at"`
}

// NewEntityFromRecord builds a canonical entity from a prepared record.
func NewEntityFromRecord(id string, rec Record, now time.Time) Entity {
	now = now.UTC()
	return Entity{
		ID:         id,
		Type:       rec.Type,
		Name:       rec.Name,
		Attributes: rec.Attributes.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Alias maps one source's raw key for a record onto a canonical entity.
type Alias struct {
	ID        int64     `json:"id" yaml:"id"`
	Type      Type      `json:"type" yaml:"type"`
	Source    string    `json:"source" yaml:"source"`
	RawKey    string    `json:"raw_key" yaml:"raw_key"`
	RawName   string    `json:"raw_name" yaml:"raw_name"`
	EntityID  string    `json:"entity_id" yaml:"entity_id"`
	FirstSeen time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen  time.Time `json:"last_seen" yaml:"last_seen"`
}

// Key returns the alias key.
func (a Alias) Key() AliasKey {
	return AliasKey{Type: a.Type, Source: a.Source, RawKey: a.RawKey}
}
