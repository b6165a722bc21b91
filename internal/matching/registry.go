package matching

import (
	"fmt"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/normalize"
)

// Registry holds one validated matcher per entity type plus the shared
// normalizer and pre-filter. It is immutable after construction.
type Registry struct {
	matchers   map[entity.Type]*Matcher
	normalizer *normalize.Normalizer
	prefilter  Prefilter
}

// NewRegistry builds every matcher from cfg. Any invalid weight map fails the
// whole registry with a *config.ConfigurationError naming the matcher.
func NewRegistry(cfg config.Matching, normalizer *normalize.Normalizer) (*Registry, error) {
	if normalizer == nil {
		normalizer = normalize.Default()
	}
	r := &Registry{
		matchers:   make(map[entity.Type]*Matcher, len(entity.AllTypes())),
		normalizer: normalizer,
		prefilter:  NewPrefilter(cfg.Prefilter),
	}
	for _, typ := range entity.AllTypes() {
		features, err := BuildFeatures(typ, cfg)
		if err != nil {
			return nil, err
		}
		m, err := NewMatcher(typ, features)
		if err != nil {
			return nil, err
		}
		r.matchers[typ] = m
	}
	return r, nil
}

// For returns the matcher of typ.
func (r *Registry) For(typ entity.Type) (*Matcher, error) {
	m, ok := r.matchers[typ]
	if !ok {
		return nil, fmt.Errorf("no matcher for entity type %q", typ)
	}
	return m, nil
}

// Normalizer returns the normalizer subjects are prepared with.
func (r *Registry) Normalizer() *normalize.Normalizer { return r.normalizer }

// Prefilter returns the configured candidate pre-filter.
func (r *Registry) Prefilter() Prefilter { return r.prefilter }

// Subject prepares the comparison view of a validated record.
func (r *Registry) Subject(rec entity.Record) *Subject {
	return SubjectFromRecord(r.normalizer, rec)
}

// EntitySubject prepares the comparison view of a canonical entity.
func (r *Registry) EntitySubject(e *entity.Entity) *Subject {
	return SubjectFromEntity(r.normalizer, e)
}
