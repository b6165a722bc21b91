package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/logging"
	"paddock/internal/matching"
	"paddock/internal/store"
)

// Resolver decides whether a raw record is an existing canonical entity, a new
// one, or needs human review. It works against an in-memory snapshot of each
// entity type; scoring performs no I/O.
//
// Pools of different types are independent and may be used from different
// goroutines. Records of one type must be resolved and committed sequentially.
type Resolver struct {
	cfg      config.Matching
	registry *matching.Registry
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	mu    sync.Mutex
	pools map[entity.Type]*pool
}

// pool is the candidate snapshot of one entity type.
type pool struct {
	mu       sync.RWMutex
	subjects []*matching.Subject
	aliases  map[entity.AliasKey]string
	pending  map[entity.AliasKey]string
}

func newPool() *pool {
	return &pool{
		aliases: make(map[entity.AliasKey]string),
		pending: make(map[entity.AliasKey]string),
	}
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithIDGenerator overrides how canonical and pending ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

// New builds a resolver. The registry must come from the same configuration.
func New(cfg *config.Config, registry *matching.Registry, logger *slog.Logger, opts ...Option) (*Resolver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("resolver: config is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("resolver: matcher registry is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Resolver{
		cfg:      cfg.Matching,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "resolver"),
		now:      time.Now,
		newID:    uuid.NewString,
		pools:    make(map[entity.Type]*pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load installs the snapshot of typ, replacing any previous one. pending maps
// the alias keys of open review items to their ids.
func (r *Resolver) Load(typ entity.Type, entities []entity.Entity, aliases []entity.Alias, pending map[entity.AliasKey]string) {
	p := newPool()
	p.subjects = make([]*matching.Subject, 0, len(entities))
	for i := range entities {
		if entities[i].Type != typ {
			continue
		}
		e := entities[i]
		p.subjects = append(p.subjects, r.registry.EntitySubject(&e))
	}
	for _, a := range aliases {
		if a.Type == typ {
			p.aliases[a.Key()] = a.EntityID
		}
	}
	for key, id := range pending {
		if key.Type == typ {
			p.pending[key] = id
		}
	}

	r.mu.Lock()
	r.pools[typ] = p
	r.mu.Unlock()

	r.logger.Debug("candidate pool loaded",
		logging.String(logging.FieldEntityType, string(typ)),
		logging.Int("entities", len(p.subjects)),
		logging.Int("aliases", len(p.aliases)),
		logging.Int("open_pending", len(p.pending)),
	)
}

// PoolSize returns the number of canonical entities pooled for typ.
func (r *Resolver) PoolSize(typ entity.Type) int {
	p := r.pool(typ)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subjects)
}

func (r *Resolver) pool(typ entity.Type) *pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[typ]
	if !ok {
		p = newPool()
		r.pools[typ] = p
	}
	return p
}

// Resolve decides one record without changing any state. It fails only for
// malformed records (*entity.InputError) and cancellation.
func (r *Resolver) Resolve(ctx context.Context, rec entity.Record, strategy Strategy) (Decision, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}
	}
	if strategy == "" {
		strategy = StrategyScored
	}
	prepared, err := rec.Prepare()
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		EntityType: prepared.Type,
		Strategy:   strategy,
		Record:     prepared,
		AliasWrite: AliasNone,
		DecidedAt:  r.now().UTC(),
	}
	key := prepared.Key()
	p := r.pool(prepared.Type)
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldSource, key.Source),
		logging.String(logging.FieldRawKey, key.RawKey),
	)

	p.mu.RLock()
	entityID, aliased := p.aliases[key]
	pendingID, queued := p.pending[key]
	p.mu.RUnlock()

	switch {
	case aliased:
		d.Outcome, d.Reason = OutcomeMatched, ReasonAlias
		d.CanonicalID = entityID
		d.AliasWrite = AliasTouch
	case queued:
		d.Outcome, d.Reason = OutcomeQueued, ReasonPending
		d.PendingID = pendingID
	case strategy == StrategyExact:
		r.create(&d, ReasonExactMiss)
	default:
		if err := r.score(ctx, logger, p, &d); err != nil {
			return Decision{}, err
		}
	}

	logger.Info("record resolved", logging.Args(r.decisionAttrs(d)...)...)
	return d, nil
}

func (r *Resolver) score(ctx context.Context, logger *slog.Logger, p *pool, d *Decision) error {
	matcher, err := r.registry.For(d.EntityType)
	if err != nil {
		return err
	}
	prefilter := r.registry.Prefilter()
	subject := r.registry.Subject(d.Record)

	p.mu.RLock()
	candidates := make(matching.CandidateList, 0, len(p.subjects))
	for _, cand := range p.subjects {
		if !prefilter.Allow(subject, cand) {
			continue
		}
		scored := matcher.Score(subject, cand)
		candidates = append(candidates, scored)
		if logger.Enabled(ctx, slog.LevelDebug) {
			logger.Debug("candidate scored",
				logging.String(logging.FieldEntityID, scored.EntityID()),
				logging.Float64(logging.FieldTotalScore, scored.Total),
				logging.Any("features", scored.Scores),
			)
		}
	}
	p.mu.RUnlock()

	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	candidates.Rank()
	best, ok := candidates.Best()
	if !ok {
		r.create(d, ReasonNoCandidates)
		return nil
	}
	d.TotalScore = best.Total
	d.Scores = best.Scores

	accept, reject := r.cfg.AutoAcceptThreshold, r.cfg.AutoRejectThreshold
	switch {
	case candidates.Contenders(r.cfg.TieEpsilon, accept) >= 2:
		r.queue(d, ReasonTie, candidates)
	case matching.AtLeast(best.Total, accept):
		d.Outcome, d.Reason = OutcomeMatched, ReasonAutoAccept
		d.CanonicalID = best.EntityID()
		d.AliasWrite = AliasNew
	case matching.AtMost(best.Total, reject):
		r.create(d, ReasonAutoReject)
	default:
		r.queue(d, ReasonAmbiguous, candidates)
	}
	return nil
}

func (r *Resolver) create(d *Decision, reason Reason) {
	e := entity.NewEntityFromRecord(r.newID(), d.Record, d.DecidedAt)
	d.Outcome, d.Reason = OutcomeCreated, reason
	d.Entity = &e
	d.CanonicalID = e.ID
	d.AliasWrite = AliasNew
}

func (r *Resolver) queue(d *Decision, reason Reason, ranked matching.CandidateList) {
	d.Outcome, d.Reason = OutcomeQueued, reason
	d.PendingID = r.newID()
	top := ranked.Top(r.cfg.MaxQueuedCandidates)
	d.Candidates = make([]store.PendingCandidate, 0, len(top))
	for _, c := range top {
		name := ""
		if c.Entity != nil {
			name = c.Entity.Name
		}
		d.Candidates = append(d.Candidates, store.PendingCandidate{
			EntityID: c.EntityID(),
			Name:     name,
			Total:    c.Total,
			Scores:   c.Scores,
		})
	}
}

// Commit applies a persisted decision to the snapshot so later records of the
// same run can match against new entities, aliases and review items.
func (r *Resolver) Commit(d Decision) {
	p := r.pool(d.EntityType)
	key := d.Key()

	p.mu.Lock()
	defer p.mu.Unlock()
	if d.Entity != nil {
		p.subjects = append(p.subjects, r.registry.EntitySubject(d.Entity))
	}
	if d.AliasWrite == AliasNew && d.CanonicalID != "" {
		p.aliases[key] = d.CanonicalID
	}
	if d.NewPending() {
		p.pending[key] = d.PendingID
	}
}

func (r *Resolver) decisionAttrs(d Decision) []logging.Attr {
	attrs := logging.DecisionAttrs(string(d.EntityType), string(d.Outcome), string(d.Reason), d.TotalScore)
	if d.CanonicalID != "" {
		attrs = append(attrs, logging.String(logging.FieldEntityID, d.CanonicalID))
	}
	if d.PendingID != "" {
		attrs = append(attrs, logging.String(logging.FieldPendingID, d.PendingID))
	}
	return append(attrs, logging.String("strategy", string(d.Strategy)))
}
