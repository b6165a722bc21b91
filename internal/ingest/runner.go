package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"paddock/internal/entity"
	"paddock/internal/logging"
	"paddock/internal/resolver"
	"paddock/internal/store"
)

// Store is the persistence a run reads its snapshot from and writes decisions to.
type Store interface {
	ListEntities(ctx context.Context, typ entity.Type) ([]entity.Entity, error)
	ListAliases(ctx context.Context, typ entity.Type) ([]entity.Alias, error)
	OpenPendingKeys(ctx context.Context, typ entity.Type) (map[entity.AliasKey]string, error)
	ApplyDecision(ctx context.Context, change store.Change) error
}

// Options tunes one run.
type Options struct {
	Strategy resolver.Strategy
	// Types restricts the run; empty resolves every type present.
	Types []entity.Type
	// Progress receives a progress bar when set.
	Progress io.Writer
	// OnDecision observes every persisted decision. It is called from one
	// goroutine per entity type.
	OnDecision func(resolver.Decision)
}

// TypeSummary counts the outcomes of one entity type.
type TypeSummary struct {
	Type    entity.Type `json:"entity_type"`
	Records int         `json:"records"`
	Matched int         `json:"matched"`
	Created int         `json:"created"`
	Queued  int         `json:"queued"`
	Skipped int         `json:"skipped"`
}

func (s *TypeSummary) add(o TypeSummary) {
	s.Records += o.Records
	s.Matched += o.Matched
	s.Created += o.Created
	s.Queued += o.Queued
	s.Skipped += o.Skipped
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Types     []TypeSummary `json:"types"`
	// Invalid counts records whose entity type is unknown.
	Invalid int `json:"invalid"`
	// Ignored counts records of types excluded by Options.Types.
	Ignored int `json:"ignored"`
}

// Totals sums the per-type counts.
func (s Summary) Totals() TypeSummary {
	var total TypeSummary
	for _, t := range s.Types {
		total.add(t)
	}
	return total
}

// Runner drives records through the resolver and persists every decision.
type Runner struct {
	resolver *resolver.Resolver
	store    Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner builds a runner.
func NewRunner(res *resolver.Resolver, st Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		resolver: res,
		store:    st,
		logger:   logging.NewComponentLogger(logger, "ingest"),
		now:      time.Now,
	}
}

// Run resolves records. Entity types run in parallel; records of one type run
// in input order because each decision changes the pool the next one sees.
// Malformed records are logged and skipped. Cancellation stops every type at
// the next record boundary and returns the partial summary with the context
// error.
func (r *Runner) Run(ctx context.Context, records []entity.Record, opts Options) (Summary, error) {
	started := r.now()
	summary := Summary{RunID: uuid.NewString(), StartedAt: started.UTC()}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	groups, order := r.group(logger, records, opts.Types, &summary)
	if len(order) == 0 {
		summary.Duration = r.now().Sub(started)
		return summary, ctx.Err()
	}

	total := 0
	for _, typ := range order {
		total += len(groups[typ])
	}
	logger.Info("resolve run started",
		logging.Int("records", total),
		logging.Int("entity_types", len(order)),
		logging.String("strategy", string(opts.Strategy)),
	)
	bar := newProgress(opts.Progress, total)

	results := make([]TypeSummary, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for i, typ := range order {
		g.Go(func() error {
			var err error
			results[i], err = r.runType(gctx, typ, groups[typ], opts, bar)
			return err
		})
	}
	err := g.Wait()
	bar.finish()

	summary.Types = results
	summary.Duration = r.now().Sub(started)
	totals := summary.Totals()
	attrs := []logging.Attr{
		logging.Int("matched", totals.Matched),
		logging.Int("created", totals.Created),
		logging.Int("queued", totals.Queued),
		logging.Int("skipped", totals.Skipped+summary.Invalid),
		logging.Duration("duration", summary.Duration),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		logging.WarnWithContext(logger, "resolve run stopped", "ingest_run_stopped", attrs...)
		return summary, err
	}
	logger.Info("resolve run completed", logging.Args(attrs...)...)
	return summary, nil
}

func (r *Runner) group(logger *slog.Logger, records []entity.Record, only []entity.Type, summary *Summary) (map[entity.Type][]entity.Record, []entity.Type) {
	groups := make(map[entity.Type][]entity.Record)
	for _, rec := range records {
		typ, err := entity.ParseType(string(rec.Type))
		if err != nil {
			summary.Invalid++
			logging.WarnWithContext(logger, "record skipped", "ingest_record_invalid",
				logging.String(logging.FieldSource, rec.Source),
				logging.String(logging.FieldRawKey, rec.RawKey),
				logging.String("name", rec.Name),
				logging.String("field", "type"),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "set the record type or pass --type"),
			)
			continue
		}
		if len(only) > 0 && !slices.Contains(only, typ) {
			summary.Ignored++
			continue
		}
		groups[typ] = append(groups[typ], rec)
	}
	var order []entity.Type
	for _, typ := range entity.AllTypes() {
		if len(groups[typ]) > 0 {
			order = append(order, typ)
		}
	}
	return groups, order
}

func (r *Runner) runType(ctx context.Context, typ entity.Type, records []entity.Record, opts Options, bar *progress) (TypeSummary, error) {
	sum := TypeSummary{Type: typ, Records: len(records)}
	ctx = logging.WithEntityType(ctx, string(typ))
	logger := logging.WithContext(ctx, r.logger)

	if err := r.load(ctx, typ); err != nil {
		return sum, err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		d, err := r.resolver.Resolve(ctx, rec, opts.Strategy)
		if err != nil {
			var inputErr *entity.InputError
			if !errors.As(err, &inputErr) {
				return sum, err
			}
			sum.Skipped++
			logging.WarnWithContext(logger, "record skipped", "ingest_record_invalid",
				logging.String(logging.FieldSource, rec.Source),
				logging.String(logging.FieldRawKey, rec.RawKey),
				logging.String("name", rec.Name),
				logging.String("field", inputErr.Field),
				logging.String("reason", inputErr.Reason),
				logging.String(logging.FieldErrorHint, "fix the record and resubmit"),
			)
			bar.add()
			continue
		}
		if err := r.store.ApplyDecision(ctx, d.Change()); err != nil {
			return sum, fmt.Errorf("persist decision for %s: %w", d.Key(), err)
		}
		r.resolver.Commit(d)

		switch d.Outcome {
		case resolver.OutcomeMatched:
			sum.Matched++
		case resolver.OutcomeCreated:
			sum.Created++
		case resolver.OutcomeQueued:
			sum.Queued++
		}
		if opts.OnDecision != nil {
			opts.OnDecision(d)
		}
		bar.add()
	}

	logger.Info("entity type resolved",
		logging.Int("records", sum.Records),
		logging.Int("matched", sum.Matched),
		logging.Int("created", sum.Created),
		logging.Int("queued", sum.Queued),
		logging.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

// load installs the persisted snapshot of typ into the resolver.
func (r *Runner) load(ctx context.Context, typ entity.Type) error {
	entities, err := r.store.ListEntities(ctx, typ)
	if err != nil {
		return fmt.Errorf("load %s entities: %w", typ, err)
	}
	aliases, err := r.store.ListAliases(ctx, typ)
	if err != nil {
		return fmt.Errorf("load %s aliases: %w", typ, err)
	}
	pending, err := r.store.OpenPendingKeys(ctx, typ)
	if err != nil {
		return fmt.Errorf("load %s pending matches: %w", typ, err)
	}
	r.resolver.Load(typ, entities, aliases, pending)
	return nil
}

// progress wraps an optional progress bar shared by every type.
type progress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer, total int) *progress {
	if w == nil || total == 0 {
		return &progress{}
	}
	return &progress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("resolving"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *progress) add() {
	if p.bar == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}
