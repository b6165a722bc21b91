package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/logging"
	"paddock/internal/store"
)

// ErrNoMatches reports that a filter selected no pending matches.
var ErrNoMatches = errors.New("no pending matches matched the filter")

// Store is the persistence the review queue needs.
type Store interface {
	GetPending(ctx context.Context, id string) (*store.PendingMatch, error)
	ListPending(ctx context.Context, filter store.PendingFilter) ([]store.PendingMatch, error)
	ApprovePending(ctx context.Context, id, candidateID, actor string) (*store.PendingMatch, error)
	RejectPending(ctx context.Context, id, actor string) (*store.PendingMatch, *entity.Entity, error)
}

// Service adjudicates pending matches. Each transition holds the lock of the
// match's entity type so two reviewers cannot map one raw key twice.
type Service struct {
	store  Store
	actor  string
	format string
	logger *slog.Logger
	locks  *typeLocks
}

// NewService builds a review service over st.
func NewService(cfg *config.Config, st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  st,
		actor:  cfg.Review.Actor,
		format: cfg.Review.ExportFormat,
		logger: logging.NewComponentLogger(logger, "review"),
		locks:  newTypeLocks(cfg.LockDir()),
	}
}

// ApproveOptions tunes an approval.
type ApproveOptions struct {
	// CandidateID selects the target entity; empty picks the best candidate.
	CandidateID string
	Actor       string
}

// BulkResult lists what BulkApproveAbove did.
type BulkResult struct {
	Approved []string          `json:"approved"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// List returns pending matches selected by filter.
func (s *Service) List(ctx context.Context, filter store.PendingFilter) ([]store.PendingMatch, error) {
	return s.store.ListPending(ctx, filter)
}

// Show returns one pending match in any state.
func (s *Service) Show(ctx context.Context, id string) (*store.PendingMatch, error) {
	return s.store.GetPending(ctx, strings.TrimSpace(id))
}

// Approve merges the record into the chosen candidate as a new alias.
func (s *Service) Approve(ctx context.Context, id string, opts ApproveOptions) (*store.PendingMatch, error) {
	p, release, err := s.lockPending(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	actor := s.actorOr(opts.Actor)
	resolved, err := s.store.ApprovePending(ctx, p.ID, opts.CandidateID, actor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("pending match approved",
		logging.String(logging.FieldPendingID, resolved.ID),
		logging.String(logging.FieldEntityType, string(resolved.Type)),
		logging.String(logging.FieldEntityID, resolved.ResolvedEntityID),
		logging.String("actor", actor),
	)
	return resolved, nil
}

// Reject creates a new canonical entity from the record.
func (s *Service) Reject(ctx context.Context, id, actor string) (*store.PendingMatch, *entity.Entity, error) {
	p, release, err := s.lockPending(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	actor = s.actorOr(actor)
	resolved, created, err := s.store.RejectPending(ctx, p.ID, actor)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("pending match rejected",
		logging.String(logging.FieldPendingID, resolved.ID),
		logging.String(logging.FieldEntityType, string(resolved.Type)),
		logging.String(logging.FieldEntityID, created.ID),
		logging.String("actor", actor),
	)
	return resolved, created, nil
}

// BulkApproveAbove approves every open match whose total score is at least
// threshold, each in its own transition. Failures of single items are
// collected and do not stop the batch.
func (s *Service) BulkApproveAbove(ctx context.Context, threshold float64, filter store.PendingFilter, actor string) (BulkResult, error) {
	if threshold < 0 || threshold > 1 {
		return BulkResult{}, fmt.Errorf("threshold %.3f must be between 0 and 1", threshold)
	}
	filter.Status = store.StatusPending
	filter.AnyState = false
	filter.MinScore = &threshold
	items, err := s.store.ListPending(ctx, filter)
	if err != nil {
		return BulkResult{}, err
	}
	if len(items) == 0 {
		return BulkResult{}, ErrNoMatches
	}

	var result BulkResult
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.Approve(ctx, item.ID, ApproveOptions{Actor: actor}); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[item.ID] = err.Error()
			logging.WarnWithContext(s.logger, "bulk approval skipped item", "review_bulk_item_failed",
				logging.String(logging.FieldPendingID, item.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "resolve the item individually with review approve or reject"),
			)
			continue
		}
		result.Approved = append(result.Approved, item.ID)
	}
	return result, nil
}

// lockPending loads the match, takes its type lock and re-checks nothing
// resolved it meanwhile. The store re-checks inside its transaction as well.
func (s *Service) lockPending(ctx context.Context, id string) (*store.PendingMatch, func(), error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, fmt.Errorf("pending match id is required")
	}
	p, err := s.store.GetPending(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.Status.Terminal() {
		return nil, nil, &store.AlreadyResolvedError{ID: p.ID, Status: p.Status}
	}
	release, err := s.locks.acquire(ctx, p.Type)
	if err != nil {
		return nil, nil, err
	}
	return p, release, nil
}

func (s *Service) actorOr(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return s.actor
}
