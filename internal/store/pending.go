package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"paddock/internal/entity"
	"paddock/internal/matching"
)

const pendingColumns = "id, entity_type, source, raw_key, raw_name, record_json, candidates_json, total_score, reason, status, decided_by, decided_at, resolved_entity_id, created_at, updated_at"

func scanPending(scanner rowScanner) (*PendingMatch, error) {
	var (
		p              PendingMatch
		typ            string
		status         string
		recordJSON     string
		candidatesJSON string
		decidedBy      sql.NullString
		decidedAt      sql.NullString
		resolvedID     sql.NullString
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&p.ID,
		&typ,
		&p.Source,
		&p.RawKey,
		&p.RawName,
		&recordJSON,
		&candidatesJSON,
		&p.TotalScore,
		&p.Reason,
		&status,
		&decidedBy,
		&decidedAt,
		&resolvedID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	p.Type = entity.Type(typ)
	p.Status = PendingStatus(status)
	p.DecidedBy = decidedBy.String
	p.DecidedAt = parseNullTime(decidedAt)
	p.ResolvedEntityID = resolvedID.String
	if err := json.Unmarshal([]byte(recordJSON), &p.Record); err != nil {
		return nil, fmt.Errorf("decode record of pending %s: %w", p.ID, err)
	}
	if candidatesJSON != "" {
		if err := json.Unmarshal([]byte(candidatesJSON), &p.Candidates); err != nil {
			return nil, fmt.Errorf("decode candidates of pending %s: %w", p.ID, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		p.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		p.UpdatedAt = updated
	}
	return &p, nil
}

func insertPending(ctx context.Context, q querier, p *PendingMatch) error {
	record, err := json.Marshal(p.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	candidates := p.Candidates
	if candidates == nil {
		candidates = []PendingCandidate{}
	}
	candJSON, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO pending_matches (`+pendingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		string(p.Type),
		p.Source,
		p.RawKey,
		p.RawName,
		string(record),
		string(candJSON),
		p.TotalScore,
		p.Reason,
		string(status),
		nullableString(p.DecidedBy),
		nullableTime(p.DecidedAt),
		nullableString(p.ResolvedEntityID),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pending match for %s is already open: %w", p.Key(), ErrAliasConflict)
		}
		return fmt.Errorf("insert pending %s: %w", p.ID, err)
	}
	return nil
}

func getPending(ctx context.Context, q querier, id string) (*PendingMatch, error) {
	row := q.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_matches WHERE id = ?`, id)
	p, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pending match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pending: %w", err)
	}
	return p, nil
}

// ApplyDecision persists one resolution in a single transaction.
func (s *Store) ApplyDecision(ctx context.Context, change Change) error {
	if change.Empty() {
		return nil
	}
	ctx = ensureContext(ctx)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if change.Entity != nil {
			if err := insertEntity(ctx, tx, change.Entity); err != nil {
				return err
			}
		}
		if change.Alias != nil {
			if _, err := putAlias(ctx, tx, change.Alias); err != nil {
				return err
			}
		}
		if change.Touch != nil {
			now, _ := s.timestamp()
			if err := touchAlias(ctx, tx, *change.Touch, now); err != nil {
				return err
			}
		}
		if change.Pending != nil {
			if err := insertPending(ctx, tx, change.Pending); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPending fetches one pending match in any state.
func (s *Store) GetPending(ctx context.Context, id string) (*PendingMatch, error) {
	return getPending(ensureContext(ctx), s.db, id)
}

// OpenPendingKeys maps the alias key of every open pending match of typ to
// its id.
func (s *Store) OpenPendingKeys(ctx context.Context, typ entity.Type) (map[entity.AliasKey]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, raw_key FROM pending_matches WHERE entity_type = ? AND status = ?`,
		string(typ), string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list open pending keys: %w", err)
	}
	defer rows.Close()

	out := make(map[entity.AliasKey]string)
	for rows.Next() {
		var id, source, rawKey string
		if err := rows.Scan(&id, &source, &rawKey); err != nil {
			return nil, fmt.Errorf("scan pending key: %w", err)
		}
		out[entity.AliasKey{Type: typ, Source: source, RawKey: rawKey}] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending keys: %w", err)
	}
	return out, nil
}

// ListPending returns pending matches ordered by score, best first.
func (s *Store) ListPending(ctx context.Context, filter PendingFilter) ([]PendingMatch, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if filter.Type != "" {
		clauses = append(clauses, "entity_type = ?")
		args = append(args, string(filter.Type))
	}
	switch {
	case filter.Status != "":
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	case !filter.AnyState:
		clauses = append(clauses, "status = ?")
		args = append(args, string(StatusPending))
	}
	if filter.MinScore != nil {
		clauses = append(clauses, "total_score >= ?")
		args = append(args, *filter.MinScore-matching.ScoreTolerance)
	}

	query := `SELECT ` + pendingColumns + ` FROM pending_matches`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY total_score DESC, created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var out []PendingMatch
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}
	return out, nil
}

// ApprovePending merges the pending record into candidateID as a new alias
// and closes the match. An empty candidateID picks the best candidate. The
// alias write and the status change commit together.
func (s *Store) ApprovePending(ctx context.Context, id, candidateID, actor string) (*PendingMatch, error) {
	ctx = ensureContext(ctx)
	var resolved *PendingMatch
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := openPending(ctx, tx, id)
		if err != nil {
			return err
		}
		target := strings.TrimSpace(candidateID)
		if target == "" {
			best, ok := p.BestCandidate()
			if !ok {
				return fmt.Errorf("pending match %s has no candidates; pass a candidate id", id)
			}
			target = best.EntityID
		}
		e, err := getEntity(ctx, tx, target)
		if err != nil {
			return err
		}
		if e.Type != p.Type {
			return fmt.Errorf("entity %s is a %s, pending match %s is a %s", e.ID, e.Type, id, p.Type)
		}

		now, _ := s.timestamp()
		if _, err := putAlias(ctx, tx, &entity.Alias{
			Type: p.Type, Source: p.Source, RawKey: p.RawKey, RawName: p.RawName,
			EntityID: e.ID, FirstSeen: now, LastSeen: now,
		}); err != nil {
			return err
		}
		resolved, err = closePending(ctx, tx, p, StatusApproved, e.ID, actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// RejectPending creates a canonical entity from the pending record, maps the
// raw key onto it and closes the match, all in one transaction.
func (s *Store) RejectPending(ctx context.Context, id, actor string) (*PendingMatch, *entity.Entity, error) {
	ctx = ensureContext(ctx)
	var (
		resolved *PendingMatch
		created  entity.Entity
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := openPending(ctx, tx, id)
		if err != nil {
			return err
		}
		now, _ := s.timestamp()
		created = entity.NewEntityFromRecord(uuid.NewString(), p.Record, now)
		if err := insertEntity(ctx, tx, &created); err != nil {
			return err
		}
		if _, err := putAlias(ctx, tx, &entity.Alias{
			Type: p.Type, Source: p.Source, RawKey: p.RawKey, RawName: p.RawName,
			EntityID: created.ID, FirstSeen: now, LastSeen: now,
		}); err != nil {
			return err
		}
		resolved, err = closePending(ctx, tx, p, StatusRejected, created.ID, actor, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return resolved, &created, nil
}

func openPending(ctx context.Context, tx *sql.Tx, id string) (*PendingMatch, error) {
	p, err := getPending(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, &AlreadyResolvedError{ID: p.ID, Status: p.Status}
	}
	return p, nil
}

func closePending(ctx context.Context, tx *sql.Tx, p *PendingMatch, status PendingStatus, entityID, actor string, now time.Time) (*PendingMatch, error) {
	ts := formatTime(now)
	res, err := tx.ExecContext(ctx,
		`UPDATE pending_matches
         SET status = ?, decided_by = ?, decided_at = ?, resolved_entity_id = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		string(status), nullableString(actor), ts, entityID, ts, p.ID, string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("close pending %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		current, err := getPending(ctx, tx, p.ID)
		if err != nil {
			return nil, err
		}
		return nil, &AlreadyResolvedError{ID: p.ID, Status: current.Status}
	}
	out := *p
	out.Status = status
	out.DecidedBy = actor
	out.DecidedAt = &now
	out.ResolvedEntityID = entityID
	out.UpdatedAt = now
	return &out, nil
}

// Stats counts entities, aliases and pending matches per type.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{
		Entities: make(map[entity.Type]int),
		Aliases:  make(map[entity.Type]int),
		Pending:  make(map[entity.Type]map[PendingStatus]int),
	}
	for table, target := range map[string]map[entity.Type]int{"entities": stats.Entities, "aliases": stats.Aliases} {
		if err := countByType(ctx, s.db, table, target); err != nil {
			return Stats{}, err
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, status, COUNT(1) FROM pending_matches GROUP BY entity_type, status`)
	if err != nil {
		return Stats{}, fmt.Errorf("count pending: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ, status string
			count       int
		)
		if err := rows.Scan(&typ, &status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan pending count: %w", err)
		}
		byStatus, ok := stats.Pending[entity.Type(typ)]
		if !ok {
			byStatus = make(map[PendingStatus]int)
			stats.Pending[entity.Type(typ)] = byStatus
		}
		byStatus[PendingStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate pending counts: %w", err)
	}
	return stats, nil
}

func countByType(ctx context.Context, q querier, table string, target map[entity.Type]int) error {
	rows, err := q.QueryContext(ctx, `SELECT entity_type, COUNT(1) FROM `+table+` GROUP BY entity_type`)
	if err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ   string
			count int
		)
		if err := rows.Scan(&typ, &count); err != nil {
			return fmt.Errorf("scan %s count: %w", table, err)
		}
		target[entity.Type(typ)] = count
	}
	return rows.Err()
}
