package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"paddock/internal/entity"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const entityColumns = "id, entity_type, name, attributes_json, created_at, updated_at"

func scanEntity(scanner rowScanner) (*entity.Entity, error) {
	var (
		id         string
		typ        string
		name       string
		attrsJSON  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &typ, &name, &attrsJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	e := &entity.Entity{ID: id, Type: entity.Type(typ), Name: name}
	if attrsJSON != "" {
		if err := json.Unmarshal([]byte(attrsJSON), &e.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", id, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		e.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		e.UpdatedAt = updated
	}
	return e, nil
}

func insertEntity(ctx context.Context, q querier, e *entity.Entity) error {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO entities (`+entityColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Name, string(attrs), formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert entity %s: %w", e.ID, err)
	}
	return nil
}

func getEntity(ctx context.Context, q querier, id string) (*entity.Entity, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

// CreateEntity inserts a canonical entity, for example when seeding.
func (s *Store) CreateEntity(ctx context.Context, e *entity.Entity) error {
	ctx = ensureContext(ctx)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertEntity(ctx, tx, e)
	})
}

// GetEntity fetches one canonical entity.
func (s *Store) GetEntity(ctx context.Context, id string) (*entity.Entity, error) {
	return getEntity(ensureContext(ctx), s.db, id)
}

// ListEntities returns every canonical entity of typ ordered by creation,
// which keeps candidate pools deterministic across runs.
func (s *Store) ListEntities(ctx context.Context, typ entity.Type) ([]entity.Entity, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE entity_type = ? ORDER BY created_at, id`,
		string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []entity.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return out, nil
}

// PromoteAlias renames the alias's entity to the alias raw name. It is the
// only operation that changes a canonical name.
func (s *Store) PromoteAlias(ctx context.Context, aliasID int64) (*entity.Entity, error) {
	ctx = ensureContext(ctx)
	var promoted *entity.Entity
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		alias, err := getAlias(ctx, tx, aliasID)
		if err != nil {
			return err
		}
		if alias.RawName == "" {
			return fmt.Errorf("alias %d has no raw name to promote", aliasID)
		}
		_, ts := s.timestamp()
		res, err := tx.ExecContext(ctx,
			`UPDATE entities SET name = ?, updated_at = ? WHERE id = ?`,
			alias.RawName, ts, alias.EntityID,
		)
		if err != nil {
			return fmt.Errorf("promote alias: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("entity %s: %w", alias.EntityID, ErrNotFound)
		}
		promoted, err = getEntity(ctx, tx, alias.EntityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}
