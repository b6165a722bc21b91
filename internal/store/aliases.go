package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paddock/internal/entity"
)

const aliasColumns = "id, entity_type, source, raw_key, raw_name, entity_id, first_seen, last_seen"

func scanAlias(scanner rowScanner) (*entity.Alias, error) {
	var (
		a         entity.Alias
		typ       string
		firstSeen string
		lastSeen  string
	)
	if err := scanner.Scan(&a.ID, &typ, &a.Source, &a.RawKey, &a.RawName, &a.EntityID, &firstSeen, &lastSeen); err != nil {
		return nil, err
	}
	a.Type = entity.Type(typ)
	if t, err := parseTimeString(firstSeen); err == nil {
		a.FirstSeen = t
	}
	if t, err := parseTimeString(lastSeen); err == nil {
		a.LastSeen = t
	}
	return &a, nil
}

func getAlias(ctx context.Context, q querier, id int64) (*entity.Alias, error) {
	row := q.QueryRowContext(ctx, `SELECT `+aliasColumns+` FROM aliases WHERE id = ?`, id)
	a, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alias %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get alias: %w", err)
	}
	return a, nil
}

func lookupAlias(ctx context.Context, q querier, key entity.AliasKey) (*entity.Alias, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+aliasColumns+` FROM aliases WHERE entity_type = ? AND source = ? AND raw_key = ?`,
		string(key.Type), key.Source, key.RawKey,
	)
	a, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alias %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup alias: %w", err)
	}
	return a, nil
}

// putAlias records that key maps onto a.EntityID. An existing alias for the
// same entity is touched; one for another entity is a conflict.
func putAlias(ctx context.Context, q querier, a *entity.Alias) (*entity.Alias, error) {
	existing, err := lookupAlias(ctx, q, a.Key())
	switch {
	case err == nil:
		if existing.EntityID != a.EntityID {
			return nil, &AliasConflictError{Key: a.Key().String(), EntityID: existing.EntityID}
		}
		if err := touchAlias(ctx, q, a.Key(), a.LastSeen); err != nil {
			return nil, err
		}
		existing.LastSeen = a.LastSeen
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO aliases (entity_type, source, raw_key, raw_name, entity_id, first_seen, last_seen)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.Type), a.Source, a.RawKey, a.RawName, a.EntityID,
		formatTime(a.FirstSeen), formatTime(a.LastSeen),
	)
	if err != nil {
		return nil, fmt.Errorf("insert alias %s: %w", a.Key(), err)
	}
	out := *a
	if id, err := res.LastInsertId(); err == nil {
		out.ID = id
	}
	return &out, nil
}

func touchAlias(ctx context.Context, q querier, key entity.AliasKey, seen time.Time) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE aliases SET last_seen = ? WHERE entity_type = ? AND source = ? AND raw_key = ?`,
		formatTime(seen), string(key.Type), key.Source, key.RawKey,
	); err != nil {
		return fmt.Errorf("touch alias %s: %w", key, err)
	}
	return nil
}

func listAliases(ctx context.Context, q querier, where string, args ...any) ([]entity.Alias, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+aliasColumns+` FROM aliases WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var out []entity.Alias
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return out, nil
}

// LookupAlias returns the alias for key or ErrNotFound.
func (s *Store) LookupAlias(ctx context.Context, key entity.AliasKey) (*entity.Alias, error) {
	return lookupAlias(ensureContext(ctx), s.db, key)
}

// ListAliases returns every alias of typ.
func (s *Store) ListAliases(ctx context.Context, typ entity.Type) ([]entity.Alias, error) {
	return listAliases(ensureContext(ctx), s.db, "entity_type = ?", string(typ))
}

// AliasesForEntity returns the aliases of one canonical entity across sources.
func (s *Store) AliasesForEntity(ctx context.Context, entityID string) ([]entity.Alias, error) {
	return listAliases(ensureContext(ctx), s.db, "entity_id = ?", entityID)
}
