package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing entity, alias or pending match.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyResolved reports an approve or reject on a terminal pending match.
	ErrAlreadyResolved = errors.New("already resolved")
	// ErrAliasConflict reports a raw key already mapped to a different entity.
	ErrAliasConflict = errors.New("alias conflict")
	// ErrSchemaMismatch indicates the database schema version differs from the
	// one this binary creates.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// AlreadyResolvedError carries the terminal status of a pending match.
type AlreadyResolvedError struct {
	ID     string
	Status PendingStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("pending match %s already resolved (%s)", e.ID, e.Status)
}

func (e *AlreadyResolvedError) Unwrap() error { return ErrAlreadyResolved }

// AliasConflictError names the entity that already owns a raw key.
type AliasConflictError struct {
	Key      string
	EntityID string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %s already maps to entity %s", e.Key, e.EntityID)
}

func (e *AliasConflictError) Unwrap() error { return ErrAliasConflict }
