package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedEntity prepares rec and stores it as a canonical entity with an alias
// under its own source.
func SeedEntity(t testing.TB, st *store.Store, rec entity.Record) *entity.Entity {
	t.Helper()

	prepared, err := rec.Prepare()
	if err != nil {
		t.Fatalf("prepare seed record: %v", err)
	}
	now := time.Now().UTC()
	e := entity.NewEntityFromRecord(uuid.NewString(), prepared, now)
	key := prepared.Key()
	change := store.Change{
		Entity: &e,
		Alias: &entity.Alias{
			Type: key.Type, Source: key.Source, RawKey: key.RawKey, RawName: prepared.Name,
			EntityID: e.ID, FirstSeen: now, LastSeen: now,
		},
	}
	if err := st.ApplyDecision(context.Background(), change); err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	return &e
}
