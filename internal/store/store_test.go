package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"paddock/internal/entity"
	"paddock/internal/matching"
	"paddock/internal/store"
	"paddock/internal/testsupport"
)

func driverRecord(source, rawKey, name string, number int) entity.Record {
	return entity.Record{
		Type: entity.TypeDriver, Source: source, RawKey: rawKey, Name: name,
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{Number: number}},
	}
}

func queuePending(t *testing.T, st *store.Store, rec entity.Record, score float64, candidates ...*entity.Entity) *store.PendingMatch {
	t.Helper()
	prepared, err := rec.Prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	key := prepared.Key()
	now := time.Now().UTC()
	p := &store.PendingMatch{
		ID: "pm-" + key.RawKey, Type: key.Type, Source: key.Source, RawKey: key.RawKey, RawName: prepared.Name,
		Record: prepared, TotalScore: score, Reason: "ambiguous", Status: store.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	for _, c := range candidates {
		p.Candidates = append(p.Candidates, store.PendingCandidate{
			EntityID: c.ID, Name: c.Name, Total: score,
			Scores: []matching.FeatureScore{{Name: "last_name", Weight: 0.3, Score: 1, Weighted: 0.3}},
		})
	}
	if err := st.ApplyDecision(context.Background(), store.Change{Pending: p}); err != nil {
		t.Fatalf("queue pending: %v", err)
	}
	return p
}

func TestOpenCreatesSchemaOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	seeded := testsupport.SeedEntity(t, first, driverRecord("seed", "ham", "Lewis Hamilton", 44))

	second, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, err := second.GetEntity(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got.Name != "Lewis Hamilton" || got.Attributes.Driver == nil || got.Attributes.Driver.Number != 44 {
		t.Fatalf("unexpected entity %#v", got)
	}
	if got.Attributes.Driver.LastName != "Hamilton" {
		t.Fatalf("expected derived last name, got %q", got.Attributes.Driver.LastName)
	}
}

func TestAliasLookupAndConflict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ham := testsupport.SeedEntity(t, st, driverRecord("seed", "ham", "Lewis Hamilton", 44))
	ver := testsupport.SeedEntity(t, st, driverRecord("seed", "ver", "Max Verstappen", 1))

	key := entity.AliasKey{Type: entity.TypeDriver, Source: "seed", RawKey: "ham"}
	alias, err := st.LookupAlias(ctx, key)
	if err != nil {
		t.Fatalf("LookupAlias: %v", err)
	}
	if alias.EntityID != ham.ID {
		t.Fatalf("alias points to %s, want %s", alias.EntityID, ham.ID)
	}

	if _, err := st.LookupAlias(ctx, entity.AliasKey{Type: entity.TypeDriver, Source: "seed", RawKey: "nope"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now().UTC()
	err = st.ApplyDecision(ctx, store.Change{Alias: &entity.Alias{
		Type: entity.TypeDriver, Source: "seed", RawKey: "ham", EntityID: ver.ID, FirstSeen: now, LastSeen: now,
	}})
	if !errors.Is(err, store.ErrAliasConflict) {
		t.Fatalf("expected alias conflict, got %v", err)
	}

	// Re-writing the same mapping is a touch, not a duplicate.
	err = st.ApplyDecision(ctx, store.Change{Alias: &entity.Alias{
		Type: entity.TypeDriver, Source: "seed", RawKey: "ham", EntityID: ham.ID, FirstSeen: now, LastSeen: now,
	}})
	if err != nil {
		t.Fatalf("rewrite alias: %v", err)
	}
	aliases, err := st.AliasesForEntity(ctx, ham.ID)
	if err != nil {
		t.Fatalf("AliasesForEntity: %v", err)
	}
	if len(aliases) != 1 {
		t.Fatalf("expected one alias, got %d", len(aliases))
	}
}

func TestApplyDecisionRollsBackOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Now().UTC()
	prepared, _ := driverRecord("feed", "x1", "Oscar Piastri", 81).Prepare()
	e := entity.NewEntityFromRecord("new-entity", prepared, now)
	// The alias references an entity that does not exist, so the foreign key
	// fails after the entity insert.
	err := st.ApplyDecision(ctx, store.Change{
		Entity: &e,
		Alias: &entity.Alias{
			Type: entity.TypeDriver, Source: "feed", RawKey: "x1", EntityID: "missing", FirstSeen: now, LastSeen: now,
		},
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
	if _, err := st.GetEntity(ctx, "new-entity"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("entity insert should have rolled back, got %v", err)
	}
}

func TestApprovePendingIsSingleUse(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ham := testsupport.SeedEntity(t, st, driverRecord("seed", "ham", "Lewis Hamilton", 44))
	p := queuePending(t, st, driverRecord("feed", "44", "L. Hamilton", 44), 0.7, ham)

	approved, err := st.ApprovePending(ctx, p.ID, "", "alice")
	if err != nil {
		t.Fatalf("ApprovePending: %v", err)
	}
	if approved.Status != store.StatusApproved || approved.ResolvedEntityID != ham.ID || approved.DecidedBy != "alice" {
		t.Fatalf("unexpected approval %#v", approved)
	}

	alias, err := st.LookupAlias(ctx, p.Key())
	if err != nil {
		t.Fatalf("alias missing after approve: %v", err)
	}
	if alias.EntityID != ham.ID {
		t.Fatalf("alias points to %s", alias.EntityID)
	}

	_, err = st.ApprovePending(ctx, p.ID, "", "bob")
	var resolved *store.AlreadyResolvedError
	if !errors.As(err, &resolved) || resolved.Status != store.StatusApproved {
		t.Fatalf("expected already resolved error, got %v", err)
	}
	if err.Error() != "pending match "+p.ID+" already resolved (approved)" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entities[entity.TypeDriver] != 1 || stats.Aliases[entity.TypeDriver] != 2 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if stats.Pending[entity.TypeDriver][store.StatusApproved] != 1 {
		t.Fatalf("expected the approved row to be kept, got %#v", stats.Pending)
	}
}

func TestApprovePendingRejectsWrongType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	team := testsupport.SeedEntity(t, st, entity.Record{Type: entity.TypeTeam, Source: "seed", Name: "Ferrari"})
	p := queuePending(t, st, driverRecord("feed", "16", "Charles Leclerc", 16), 0.6)

	if _, err := st.ApprovePending(ctx, p.ID, team.ID, "alice"); err == nil {
		t.Fatal("expected type mismatch error")
	}
	if _, err := st.ApprovePending(ctx, p.ID, "", "alice"); err == nil {
		t.Fatal("expected error for pending match without candidates")
	}
	got, err := st.GetPending(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if got.Status != store.StatusPending {
		t.Fatalf("failed approvals must leave the row pending, got %s", got.Status)
	}
}

func TestRejectPendingCreatesEntity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := queuePending(t, st, driverRecord("feed", "87", "Oliver Bearman", 87), 0.6)
	rejected, created, err := st.RejectPending(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("RejectPending: %v", err)
	}
	if rejected.Status != store.StatusRejected || rejected.ResolvedEntityID != created.ID {
		t.Fatalf("unexpected rejection %#v", rejected)
	}
	if created.Name != "Oliver Bearman" {
		t.Fatalf("unexpected entity name %q", created.Name)
	}
	alias, err := st.LookupAlias(ctx, p.Key())
	if err != nil || alias.EntityID != created.ID {
		t.Fatalf("expected alias to new entity, got %#v (%v)", alias, err)
	}
	if _, _, err := st.RejectPending(ctx, p.ID, "alice"); !errors.Is(err, store.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestListPendingFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queuePending(t, st, driverRecord("feed", "a", "Driver A", 0), 0.81)
	queuePending(t, st, driverRecord("feed", "b", "Driver B", 0), 0.55)
	queuePending(t, st, entity.Record{Type: entity.TypeTeam, Source: "feed", RawKey: "c", Name: "Team C"}, 0.90)

	all, err := st.ListPending(ctx, store.PendingFilter{})
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(all) != 3 || all[0].TotalScore != 0.90 {
		t.Fatalf("expected 3 rows ordered by score, got %#v", all)
	}

	minScore := 0.8
	drivers, err := st.ListPending(ctx, store.PendingFilter{Type: entity.TypeDriver, MinScore: &minScore})
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(drivers) != 1 || drivers[0].RawKey != "a" {
		t.Fatalf("unexpected filtered rows %#v", drivers)
	}

	limited, err := st.ListPending(ctx, store.PendingFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}

	keys, err := st.OpenPendingKeys(ctx, entity.TypeDriver)
	if err != nil {
		t.Fatalf("OpenPendingKeys: %v", err)
	}
	if keys[entity.AliasKey{Type: entity.TypeDriver, Source: "feed", RawKey: "a"}] != "pm-a" {
		t.Fatalf("unexpected open keys %#v", keys)
	}
}

func TestOpenPendingKeyIsUnique(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	p := queuePending(t, st, driverRecord("feed", "dup", "Driver Dup", 0), 0.6)
	dup := *p
	dup.ID = "pm-dup-2"
	err := st.ApplyDecision(context.Background(), store.Change{Pending: &dup})
	if !errors.Is(err, store.ErrAliasConflict) {
		t.Fatalf("expected second open pending row to be refused, got %v", err)
	}
}

func TestPromoteAliasRenamesEntity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	e := testsupport.SeedEntity(t, st, entity.Record{Type: entity.TypeCircuit, Source: "seed", RawKey: "c1", Name: "Autodromo Nazionale Monza"})
	now := time.Now().UTC()
	if err := st.ApplyDecision(ctx, store.Change{Alias: &entity.Alias{
		Type: entity.TypeCircuit, Source: "feed", RawKey: "monza", RawName: "Autodromo Nazionale di Monza",
		EntityID: e.ID, FirstSeen: now, LastSeen: now,
	}}); err != nil {
		t.Fatalf("add alias: %v", err)
	}
	alias, err := st.LookupAlias(ctx, entity.AliasKey{Type: entity.TypeCircuit, Source: "feed", RawKey: "monza"})
	if err != nil {
		t.Fatalf("LookupAlias: %v", err)
	}

	promoted, err := st.PromoteAlias(ctx, alias.ID)
	if err != nil {
		t.Fatalf("PromoteAlias: %v", err)
	}
	if promoted.Name != "Autodromo Nazionale di Monza" {
		t.Fatalf("unexpected name %q", promoted.Name)
	}
	if _, err := st.PromoteAlias(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
