package supervisor

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord(id string, status Status, created time.Time) Record {
	return Record{
		ID:             id,
		Goal:           "refactor the loader",
		Status:         status,
		StepsCompleted: 3,
		StepsFailed:    1,
		HaltReason:     "",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Save(ctx, sampleRecord("a", StatusExecuting, now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	record, ok, err := store.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if record.StepsCompleted != 3 {
		t.Fatalf("unexpected record: %+v", record)
	}

	_, ok, err = store.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("missing id must return ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreUpsertAndFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	store.Save(ctx, sampleRecord("a", StatusExecuting, now))
	store.Save(ctx, sampleRecord("b", StatusHalted, now.Add(time.Second)))

	updated := sampleRecord("a", StatusHalted, now)
	updated.HaltReason = "budget exhausted"
	store.Save(ctx, updated)

	halted, err := store.List(ctx, RecordFilter{Status: StatusHalted})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(halted) != 2 {
		t.Fatalf("expected 2 halted records, got %d", len(halted))
	}

	limited, err := store.List(ctx, RecordFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "a" {
		t.Fatalf("limit must keep insertion order, got %+v", limited)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(openTestDB(t))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := store.Save(ctx, sampleRecord("run-1", StatusExecuting, now)); err != nil {
		t.Fatalf("save: %v", err)
	}

	record, ok, err := store.Get(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if record.Status != StatusExecuting || record.StepsCompleted != 3 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestSQLiteStoreUpsertAndList(t *testing.T) {
	store, err := NewSQLiteStore(openTestDB(t))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	store.Save(ctx, sampleRecord("run-1", StatusExecuting, now))
	store.Save(ctx, sampleRecord("run-2", StatusExecuting, now.Add(time.Second)))

	halted := sampleRecord("run-1", StatusHalted, now)
	halted.HaltReason = "uncertainty above threshold"
	if err := store.Save(ctx, halted); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records, err := store.List(ctx, RecordFilter{Status: StatusHalted})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].HaltReason != "uncertainty above threshold" {
		t.Fatalf("upsert did not stick: %+v", records)
	}

	all, err := store.List(ctx, RecordFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].ID != "run-1" {
		t.Fatalf("expected oldest-first order, got %+v", all)
	}
}

func TestSQLiteStoreMissingRecord(t *testing.T) {
	store, err := NewSQLiteStore(openTestDB(t))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	_, ok, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("missing record must return ok=false")
	}
}
