package violation

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func sampleViolation(id string, typ Type, severity Severity, detected time.Time) Violation {
	return Violation{
		ID:       id,
		Type:     typ,
		Severity: severity,
		Evidence: Evidence{
			Expected: "stay inside the approved scope",
			Actual:   "touched an unrelated package",
		},
		AffectedResources: []string{"pkg/server/routes.go", "pkg/server/middleware.go"},
		DetectedAt:        detected,
		Halted:            ActionRecord{Performed: true, At: detected},
		Disclosed:         ActionRecord{Performed: true, At: detected},
	}
}

func runAuditStoreTests(t *testing.T, store AuditStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := store.Save(ctx, sampleViolation("v1", ScopeExceeded, SeverityMajor, now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, sampleViolation("v2", ApprovalBypassed, SeverityCritical, now.Add(time.Second))); err != nil {
		t.Fatalf("save: %v", err)
	}

	v, ok, err := store.Get(ctx, "v1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v.Type != ScopeExceeded || !v.Disclosed.Performed || len(v.AffectedResources) != 2 {
		t.Fatalf("round trip lost fields: %+v", v)
	}

	_, ok, err = store.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("missing id must return ok=false, got ok=%v err=%v", ok, err)
	}

	// Acknowledging updates the existing row.
	acked := sampleViolation("v1", ScopeExceeded, SeverityMajor, now)
	acked.Acknowledged = ActionRecord{Performed: true, At: now.Add(2 * time.Second)}
	if err := store.Save(ctx, acked); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	unresolved, err := store.List(ctx, AuditFilter{Unresolved: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != "v2" {
		t.Fatalf("expected only v2 unresolved, got %+v", unresolved)
	}

	critical, err := store.List(ctx, AuditFilter{Severity: SeverityCritical})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(critical) != 1 || critical[0].Type != ApprovalBypassed {
		t.Fatalf("severity filter failed: %+v", critical)
	}

	all, err := store.List(ctx, AuditFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].ID != "v1" {
		t.Fatalf("expected oldest-first order, got %+v", all)
	}
}

func TestMemoryAuditStore(t *testing.T) {
	runAuditStoreTests(t, NewMemoryAuditStore())
}

func TestSQLiteAuditStore(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteAuditStore(db)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	runAuditStoreTests(t, store)
}
