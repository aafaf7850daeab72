package sources

import (
	"fmt"
	"testing"
)

func fileSource(origin string, tokens int64) Source {
	return Source{
		Type:      SourceUserProvided,
		Origin:    "file:" + origin,
		Purpose:   "task context",
		Relevance: 0.8,
		Tokens:    tokens,
	}
}

func TestAutoIncludedWithoutUserApproval(t *testing.T) {
	// Scenario: auto-included with no approver -> requiresApproval, the
	// violation list contains unauthorized_source, but the source is still
	// added when nothing critical fires.
	s := NewState(DefaultConfig())
	src := Source{
		Type:      SourceAutoIncluded,
		Origin:    "file:internal/db/conn.go",
		Purpose:   "auto discovery",
		Relevance: 0.9,
		Tokens:    500,
	}
	s, result := AddSource(s, src)
	if !result.RequiresApproval {
		t.Fatalf("expected requiresApproval")
	}
	if !result.Added {
		t.Fatalf("error severity should still admit the source")
	}
	found := false
	for _, v := range result.Violations {
		if v.Type == ViolationUnauthorizedSource {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unauthorized_source violation")
	}
	if len(s.Sources) != 1 {
		t.Fatalf("source should be in state")
	}
}

func TestAutoIncludedWithUserApprovalIsClean(t *testing.T) {
	s := NewState(DefaultConfig())
	src := Source{
		Type:       SourceAutoIncluded,
		Origin:     "file:pkg/api/handler.go",
		Relevance:  0.9,
		Tokens:     100,
		ApprovedBy: ApprovedByUser,
	}
	_, result := AddSource(s, src)
	if !result.Added || result.RequiresApproval || len(result.Violations) != 0 {
		t.Fatalf("user-approved auto-include should be clean, got %+v", result)
	}
}

func TestTokenBudgetRejectsAndLeavesSourcesUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTotalTokens = 1000
	s := NewState(cfg)
	s, result := AddSource(s, fileSource("a/a.go", 800))
	if !result.Added {
		t.Fatalf("first source should be admitted")
	}

	s, result = AddSource(s, fileSource("a/b.go", 300))
	if result.Added {
		t.Fatalf("source over the token budget must be rejected")
	}
	if !result.RequiresNarrowing {
		t.Fatalf("token budget rejection requires narrowing")
	}
	if len(s.Sources) != 1 {
		t.Fatalf("rejected source must not change the source list")
	}
	if s.TotalTokens() != 800 {
		t.Fatalf("token total must be unchanged, got %d", s.TotalTokens())
	}
}

func TestLowRelevanceWarnsButAdds(t *testing.T) {
	s := NewState(DefaultConfig())
	src := fileSource("x/y.go", 10)
	src.Relevance = 0.1
	s, result := AddSource(s, src)
	if !result.Added {
		t.Fatalf("low relevance is a warning, not a rejection")
	}
	if len(result.Violations) != 1 || result.Violations[0].Type != ViolationLowRelevance {
		t.Fatalf("expected a low_relevance warning, got %+v", result.Violations)
	}
	if len(s.Sources) != 1 {
		t.Fatalf("source should be admitted")
	}
}

func TestSourceCountLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSourceCount = 2
	s := NewState(cfg)
	s, _ = AddSource(s, fileSource("a/1.go", 10))
	s, _ = AddSource(s, fileSource("a/2.go", 10))
	_, result := AddSource(s, fileSource("a/3.go", 10))
	if !result.RequiresNarrowing {
		t.Fatalf("exceeding source count requires narrowing")
	}
	found := false
	for _, v := range result.Violations {
		if v.Type == ViolationSourceCount {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected source_count_exceeded violation")
	}
}

func TestBreadthCountsOnlyFileSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBreadth = 2
	s := NewState(cfg)
	s, _ = AddSource(s, fileSource("pkg/a/a.go", 10))
	s, _ = AddSource(s, fileSource("pkg/b/b.go", 10))

	// Non-file sources are invisible to the breadth counter. This is the
	// preserved historical behavior: directory breadth under-counts when
	// context includes URLs or symbols.
	url := Source{Type: SourceUserProvided, Origin: "https://pkg.go.dev/context", Relevance: 0.9, Tokens: 10}
	s, result := AddSource(s, url)
	if !result.Added || result.RequiresApproval {
		t.Fatalf("non-file source must not trip the breadth check: %+v", result)
	}
	if s.Breadth() != 2 {
		t.Fatalf("breadth should count only file sources, got %d", s.Breadth())
	}

	_, result = AddSource(s, fileSource("pkg/c/c.go", 10))
	if !result.RequiresApproval {
		t.Fatalf("third directory must trip the breadth check")
	}
}

func TestInspect(t *testing.T) {
	s := NewState(DefaultConfig())
	s, _ = AddSource(s, fileSource("m/a.go", 100))
	dep := Source{Type: SourceDependencyRequired, Origin: "file:m/b.go", Relevance: 0.6, Tokens: 50}
	s, _ = AddSource(s, dep)

	insp := Inspect(s)
	if insp.SourceCount != 2 {
		t.Fatalf("expected 2 sources, got %d", insp.SourceCount)
	}
	if insp.TotalTokens != 150 {
		t.Fatalf("expected 150 tokens, got %d", insp.TotalTokens)
	}
	if insp.CountByType[SourceDependencyRequired] != 1 {
		t.Fatalf("expected one dependency source")
	}
	if insp.AverageRelevance <= 0 {
		t.Fatalf("expected average relevance")
	}
}

func TestResolveViolations(t *testing.T) {
	s := NewState(DefaultConfig())
	src := Source{Type: SourceAutoIncluded, Origin: "file:z/z.go", Relevance: 0.9, Tokens: 10}
	s, result := AddSource(s, src)
	if len(result.Violations) == 0 {
		t.Fatalf("expected a violation to resolve")
	}
	id := result.Violations[0].SourceID
	s = ResolveViolations(s, id)
	if Inspect(s).UnresolvedViolations != 0 {
		t.Fatalf("violations should be resolved")
	}
}

func TestManySourcesStayWithinLimits(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState(cfg)
	for i := 0; i < 10; i++ {
		var result AddResult
		s, result = AddSource(s, fileSource(fmt.Sprintf("pkg/mod/f%d.go", i), 100))
		if !result.Added {
			t.Fatalf("source %d unexpectedly rejected", i)
		}
	}
	if len(s.Sources) != 10 {
		t.Fatalf("expected 10 sources")
	}
}
