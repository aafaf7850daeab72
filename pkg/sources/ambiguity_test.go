package sources

import "testing"

func TestCleanContextProceeds(t *testing.T) {
	s := NewState(DefaultConfig())
	s, _ = AddSource(s, fileSource("pkg/a/main.go", 100))
	s, _ = AddSource(s, fileSource("pkg/a/util.go", 100))
	s, _ = AddSource(s, fileSource("pkg/a/types.go", 100))

	analysis := AnalyzeAmbiguity(s)
	if analysis.Recommendation != RecommendProceed {
		t.Fatalf("clean context should proceed, got %s (score %.2f)", analysis.Recommendation, analysis.Score)
	}
	if len(analysis.Factors) != 5 {
		t.Fatalf("expected five factors, got %d", len(analysis.Factors))
	}
}

func TestDuplicateSourcesRaiseConflictFactor(t *testing.T) {
	s := NewState(DefaultConfig())
	s, _ = AddSource(s, fileSource("pkg/a/main.go", 100))
	s, _ = AddSource(s, fileSource("pkg/a/main.go", 100))

	analysis := AnalyzeAmbiguity(s)
	var conflict Factor
	for _, f := range analysis.Factors {
		if f.Name == "conflicting_information" {
			conflict = f
		}
	}
	if conflict.Score == 0 {
		t.Fatalf("duplicate origins must raise the conflict factor")
	}
}

func TestMissingDependencyContextTriggersClarify(t *testing.T) {
	s := NewState(DefaultConfig())
	dep := Source{
		Type:      SourceDependencyRequired,
		Origin:    "file:pkg/svc/handler.go",
		Purpose:   "imports pkg/db which is not in context",
		Relevance: 0.2,
		Tokens:    100,
	}
	s, _ = AddSource(s, dep)

	analysis := AnalyzeAmbiguity(s)
	if analysis.Recommendation != RecommendClarify {
		t.Fatalf("sparse dependency context should ask for clarification, got %s (score %.2f)",
			analysis.Recommendation, analysis.Score)
	}
	if len(analysis.ClarificationQuestions) == 0 {
		t.Fatalf("clarify recommendation must carry questions")
	}
}

func TestSeverelyAmbiguousContextHalts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbiguityThreshold = 0.40
	s := NewState(cfg)

	// Duplicates, low relevance, and a dependency gap together push the
	// score past the lowered halt threshold.
	low := Source{Type: SourceDependencyRequired, Origin: "file:a/x.go", Purpose: "imports missing deps", Relevance: 0.05, Tokens: 10}
	s, _ = AddSource(s, low)
	dup := low
	dup.ID = ""
	s, _ = AddSource(s, dup)

	analysis := AnalyzeAmbiguity(s)
	if analysis.Recommendation != RecommendHalt {
		t.Fatalf("expected halt, got %s (score %.2f)", analysis.Recommendation, analysis.Score)
	}
}

func TestEmptyContextScoresZeroConflict(t *testing.T) {
	analysis := AnalyzeAmbiguity(NewState(DefaultConfig()))
	if analysis.Score >= proceedThreshold {
		t.Fatalf("empty context should not be ambiguous on its own, score %.2f", analysis.Score)
	}
}
