package supervisor

import (
	"context"
	"math"
	"testing"

	"github.com/atelier-ide/warden/pkg/sources"
)

func TestUncertaintyScoreZeroAndFull(t *testing.T) {
	if got := (UncertaintySignals{}).Score(); got != 0 {
		t.Fatalf("all-zero signals must score 0, got %f", got)
	}
	full := UncertaintySignals{
		AmbiguousGoal:           1,
		MissingContext:          1,
		ConflictingInstructions: 1,
		NovelSituation:          1,
		PreviousFailures:        1,
		ScopeCreep:              1,
	}
	if got := full.Score(); math.Abs(got-100) > 1e-9 {
		t.Fatalf("saturated signals must score 100, got %f", got)
	}
}

func TestUncertaintyScoreWeights(t *testing.T) {
	// Ambiguous goal carries the largest weight: alone it scores 25.
	s := UncertaintySignals{AmbiguousGoal: 1}
	if got := s.Score(); math.Abs(got-25) > 1e-9 {
		t.Fatalf("ambiguous goal alone should score 25, got %f", got)
	}
	// 0.25*0.8 + 0.20*0.5 + 0.10*1.0 = 0.40 -> 40.
	s = UncertaintySignals{AmbiguousGoal: 0.8, MissingContext: 0.5, PreviousFailures: 1}
	if got := s.Score(); math.Abs(got-40) > 1e-9 {
		t.Fatalf("expected 40, got %f", got)
	}
}

func TestUncertaintyScoreClampsInputs(t *testing.T) {
	s := UncertaintySignals{AmbiguousGoal: 7, MissingContext: -3}
	if got := s.Score(); math.Abs(got-25) > 1e-9 {
		t.Fatalf("out-of-range inputs must clamp, got %f", got)
	}
}

func TestSignalsFromAnalysisAndHistory(t *testing.T) {
	analysis := sources.Analysis{
		Factors: []sources.Factor{
			{Name: "missing_dependency_context", Score: 1},
			{Name: "conflicting_information", Score: 0.5},
			{Name: "high_breadth_ratio", Score: 0.25},
		},
	}
	e := executing(t)
	e = CompleteStep(e, Step{Index: 0}, StepResult{Success: false})
	e = CompleteStep(e, Step{Index: 1}, StepResult{Success: true})

	signals := SignalsFrom(analysis, e)
	if signals.MissingContext != 1 || signals.ConflictingInstructions != 0.5 || signals.ScopeCreep != 0.25 {
		t.Fatalf("analysis factors not mapped: %+v", signals)
	}
	if math.Abs(signals.PreviousFailures-0.5) > 1e-9 {
		t.Fatalf("one failure in two steps should signal 0.5, got %f", signals.PreviousFailures)
	}
}

func TestSupervisorUncertaintyMatchesSignals(t *testing.T) {
	sup := New()
	e := executing(t)
	analysis := sources.Analysis{
		Score: 0.4,
		Factors: []sources.Factor{
			{Name: "missing_dependency_context", Score: 0.8},
		},
	}

	got := sup.Uncertainty(context.Background(), e, analysis)
	want := SignalsFrom(analysis, e).Score()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("supervisor uncertainty %f disagrees with the pure score %f", got, want)
	}
}
