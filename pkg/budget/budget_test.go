package budget

import (
	"context"
	"sync"
	"testing"

	"github.com/atelier-ide/warden/pkg/errors"
	"github.com/atelier-ide/warden/pkg/policy"
)

func TestThresholdBoundaries(t *testing.T) {
	// Exactly 100% is exceeded, never critical; exactly 90% is critical,
	// never warning; exactly 75% is warning.
	cases := []struct {
		percent float64
		want    Severity
	}{
		{74.9, SeverityOK},
		{75.0, SeverityWarning},
		{89.9, SeverityWarning},
		{90.0, SeverityCritical},
		{99.9, SeverityCritical},
		{100.0, SeverityExceeded},
		{150.0, SeverityExceeded},
	}
	for _, tc := range cases {
		if got := classify(tc.percent); got != tc.want {
			t.Fatalf("classify(%.1f) = %s, want %s", tc.percent, got, tc.want)
		}
	}
}

func TestStepsExhaustedHalts(t *testing.T) {
	// Scenario: maxStepsPerTask=20, stepsCompleted=20 -> one exceeded
	// violation, mustHalt.
	limits := DefaultLimits()
	limits.MaxStepsPerTask = 20
	s := NewState(limits)
	s.Usage.StepsCompleted = 20

	result := CheckLimits(s)
	if !result.MustHalt {
		t.Fatalf("expected mustHalt")
	}
	var found *LimitViolation
	for i := range result.Violations {
		if result.Violations[i].Metric == MetricStepsPerTask {
			found = &result.Violations[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a maxStepsPerTask violation")
	}
	if found.Severity != SeverityExceeded {
		t.Fatalf("expected exceeded severity, got %s", found.Severity)
	}
	if result.BudgetAxis() != policy.BudgetExceeded {
		t.Fatalf("expected exceeded budget axis")
	}
}

func TestSingleExceededMetricHaltsEverything(t *testing.T) {
	limits := DefaultLimits()
	s := NewState(limits)
	// Everything comfortable except one runaway counter.
	s.Usage.TokensSession = limits.MaxTokensPerSession
	result := CheckLimits(s)
	if !result.MustHalt || result.Allowed {
		t.Fatalf("one exceeded metric must halt the whole execution")
	}
}

func TestCriticalMapsToConstrainedAxis(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxCostCents = 100
	s := NewState(limits)
	s.Usage.CostCents = 90

	result := CheckLimits(s)
	if result.MustHalt {
		t.Fatalf("critical severity must not halt")
	}
	if result.Status != SeverityCritical {
		t.Fatalf("expected critical status, got %s", result.Status)
	}
	if result.BudgetAxis() != policy.BudgetConstrained {
		t.Fatalf("expected constrained budget axis")
	}
}

func TestUpdateUsageRechecksImmediately(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxCommandsRun = 2
	s := NewState(limits)

	s, result, err := IncrementUsage(s, MetricCommandsRun, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MustHalt {
		t.Fatalf("first command should not halt")
	}

	s, result, err = IncrementUsage(s, MetricCommandsRun, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.MustHalt {
		t.Fatalf("hitting the command limit must halt in the same update")
	}
	if !s.Halted {
		t.Fatalf("state must record the halt")
	}
}

func TestHaltedStateRefusesUsage(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxCommandsRun = 1
	s := NewState(limits)

	s, _, err := IncrementUsage(s, MetricCommandsRun, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Halted {
		t.Fatalf("state should be halted at the limit")
	}

	_, _, err = IncrementUsage(s, MetricCommandsRun, 1)
	if err == nil {
		t.Fatalf("usage past a halt must be refused")
	}
	we := errors.AsWardenError(err)
	if we.Code != errors.CodeLimitBreach {
		t.Fatalf("expected %s, got %s", errors.CodeLimitBreach, we.Code)
	}

	s, err = ResumeFromHalt(s, "user raised the command limit")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	s = WithLimits(s, DefaultLimits())
	if _, _, err := IncrementUsage(s, MetricCommandsRun, 1); err != nil {
		t.Fatalf("usage after a logged resolution must be accepted: %v", err)
	}
}

func TestUsageIsMonotonic(t *testing.T) {
	s := NewState(DefaultLimits())
	if _, _, err := IncrementUsage(s, MetricCostCents, -5); err == nil {
		t.Fatalf("negative delta must be rejected")
	}
	s.Usage.CostCents = 100
	s = Reset(s)
	if s.Usage.CostCents != 0 {
		t.Fatalf("reset must zero usage")
	}
}

func TestResumeFromHaltRequiresResolution(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxStepsPerTask = 1
	s := NewState(limits)
	s, _, err := IncrementUsage(s, MetricStepsPerTask, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Halted {
		t.Fatalf("state should be halted")
	}

	if _, err := ResumeFromHalt(s, ""); err == nil {
		t.Fatalf("resume without resolution must fail")
	}

	s, err = ResumeFromHalt(s, "user raised step limit to 40")
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if s.Halted {
		t.Fatalf("resume should clear the halt")
	}
	if len(s.Resumptions) != 1 || s.Resumptions[0].Resolution == "" {
		t.Fatalf("resolution must be recorded")
	}
}

func TestSafeOptionsEscalateWithSeverity(t *testing.T) {
	warning := safeOptionsFor(SeverityWarning)
	exceeded := safeOptionsFor(SeverityExceeded)
	if len(warning) >= len(exceeded) {
		t.Fatalf("exceeded severity should offer more options")
	}
	var hasIncrease bool
	for _, opt := range exceeded {
		if opt.Kind == OptionIncreaseLimit {
			hasIncrease = true
			if !opt.NeedsApproval {
				t.Fatalf("increase_limit must need approval")
			}
		}
	}
	if !hasIncrease {
		t.Fatalf("exceeded severity must offer increase_limit")
	}
}

func TestSessionMeterSerializesUpdates(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTokensPerSession = 100000
	meter := NewSessionMeter(limits)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := meter.IncrementUsage(ctx, MetricTokensPerSession, 10); err != nil {
				t.Errorf("update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := meter.Snapshot().Usage.TokensSession; got != 500 {
		t.Fatalf("expected 500 tokens recorded, got %d", got)
	}
}
