package violation

import (
	"testing"

	"github.com/atelier-ide/warden/pkg/errors"
)

func TestEveryTypeHasDefinition(t *testing.T) {
	if len(AllTypes) != 12 {
		t.Fatalf("expected 12 anti-patterns, got %d", len(AllTypes))
	}
	for _, typ := range AllTypes {
		def, err := DefinitionFor(typ)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if def.Description == "" || def.PreventionAdvice == "" {
			t.Fatalf("%s definition is incomplete: %+v", typ, def)
		}
	}
}

func TestUnknownTypeIsConfigError(t *testing.T) {
	if _, err := DefinitionFor("made_up"); err == nil {
		t.Fatalf("unknown type must be rejected")
	}
	if _, err := Detect("made_up", Evidence{}, nil); err == nil {
		t.Fatalf("detect with unknown type must fail")
	}
}

func TestApprovalBypassedAlwaysCritical(t *testing.T) {
	// No amount of benign evidence softens the hard-coded critical types.
	result, err := Detect(ApprovalBypassed, Evidence{
		Expected: "user approves the change before apply",
		Actual:   "change applied without approval",
	}, []string{"pkg/server/handler.go"})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if result.Violation.Severity != SeverityCritical {
		t.Fatalf("approval_bypassed must be critical, got %s", result.Violation.Severity)
	}
	if !result.MustHalt {
		t.Fatalf("critical violation must halt")
	}
	if !result.MustDisclose() {
		t.Fatalf("disclosure is unconditional")
	}
}

func TestHardCodedCriticalTypes(t *testing.T) {
	for _, typ := range []Type{AutonomyViolation, ApprovalBypassed, SilentEscalation, ConfidenceRuleBreaking} {
		result, err := Detect(typ, Evidence{}, nil)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if result.Violation.Severity != SeverityCritical {
			t.Fatalf("%s must be critical, got %s", typ, result.Violation.Severity)
		}
	}
}

func TestMinorEscalatesOnResourceCount(t *testing.T) {
	many := []string{"a.go", "b.go", "c.go", "d.go", "e.go", "f.go"}
	result, err := Detect(GoalDrift, Evidence{}, many)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if result.Violation.Severity != SeverityMajor {
		t.Fatalf("more than 5 resources must escalate to major, got %s", result.Violation.Severity)
	}
	if !result.MustHalt {
		t.Fatalf("major violation must halt")
	}
}

func TestMinorEscalatesOnSensitivePath(t *testing.T) {
	for _, path := range []string{"deploy/config.yaml", ".env.production"} {
		result, err := Detect(UnauthorizedSource, Evidence{}, []string{path})
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		if result.Violation.Severity != SeverityMajor {
			t.Fatalf("%s must escalate to major, got %s", path, result.Violation.Severity)
		}
	}
}

func TestMinorStaysMinorWithoutEscalation(t *testing.T) {
	result, err := Detect(GoalDrift, Evidence{}, []string{"pkg/ui/panel.go"})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if result.Violation.Severity != SeverityMinor {
		t.Fatalf("expected minor, got %s", result.Violation.Severity)
	}
	if result.MustHalt {
		t.Fatalf("minor violation must not force a halt")
	}
	if !result.MustDisclose() {
		t.Fatalf("minor violations are still disclosed")
	}
}

func TestNeverRollbackableTypes(t *testing.T) {
	for _, typ := range []Type{HiddenContext, SpeedOverSafety} {
		def, err := DefinitionFor(typ)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if def.RollbackAvailable {
			t.Fatalf("%s must never be rollback-able", typ)
		}
	}
}

func TestRespondMandatoryDisclosure(t *testing.T) {
	// Disclosure happens even when no halt or rollback does.
	result, err := Detect(GoalDrift, Evidence{}, nil)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	response, err := Respond(State{}, result)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	v := response.Violation
	if !v.Disclosed.Performed || v.Disclosed.At.IsZero() {
		t.Fatalf("disclosure must be recorded with a timestamp: %+v", v.Disclosed)
	}
	if v.Halted.Performed {
		t.Fatalf("minor violation must not halt")
	}
	if v.RollbackPerformed.Performed || v.IsolationPerformed.Performed {
		t.Fatalf("minor violation must not rollback or isolate")
	}
	if response.UserMessage == "" || response.PreventionAdvice == "" {
		t.Fatalf("response must explain itself to the user")
	}
}

func TestRespondCriticalRollsBackWhenAvailable(t *testing.T) {
	// A critical violation with rollback available always rolls back and
	// never isolates instead.
	result, err := Detect(ApprovalBypassed, Evidence{}, []string{"pkg/api/apply.go"})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	response, err := Respond(State{}, result)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	v := response.Violation
	if !v.Halted.Performed || !v.Disclosed.Performed {
		t.Fatalf("critical violation must halt and disclose: %+v", v)
	}
	if !v.RollbackPerformed.Performed {
		t.Fatalf("rollback-able critical violation must roll back")
	}
	if v.IsolationPerformed.Performed {
		t.Fatalf("rollback must not be silently replaced by isolation")
	}
}

func TestRespondIsolatesWhenRollbackUnavailable(t *testing.T) {
	many := []string{"a", "b", "c", "d", "e", "f"}
	result, err := Detect(HiddenContext, Evidence{}, many)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	// hidden_context escalates to major here, not critical, so neither
	// rollback nor isolation runs. Force critical via the hard-coded path.
	if result.Violation.Severity == SeverityCritical {
		t.Fatalf("hidden_context is not hard-coded critical")
	}
	result.Violation.Severity = SeverityCritical
	response, err := Respond(State{}, result)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	v := response.Violation
	if v.RollbackPerformed.Performed {
		t.Fatalf("hidden_context can never roll back")
	}
	if !v.IsolationPerformed.Performed {
		t.Fatalf("critical non-rollback-able violation must isolate")
	}
}

func TestRespondActionOrder(t *testing.T) {
	result, err := Detect(SilentEscalation, Evidence{}, nil)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	response, err := Respond(State{}, result)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	var kinds []string
	for _, a := range response.Actions {
		kinds = append(kinds, a.Kind)
	}
	want := []string{"halt", "disclose", "rollback"}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("response order must be fixed: expected %v, got %v", want, kinds)
		}
	}
}

func TestRespondAppendsToLogWithoutMutatingInput(t *testing.T) {
	state := State{}
	result, _ := Detect(ScopeExceeded, Evidence{}, nil)
	response, err := Respond(state, result)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(state.Violations) != 0 {
		t.Fatalf("input state must not be mutated")
	}
	if len(response.State.Violations) != 1 {
		t.Fatalf("violation must be logged")
	}
}

func TestAcknowledge(t *testing.T) {
	result, _ := Detect(BudgetIgnored, Evidence{}, nil)
	response, _ := Respond(State{}, result)
	state := response.State

	next, err := Acknowledge(state, response.Violation.ID)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !next.Violations[0].Resolved() {
		t.Fatalf("violation must be resolved after acknowledge")
	}
	if state.Violations[0].Resolved() {
		t.Fatalf("input state must not be mutated")
	}

	if _, err := Acknowledge(state, "missing"); err == nil {
		t.Fatalf("unknown id must be rejected")
	}
}

func TestAcknowledgeRequiresDisclosure(t *testing.T) {
	result, _ := Detect(BudgetIgnored, Evidence{}, nil)
	state := State{Violations: []Violation{result.Violation}}

	_, err := Acknowledge(state, result.Violation.ID)
	if err == nil {
		t.Fatalf("acknowledging an undisclosed violation must fail")
	}
	we := errors.AsWardenError(err)
	if we.Code != errors.CodeViolation {
		t.Fatalf("expected %s, got %s", errors.CodeViolation, we.Code)
	}
}

func TestAuditViolations(t *testing.T) {
	state := State{}
	for _, typ := range []Type{ScopeExceeded, ScopeExceeded, ApprovalBypassed} {
		result, _ := Detect(typ, Evidence{}, nil)
		response, _ := Respond(state, result)
		state = response.State
	}
	state, _ = Acknowledge(state, state.Violations[0].ID)

	audit := AuditViolations(state)
	if audit.Total != 3 {
		t.Fatalf("expected 3 logged violations, got %d", audit.Total)
	}
	if audit.ByType[ScopeExceeded] != 2 || audit.ByType[ApprovalBypassed] != 1 {
		t.Fatalf("unexpected type counts: %+v", audit.ByType)
	}
	if audit.BySeverity[SeverityCritical] != 1 {
		t.Fatalf("unexpected severity counts: %+v", audit.BySeverity)
	}
	if len(audit.Unresolved) != 2 {
		t.Fatalf("expected 2 unresolved, got %d", len(audit.Unresolved))
	}
}
