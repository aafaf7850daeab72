// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package violation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-ide/warden/pkg/errors"
)

// Resource-count and path heuristics that escalate a minor violation.
const escalationResourceCount = 5

// Evidence records the expected versus actual behavior that triggered the
// detection.
type Evidence struct {
	Expected string
	Actual   string
}

// ActionRecord is a timestamped response action. The zero value means the
// action has not been performed; Performed is never set without At.
type ActionRecord struct {
	Performed bool
	At        time.Time
}

func performedNow() ActionRecord {
	return ActionRecord{Performed: true, At: time.Now().UTC()}
}

// Violation is one detected anti-pattern instance with its mandatory
// response bookkeeping.
type Violation struct {
	ID                 string
	Type               Type
	Severity           Severity
	Evidence           Evidence
	AffectedResources  []string
	DetectedAt         time.Time
	Halted             ActionRecord
	Disclosed          ActionRecord
	RollbackPerformed  ActionRecord
	IsolationPerformed ActionRecord
	Acknowledged       ActionRecord
}

// Resolved reports whether the violation has been acknowledged by the user.
func (v Violation) Resolved() bool {
	return v.Acknowledged.Performed
}

// DetectionResult is the decision for one detected violation. Disclosure is
// not a field: MustDisclose always returns true, so no caller can construct
// a result that skips it.
type DetectionResult struct {
	Violation    Violation
	MustHalt     bool
	MustRollback bool
}

// MustDisclose is unconditional for every violation.
func (DetectionResult) MustDisclose() bool { return true }

// Detect looks up the anti-pattern definition, computes the effective
// severity, and decides the mandatory response. Pure: no log mutation.
func Detect(t Type, evidence Evidence, resources []string) (DetectionResult, error) {
	def, err := DefinitionFor(t)
	if err != nil {
		return DetectionResult{}, err
	}

	severity := def.BaseSeverity
	if AlwaysCritical(t) {
		severity = SeverityCritical
	} else if severity == SeverityMinor && escalates(resources) {
		severity = SeverityMajor
	}

	v := Violation{
		ID:                uuid.NewString(),
		Type:              t,
		Severity:          severity,
		Evidence:          evidence,
		AffectedResources: append([]string(nil), resources...),
		DetectedAt:        time.Now().UTC(),
	}

	return DetectionResult{
		Violation:    v,
		MustHalt:     severity != SeverityMinor,
		MustRollback: severity == SeverityCritical && def.RollbackAvailable,
	}, nil
}

// escalates reports whether the affected resources push a minor violation to
// major: many resources, or anything touching configuration or secrets.
func escalates(resources []string) bool {
	if len(resources) > escalationResourceCount {
		return true
	}
	for _, r := range resources {
		lower := strings.ToLower(r)
		if strings.Contains(lower, "config") || strings.Contains(lower, "env") {
			return true
		}
	}
	return false
}

// ResponseAction is one executed step of the mandatory response sequence.
type ResponseAction struct {
	Kind string // halt, disclose, rollback, isolate
	At   time.Time
}

// State is the violation log, owned by the handler and shared read-only with
// every other component.
type State struct {
	Violations []Violation
}

// Response is the outcome of responding to a violation: the updated log, the
// actions taken in order, and what to tell the user.
type Response struct {
	State            State
	Violation        Violation
	Actions          []ResponseAction
	UserMessage      string
	PreventionAdvice string
}

// Respond executes the mandatory sequence in fixed order: halt when severity
// is not minor, disclose always, then rollback or isolate for critical
// severity only. The returned state carries the violation with each action
// recorded as a timestamped entry.
func Respond(state State, result DetectionResult) (Response, error) {
	def, err := DefinitionFor(result.Violation.Type)
	if err != nil {
		return Response{}, err
	}

	v := result.Violation
	var actions []ResponseAction

	if v.Severity != SeverityMinor {
		v.Halted = performedNow()
		actions = append(actions, ResponseAction{Kind: "halt", At: v.Halted.At})
	}

	v.Disclosed = performedNow()
	actions = append(actions, ResponseAction{Kind: "disclose", At: v.Disclosed.At})

	if v.Severity == SeverityCritical {
		if def.RollbackAvailable {
			v.RollbackPerformed = performedNow()
			actions = append(actions, ResponseAction{Kind: "rollback", At: v.RollbackPerformed.At})
		} else {
			v.IsolationPerformed = performedNow()
			actions = append(actions, ResponseAction{Kind: "isolate", At: v.IsolationPerformed.At})
		}
	}

	next := State{Violations: append(append([]Violation(nil), state.Violations...), v)}

	return Response{
		State:            next,
		Violation:        v,
		Actions:          actions,
		UserMessage:      userMessage(v, def),
		PreventionAdvice: def.PreventionAdvice,
	}, nil
}

// Acknowledge marks a logged violation as acknowledged by the user. Only a
// disclosed violation can be acknowledged; acknowledgment never substitutes
// for disclosure.
func Acknowledge(state State, id string) (State, error) {
	for i, v := range state.Violations {
		if v.ID != id {
			continue
		}
		if v.Acknowledged.Performed {
			return state, nil
		}
		if !v.Disclosed.Performed {
			return state, errors.New(errors.CodeViolation,
				"violation has not been disclosed; respond before acknowledging", nil)
		}
		next := State{Violations: append([]Violation(nil), state.Violations...)}
		next.Violations[i].Acknowledged = performedNow()
		return next, nil
	}
	return state, errors.New(errors.CodeInvalidInput,
		fmt.Sprintf("no violation with id %s", id), nil)
}

// Audit summarizes the violation log.
type Audit struct {
	Total      int
	ByType     map[Type]int
	BySeverity map[Severity]int
	Unresolved []Violation
	Log        []Violation
}

// AuditViolations builds a read-only summary of the log.
func AuditViolations(state State) Audit {
	audit := Audit{
		ByType:     make(map[Type]int),
		BySeverity: make(map[Severity]int),
		Log:        append([]Violation(nil), state.Violations...),
	}
	for _, v := range state.Violations {
		audit.Total++
		audit.ByType[v.Type]++
		audit.BySeverity[v.Severity]++
		if !v.Resolved() {
			audit.Unresolved = append(audit.Unresolved, v)
		}
	}
	return audit
}

func userMessage(v Violation, def Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s violation (%s): %s.", v.Severity, v.Type, def.Description)
	if v.Evidence.Expected != "" || v.Evidence.Actual != "" {
		fmt.Fprintf(&b, " Expected: %s. Actual: %s.", v.Evidence.Expected, v.Evidence.Actual)
	}
	if len(v.AffectedResources) > 0 {
		fmt.Fprintf(&b, " Affected: %s.", strings.Join(v.AffectedResources, ", "))
	}
	switch {
	case v.RollbackPerformed.Performed:
		b.WriteString(" Changes were rolled back.")
	case v.IsolationPerformed.Performed:
		b.WriteString(" Affected resources were isolated; the damage cannot be rolled back.")
	case v.Halted.Performed:
		b.WriteString(" Execution was halted.")
	}
	return b.String()
}
