// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package violation detects governance anti-patterns and drives the mandatory
// halt, disclose, rollback-or-isolate response. Disclosure is unconditional:
// there is no path through this package that records a violation without
// surfacing it to the user.
package violation

import (
	"fmt"

	"github.com/atelier-ide/warden/pkg/errors"
)

// Type names one of the fixed governance anti-patterns.
type Type string

const (
	ScopeExceeded          Type = "scope_exceeded"
	ApprovalBypassed       Type = "approval_bypassed"
	AutonomyViolation      Type = "autonomy_violation"
	SilentEscalation       Type = "silent_escalation"
	ConfidenceRuleBreaking Type = "confidence_rule_breaking"
	PushThroughAmbiguity   Type = "push_through_ambiguity"
	HiddenContext          Type = "hidden_context"
	SpeedOverSafety        Type = "speed_over_safety"
	BudgetIgnored          Type = "budget_ignored"
	CheckpointSkipped      Type = "checkpoint_skipped"
	GoalDrift              Type = "goal_drift"
	UnauthorizedSource     Type = "unauthorized_source"
)

// AllTypes lists every anti-pattern, in declaration order.
var AllTypes = []Type{
	ScopeExceeded,
	ApprovalBypassed,
	AutonomyViolation,
	SilentEscalation,
	ConfidenceRuleBreaking,
	PushThroughAmbiguity,
	HiddenContext,
	SpeedOverSafety,
	BudgetIgnored,
	CheckpointSkipped,
	GoalDrift,
	UnauthorizedSource,
}

// Severity of a detected violation.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Definition is the fixed profile of one anti-pattern: what it is, how bad
// it is by default, and whether rollback can ever undo it.
type Definition struct {
	Type              Type
	Description       string
	BaseSeverity      Severity
	RollbackAvailable bool
	PreventionAdvice  string
}

// DefinitionFor returns the fixed definition for a type. An unknown type is
// a configuration error, not a violation of its own.
func DefinitionFor(t Type) (Definition, error) {
	switch t {
	case ScopeExceeded:
		return Definition{
			Type:              t,
			Description:       "agent modified resources outside the approved scope",
			BaseSeverity:      SeverityMajor,
			RollbackAvailable: true,
			PreventionAdvice:  "declare the full scope up front and request expansion before touching new paths",
		}, nil
	case ApprovalBypassed:
		return Definition{
			Type:              t,
			Description:       "an action requiring user approval executed without it",
			BaseSeverity:      SeverityCritical,
			RollbackAvailable: true,
			PreventionAdvice:  "route every approval-gated action through the permission check before execution",
		}, nil
	case AutonomyViolation:
		return Definition{
			Type:              t,
			Description:       "agent performed an action outside its autonomy contract",
			BaseSeverity:      SeverityCritical,
			RollbackAvailable: true,
			PreventionAdvice:  "check the contract whitelist before every action, not after",
		}, nil
	case SilentEscalation:
		return Definition{
			Type:              t,
			Description:       "agent power increased without an acknowledged transition",
			BaseSeverity:      SeverityCritical,
			RollbackAvailable: true,
			PreventionAdvice:  "all mode and apply transitions go through the two-phase acknowledgment protocol",
		}, nil
	case ConfidenceRuleBreaking:
		return Definition{
			Type:              t,
			Description:       "agent overrode a governance rule because it was confident the rule did not apply",
			BaseSeverity:      SeverityCritical,
			RollbackAvailable: true,
			PreventionAdvice:  "confidence never waives a rule; request an explicit exception instead",
		}, nil
	case PushThroughAmbiguity:
		return Definition{
			Type:              t,
			Description:       "agent kept executing after repeated failures or unresolved ambiguity",
			BaseSeverity:      SeverityMajor,
			RollbackAvailable: true,
			PreventionAdvice:  "halt and ask for clarification after two consecutive failed steps",
		}, nil
	case HiddenContext:
		return Definition{
			Type:              t,
			Description:       "agent used context sources it never disclosed",
			BaseSeverity:      SeverityMajor,
			RollbackAvailable: false,
			PreventionAdvice:  "register every source through the context governor before use",
		}, nil
	case SpeedOverSafety:
		return Definition{
			Type:              t,
			Description:       "agent skipped safety checks to finish faster",
			BaseSeverity:      SeverityMajor,
			RollbackAvailable: false,
			PreventionAdvice:  "pre-step checks run before every step; there is no fast path",
		}, nil
	case BudgetIgnored:
		return Definition{
			Type:              t,
			Description:       "agent continued after a budget limit was exceeded",
			BaseSeverity:      SeverityMajor,
			RollbackAvailable: true,
			PreventionAdvice:  "treat an exceeded limit as a hard stop and surface the safe options",
		}, nil
	case CheckpointSkipped:
		return Definition{
			Type:              t,
			Description:       "agent entered agentic operation without a checkpoint",
			BaseSeverity:      SeverityMajor,
			RollbackAvailable: true,
			PreventionAdvice:  "create a checkpoint before requesting the agentic transition",
		}, nil
	case GoalDrift:
		return Definition{
			Type:              t,
			Description:       "agent work diverged from the declared goal",
			BaseSeverity:      SeverityMinor,
			RollbackAvailable: true,
			PreventionAdvice:  "re-validate the goal before each step and halt when it no longer holds",
		}, nil
	case UnauthorizedSource:
		return Definition{
			Type:              t,
			Description:       "context included a source that was never authorized",
			BaseSeverity:      SeverityMinor,
			RollbackAvailable: true,
			PreventionAdvice:  "auto-included sources require explicit user approval before use",
		}, nil
	}
	return Definition{}, errors.New(errors.CodeConfig,
		fmt.Sprintf("unknown violation type %q", t), nil)
}

// AlwaysCritical reports whether the type's severity is hard-coded critical
// regardless of evidence or affected resources.
func AlwaysCritical(t Type) bool {
	switch t {
	case AutonomyViolation, ApprovalBypassed, SilentEscalation, ConfidenceRuleBreaking:
		return true
	}
	return false
}
