// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Warden governance telemetry.
const (
	// Decision attributes
	AttrActionKind      = "warden.action.kind"
	AttrDecisionAllowed = "warden.decision.allowed"
	AttrDecisionReason  = "warden.decision.reason"
	AttrAutonomyMode    = "warden.autonomy.mode"

	// Transition attributes
	AttrTransitionOp      = "warden.transition.op"
	AttrTransitionOutcome = "warden.transition.outcome"
	AttrTransitionTrigger = "warden.transition.trigger"

	// Budget attributes
	AttrBudgetMetric = "warden.budget.metric"
	AttrBudgetStatus = "warden.budget.status"

	// Violation attributes
	AttrViolationType     = "warden.violation.type"
	AttrViolationSeverity = "warden.violation.severity"
	AttrHaltCause         = "warden.halt.cause"

	// Execution attributes
	AttrExecutionID     = "warden.execution.id"
	AttrExecutionStatus = "warden.execution.status"
	AttrStepIndex       = "warden.step.index"
	AttrStepSuccess     = "warden.step.success"

	// Context attributes
	AttrSourceOrigin = "warden.source.origin"
	AttrSourceType   = "warden.source.type"
)

// DecisionAttributes returns attributes for an action decision span.
func DecisionAttributes(action, mode string, allowed bool, reason string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrActionKind, action),
		attribute.String(AttrAutonomyMode, mode),
		attribute.Bool(AttrDecisionAllowed, allowed),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String(AttrDecisionReason, reason))
	}
	return attrs
}

// ViolationAttributes returns attributes for a violation span.
func ViolationAttributes(violationType, severity string, resourceCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrViolationType, violationType),
		attribute.String(AttrViolationSeverity, severity),
		attribute.Int("warden.violation.resources", resourceCount),
	}
}

// StepAttributes returns attributes for a supervised step span.
func StepAttributes(executionID string, index int, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrExecutionID, executionID),
		attribute.Int(AttrStepIndex, index),
		attribute.Bool(AttrStepSuccess, success),
	}
}

// BudgetAttributes returns attributes for a budget check span.
func BudgetAttributes(metricName, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrBudgetMetric, metricName),
		attribute.String(AttrBudgetStatus, status),
	}
}
