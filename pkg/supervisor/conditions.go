// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import "fmt"

// ConditionKind names a registered halt condition.
type ConditionKind string

const (
	CondMaxSteps          ConditionKind = "max_steps_reached"
	CondUncertainty       ConditionKind = "uncertainty_above_threshold"
	CondGoalInvalidated   ConditionKind = "goal_invalidated"
	CondScopeChanged      ConditionKind = "scope_changed_without_permission"
	CondBudgetExceeded    ConditionKind = "budget_exceeded"
	CondDependenciesUnmet ConditionKind = "dependencies_unmet"
	CondBudgetConstrained ConditionKind = "budget_constrained"
)

// ConditionSeverity controls what a matching condition does: halt-severity
// conditions stop the run, warning-severity conditions only annotate.
type ConditionSeverity string

const (
	SeverityHalt    ConditionSeverity = "halt"
	SeverityWarning ConditionSeverity = "warning"
)

// HaltCondition is one registered pre-step check.
type HaltCondition struct {
	Kind     ConditionKind
	Severity ConditionSeverity
	Check    func(e Execution, checks PreChecks) (bool, string)
}

// DefaultHaltConditions returns the standard condition set. Callers may
// append custom conditions; they cannot remove the defaults.
func DefaultHaltConditions() []HaltCondition {
	return []HaltCondition{
		{
			Kind:     CondMaxSteps,
			Severity: SeverityHalt,
			Check: func(e Execution, _ PreChecks) (bool, string) {
				if CompletedSteps(e) >= e.Config.MaxSteps {
					return true, fmt.Sprintf("max steps reached (%d)", e.Config.MaxSteps)
				}
				return false, ""
			},
		},
		{
			Kind:     CondUncertainty,
			Severity: SeverityHalt,
			Check: func(e Execution, checks PreChecks) (bool, string) {
				if checks.Uncertainty >= e.Config.UncertaintyThreshold {
					return true, fmt.Sprintf("uncertainty %.0f above threshold %.0f",
						checks.Uncertainty, e.Config.UncertaintyThreshold)
				}
				return false, ""
			},
		},
		{
			Kind:     CondGoalInvalidated,
			Severity: SeverityHalt,
			Check: func(_ Execution, checks PreChecks) (bool, string) {
				if !checks.GoalStillValid {
					return true, "declared goal is no longer valid"
				}
				return false, ""
			},
		},
		{
			Kind:     CondScopeChanged,
			Severity: SeverityHalt,
			Check: func(_ Execution, checks PreChecks) (bool, string) {
				if !checks.ScopeUnchanged {
					return true, "scope changed without permission"
				}
				return false, ""
			},
		},
		{
			Kind:     CondBudgetExceeded,
			Severity: SeverityHalt,
			Check: func(_ Execution, checks PreChecks) (bool, string) {
				if !checks.BudgetRemaining {
					return true, "budget exhausted"
				}
				return false, ""
			},
		},
		{
			Kind:     CondDependenciesUnmet,
			Severity: SeverityHalt,
			Check: func(_ Execution, checks PreChecks) (bool, string) {
				if !checks.DependenciesMet {
					return true, "step dependencies are unmet"
				}
				return false, ""
			},
		},
		{
			Kind:     CondBudgetConstrained,
			Severity: SeverityWarning,
			Check: func(_ Execution, checks PreChecks) (bool, string) {
				if checks.BudgetConstrained {
					return true, "budget is in the critical band"
				}
				return false, ""
			},
		},
	}
}

// Evaluation is the decision for one prospective step.
type Evaluation struct {
	CanProceed  bool
	HaltReasons []string
	Warnings    []string
	Triggered   []ConditionKind
	PushThrough bool
}

// EvaluateStep runs every registered condition against the execution and the
// freshly computed pre-checks. A single halt-severity match stops the run.
// Independently of the registered conditions, two consecutive failed steps
// force a halt: repeated failure is never treated as "try once more".
func EvaluateStep(e Execution, checks PreChecks, conditions []HaltCondition) Evaluation {
	eval := Evaluation{CanProceed: true}

	if lastTwoCompletedFailed(e) {
		eval.CanProceed = false
		eval.PushThrough = true
		eval.HaltReasons = append(eval.HaltReasons,
			"two consecutive steps failed; halting instead of pushing through")
	}

	for _, cond := range conditions {
		matched, reason := cond.Check(e, checks)
		if !matched {
			continue
		}
		eval.Triggered = append(eval.Triggered, cond.Kind)
		switch cond.Severity {
		case SeverityHalt:
			eval.CanProceed = false
			eval.HaltReasons = append(eval.HaltReasons, reason)
		case SeverityWarning:
			eval.Warnings = append(eval.Warnings, reason)
		}
	}
	return eval
}
