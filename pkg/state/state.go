// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package state implements the operational state machine: the five-dimensional
// system state and the validated transitions that are the only way to change
// it. Decision functions are pure; callers serialize updates to a given
// execution's state.
package state

import (
	"fmt"
	"time"

	"github.com/atelier-ide/warden/pkg/policy"
)

// Axes is the five-dimensional operational state plus the autonomy mode.
type Axes struct {
	Scope      policy.ScopeState
	Action     policy.ActionState
	Agentic    policy.AgenticState
	Checkpoint policy.CheckpointState
	Budget     policy.BudgetState
	Mode       policy.AutonomyMode
}

// SystemState is the full operational state. It is only ever produced by a
// validated transition; no field is mutated independently.
type SystemState struct {
	Axes
	History []StateTransition
}

// Initial returns the starting state for the given autonomy mode: unscoped,
// read-only, non-agentic, uncheckpointed, budget safe.
func Initial(mode policy.AutonomyMode) SystemState {
	return SystemState{
		Axes: Axes{
			Scope:      policy.ScopeUnscoped,
			Action:     policy.ActionReadOnly,
			Agentic:    policy.NonAgentic,
			Checkpoint: policy.Uncheckpointed,
			Budget:     policy.BudgetSafe,
			Mode:       mode,
		},
	}
}

// StateTransition is one applied transition in the append-only history.
type StateTransition struct {
	ID           string
	Op           string
	From         Axes
	To           Axes
	Trigger      string
	RequiredAck  bool
	Acknowledged bool
	Timestamp    time.Time
}

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed           bool
	Reason            string
	RequiredApprovals []policy.Approver
	Risk              policy.RiskLevel
}

// CanPerform checks whether the action is structurally permitted in the given
// state. All checks must pass: the mode contract whitelists the action, every
// required axis matches, no forbidden axis matches, and the budget axis is not
// exceeded for above-low-risk actions. An unknown action kind is a
// configuration error, not a denial.
func CanPerform(s SystemState, action policy.ActionKind) (Decision, error) {
	perm, err := policy.PermissionFor(action)
	if err != nil {
		return Decision{}, err
	}

	contract := policy.ContractFor(s.Mode)
	if !contract.Allows(action) {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("action %s is not permitted in %s mode", action, s.Mode),
			Risk:    perm.Risk,
		}, nil
	}

	if reason, ok := checkRequired(s.Axes, perm.Required); !ok {
		return Decision{Allowed: false, Reason: reason, Risk: perm.Risk}, nil
	}
	if reason, ok := checkForbidden(s.Axes, perm.Forbidden); !ok {
		return Decision{Allowed: false, Reason: reason, Risk: perm.Risk}, nil
	}

	if s.Budget == policy.BudgetExceeded && perm.Risk.AboveLow() {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("budget is exceeded; %s risk action %s is blocked", perm.Risk, action),
			Risk:    perm.Risk,
		}, nil
	}

	approvals := append([]policy.Approver(nil), perm.RequiredApprovals...)
	if contract.RequiresApproval(action) && len(approvals) == 0 {
		approvals = []policy.Approver{policy.ApproverUser}
	}

	return Decision{Allowed: true, RequiredApprovals: approvals, Risk: perm.Risk}, nil
}

func checkRequired(axes Axes, c policy.StateConstraint) (string, bool) {
	if c.Scope != nil && axes.Scope != *c.Scope {
		return fmt.Sprintf("requires scope=%s, current scope=%s", *c.Scope, axes.Scope), false
	}
	if c.Action != nil && axes.Action != *c.Action {
		return fmt.Sprintf("requires action=%s, current action=%s", *c.Action, axes.Action), false
	}
	if c.Agentic != nil && axes.Agentic != *c.Agentic {
		return fmt.Sprintf("requires agentic=%s, current agentic=%s", *c.Agentic, axes.Agentic), false
	}
	if c.Checkpoint != nil && axes.Checkpoint != *c.Checkpoint {
		return fmt.Sprintf("requires checkpoint=%s, current checkpoint=%s", *c.Checkpoint, axes.Checkpoint), false
	}
	if c.Budget != nil && axes.Budget != *c.Budget {
		return fmt.Sprintf("requires budget=%s, current budget=%s", *c.Budget, axes.Budget), false
	}
	return "", true
}

func checkForbidden(axes Axes, c policy.StateConstraint) (string, bool) {
	if c.Scope != nil && axes.Scope == *c.Scope {
		return fmt.Sprintf("forbidden while scope=%s", axes.Scope), false
	}
	if c.Action != nil && axes.Action == *c.Action {
		return fmt.Sprintf("forbidden while action=%s", axes.Action), false
	}
	if c.Agentic != nil && axes.Agentic == *c.Agentic {
		return fmt.Sprintf("forbidden while agentic=%s", axes.Agentic), false
	}
	if c.Checkpoint != nil && axes.Checkpoint == *c.Checkpoint {
		return fmt.Sprintf("forbidden while checkpoint=%s", axes.Checkpoint), false
	}
	if c.Budget != nil && axes.Budget == *c.Budget {
		return fmt.Sprintf("forbidden while budget=%s", axes.Budget), false
	}
	return "", true
}
