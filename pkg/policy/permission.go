// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"

	"github.com/atelier-ide/warden/pkg/errors"
)

// StateConstraint is an optional constraint on the five state axes. A nil
// field means the axis is unconstrained.
type StateConstraint struct {
	Scope      *ScopeState
	Action     *ActionState
	Agentic    *AgenticState
	Checkpoint *CheckpointState
	Budget     *BudgetState
}

// Fields returns the constrained axes as (name, value) pairs, for building
// denial reasons.
func (c StateConstraint) Fields() []ConstraintField {
	var fields []ConstraintField
	if c.Scope != nil {
		fields = append(fields, ConstraintField{Name: "scope", Value: string(*c.Scope)})
	}
	if c.Action != nil {
		fields = append(fields, ConstraintField{Name: "action", Value: string(*c.Action)})
	}
	if c.Agentic != nil {
		fields = append(fields, ConstraintField{Name: "agentic", Value: string(*c.Agentic)})
	}
	if c.Checkpoint != nil {
		fields = append(fields, ConstraintField{Name: "checkpoint", Value: string(*c.Checkpoint)})
	}
	if c.Budget != nil {
		fields = append(fields, ConstraintField{Name: "budget", Value: string(*c.Budget)})
	}
	return fields
}

// ConstraintField is a single constrained axis.
type ConstraintField struct {
	Name  string
	Value string
}

// ActionPermission is the per-action rule: what the state must look like for
// the action to be structurally permitted.
type ActionPermission struct {
	Action            ActionKind
	Required          StateConstraint
	Forbidden         StateConstraint
	RequiredApprovals []Approver
	Risk              RiskLevel
}

func scopePtr(s ScopeState) *ScopeState                { return &s }
func actionPtr(s ActionState) *ActionState             { return &s }
func agenticPtr(s AgenticState) *AgenticState          { return &s }
func checkpointPtr(s CheckpointState) *CheckpointState { return &s }
func budgetPtr(s BudgetState) *BudgetState             { return &s }

// PermissionFor returns the permission rule for the action kind. An unknown
// kind is a configuration error, fatal at startup.
func PermissionFor(action ActionKind) (ActionPermission, error) {
	switch action {
	case ActionReadFile:
		return ActionPermission{
			Action: ActionReadFile,
			Risk:   RiskLow,
		}, nil
	case ActionSearchCode:
		return ActionPermission{
			Action: ActionSearchCode,
			Risk:   RiskLow,
		}, nil
	case ActionIncludeContext:
		return ActionPermission{
			Action: ActionIncludeContext,
			Risk:   RiskLow,
		}, nil
	case ActionProposeChange:
		return ActionPermission{
			Action:   ActionProposeChange,
			Required: StateConstraint{Scope: scopePtr(ScopeScoped)},
			Risk:     RiskMedium,
		}, nil
	case ActionApplyChange:
		return ActionPermission{
			Action: ActionApplyChange,
			Required: StateConstraint{
				Scope:  scopePtr(ScopeScoped),
				Action: actionPtr(ActionApply),
			},
			Forbidden:         StateConstraint{Budget: budgetPtr(BudgetExceeded)},
			RequiredApprovals: []Approver{ApproverUser},
			Risk:              RiskHigh,
		}, nil
	case ActionRunCommand:
		return ActionPermission{
			Action:            ActionRunCommand,
			Required:          StateConstraint{Scope: scopePtr(ScopeScoped)},
			Forbidden:         StateConstraint{Budget: budgetPtr(BudgetExceeded)},
			RequiredApprovals: []Approver{ApproverUser},
			Risk:              RiskHigh,
		}, nil
	case ActionExpandScope:
		return ActionPermission{
			Action:            ActionExpandScope,
			Required:          StateConstraint{Scope: scopePtr(ScopeScoped)},
			RequiredApprovals: []Approver{ApproverUser},
			Risk:              RiskMedium,
		}, nil
	case ActionCreateCheckpoint:
		return ActionPermission{
			Action: ActionCreateCheckpoint,
			Risk:   RiskLow,
		}, nil
	case ActionSpawnAgent:
		return ActionPermission{
			Action: ActionSpawnAgent,
			Required: StateConstraint{
				Agentic:    agenticPtr(Agentic),
				Checkpoint: checkpointPtr(Checkpointed),
			},
			RequiredApprovals: []Approver{ApproverUser},
			Risk:              RiskCritical,
		}, nil
	case ActionChainActions:
		return ActionPermission{
			Action: ActionChainActions,
			Required: StateConstraint{
				Agentic:    agenticPtr(Agentic),
				Checkpoint: checkpointPtr(Checkpointed),
			},
			Risk: RiskHigh,
		}, nil
	default:
		return ActionPermission{}, errors.New(errors.CodeConfig,
			fmt.Sprintf("unknown action kind %q", action), nil)
	}
}

// MustPermissionFor is PermissionFor for the closed action set; it panics on
// an unknown kind. Intended for startup-time table validation.
func MustPermissionFor(action ActionKind) ActionPermission {
	perm, err := PermissionFor(action)
	if err != nil {
		panic(err)
	}
	return perm
}
