// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy defines the static governance tables: per-autonomy-mode
// contracts and per-action permission rules. It is pure data consumed by the
// state machine and the execution supervisor; nothing here mutates state.
//
// Lookups are exhaustive switches over closed sum types. A missing case is a
// compile-time hole, not a runtime nil. The only failure mode is an unknown
// action kind, which is a fatal configuration error.
package policy

// AutonomyMode governs how much an agent may do without per-action approval.
type AutonomyMode string

const (
	ModeDirected      AutonomyMode = "directed"
	ModeCollaborative AutonomyMode = "collaborative"
	ModeAgentic       AutonomyMode = "agentic"
)

// ScopeState is the scope axis of the operational state.
type ScopeState string

const (
	ScopeUnscoped ScopeState = "unscoped"
	ScopeScoped   ScopeState = "scoped"
)

// ActionState is the action axis of the operational state.
type ActionState string

const (
	ActionReadOnly ActionState = "read_only"
	ActionPropose  ActionState = "propose"
	ActionApply    ActionState = "apply"
)

// AgenticState is the agentic axis of the operational state.
type AgenticState string

const (
	NonAgentic AgenticState = "non_agentic"
	Agentic    AgenticState = "agentic"
)

// CheckpointState is the checkpoint axis of the operational state.
type CheckpointState string

const (
	Uncheckpointed CheckpointState = "uncheckpointed"
	Checkpointed   CheckpointState = "checkpointed"
)

// BudgetState is the budget axis of the operational state.
type BudgetState string

const (
	BudgetSafe        BudgetState = "safe"
	BudgetConstrained BudgetState = "constrained"
	BudgetExceeded    BudgetState = "exceeded"
)

// ActionKind identifies a governed agent action.
type ActionKind string

const (
	ActionReadFile         ActionKind = "read_file"
	ActionSearchCode       ActionKind = "search_code"
	ActionIncludeContext   ActionKind = "include_context"
	ActionProposeChange    ActionKind = "propose_change"
	ActionApplyChange      ActionKind = "apply_change"
	ActionRunCommand       ActionKind = "run_command"
	ActionExpandScope      ActionKind = "expand_scope"
	ActionCreateCheckpoint ActionKind = "create_checkpoint"
	ActionSpawnAgent       ActionKind = "spawn_agent"
	ActionChainActions     ActionKind = "chain_actions"
)

// AllActionKinds lists every governed action kind.
var AllActionKinds = []ActionKind{
	ActionReadFile,
	ActionSearchCode,
	ActionIncludeContext,
	ActionProposeChange,
	ActionApplyChange,
	ActionRunCommand,
	ActionExpandScope,
	ActionCreateCheckpoint,
	ActionSpawnAgent,
	ActionChainActions,
}

// RiskLevel classifies the blast radius of an action.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AboveLow reports whether the risk level is above low. Actions above low risk
// are blocked outright while the budget axis is exceeded.
func (r RiskLevel) AboveLow() bool {
	return r != RiskLow
}

// Approver identifies who may satisfy a required approval.
type Approver string

const (
	ApproverUser   Approver = "user"
	ApproverSystem Approver = "system"
)

// AutonomyContract is the immutable per-mode contract: what an agent in this
// mode may do, what it must disclose, and what it must ask for.
type AutonomyContract struct {
	Mode                 AutonomyMode
	AllowedScopes        []ScopeState
	AllowedActions       []ActionKind
	MandatoryDisclosures []string
	MandatoryApprovals   []ActionKind
	RollbackGuarantee    string

	CanExpandScope            bool
	CanChainActions           bool
	RequiresPerActionApproval bool
	HaltOnUncertainty         bool
}

// Allows reports whether the contract whitelists the action kind.
func (c AutonomyContract) Allows(action ActionKind) bool {
	for _, a := range c.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// RequiresApproval reports whether the contract mandates explicit approval
// for the action kind, beyond the per-action-approval baseline.
func (c AutonomyContract) RequiresApproval(action ActionKind) bool {
	if c.RequiresPerActionApproval {
		return true
	}
	for _, a := range c.MandatoryApprovals {
		if a == action {
			return true
		}
	}
	return false
}

// ContractFor returns the immutable contract for the autonomy mode.
func ContractFor(mode AutonomyMode) AutonomyContract {
	switch mode {
	case ModeDirected:
		return AutonomyContract{
			Mode:          ModeDirected,
			AllowedScopes: []ScopeState{ScopeUnscoped, ScopeScoped},
			AllowedActions: []ActionKind{
				ActionReadFile,
				ActionSearchCode,
				ActionIncludeContext,
				ActionProposeChange,
				ActionCreateCheckpoint,
			},
			MandatoryDisclosures: []string{
				"every action taken",
				"every context source consulted",
			},
			MandatoryApprovals: []ActionKind{
				ActionProposeChange,
				ActionIncludeContext,
			},
			RollbackGuarantee:         "no changes are applied; nothing to roll back",
			CanExpandScope:            false,
			CanChainActions:           false,
			RequiresPerActionApproval: true,
			HaltOnUncertainty:         true,
		}
	case ModeCollaborative:
		return AutonomyContract{
			Mode:          ModeCollaborative,
			AllowedScopes: []ScopeState{ScopeScoped},
			AllowedActions: []ActionKind{
				ActionReadFile,
				ActionSearchCode,
				ActionIncludeContext,
				ActionProposeChange,
				ActionApplyChange,
				ActionRunCommand,
				ActionExpandScope,
				ActionCreateCheckpoint,
			},
			MandatoryDisclosures: []string{
				"every applied change",
				"every command run",
				"every scope expansion",
			},
			MandatoryApprovals: []ActionKind{
				ActionApplyChange,
				ActionRunCommand,
				ActionExpandScope,
			},
			RollbackGuarantee:         "applied changes are checkpointed and reversible",
			CanExpandScope:            true,
			CanChainActions:           false,
			RequiresPerActionApproval: false,
			HaltOnUncertainty:         true,
		}
	case ModeAgentic:
		return AutonomyContract{
			Mode:           ModeAgentic,
			AllowedScopes:  []ScopeState{ScopeScoped},
			AllowedActions: AllActionKinds,
			MandatoryDisclosures: []string{
				"goal and stopping conditions before the run",
				"every applied change",
				"every halt and its reason",
			},
			MandatoryApprovals: []ActionKind{
				ActionExpandScope,
				ActionSpawnAgent,
			},
			RollbackGuarantee:         "checkpoint precedes the run; full rollback to checkpoint",
			CanExpandScope:            true,
			CanChainActions:           true,
			RequiresPerActionApproval: false,
			HaltOnUncertainty:         true,
		}
	default:
		// Unreachable for the closed mode set. An unknown mode gets the most
		// restrictive contract, never one that permits applying work.
		return ContractFor(ModeDirected)
	}
}
