// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-ide/warden/pkg/errors"
	"github.com/atelier-ide/warden/pkg/policy"
)

// Op is a named transition operation on one axis. The set is sealed: each
// operation is validated by its own function, and illegal field combinations
// are unrepresentable rather than merely checked.
type Op interface {
	// Name identifies the operation in history records and logs.
	Name() string

	sealed()
}

// SetScope changes the scope axis.
type SetScope struct{ To policy.ScopeState }

// SetAction changes the action axis.
type SetAction struct{ To policy.ActionState }

// SetAgentic changes the agentic axis.
type SetAgentic struct{ To policy.AgenticState }

// SetCheckpoint changes the checkpoint axis.
type SetCheckpoint struct{ To policy.CheckpointState }

// SetBudget changes the budget axis. Driven by the budget enforcer only.
type SetBudget struct{ To policy.BudgetState }

// SetMode changes the autonomy mode. Always requires acknowledgment.
type SetMode struct{ To policy.AutonomyMode }

func (op SetScope) Name() string      { return fmt.Sprintf("scope->%s", op.To) }
func (op SetAction) Name() string     { return fmt.Sprintf("action->%s", op.To) }
func (op SetAgentic) Name() string    { return fmt.Sprintf("agentic->%s", op.To) }
func (op SetCheckpoint) Name() string { return fmt.Sprintf("checkpoint->%s", op.To) }
func (op SetBudget) Name() string     { return fmt.Sprintf("budget->%s", op.To) }
func (op SetMode) Name() string       { return fmt.Sprintf("mode->%s", op.To) }

func (SetScope) sealed()      {}
func (SetAction) sealed()     {}
func (SetAgentic) sealed()    {}
func (SetCheckpoint) sealed() {}
func (SetBudget) sealed()     {}
func (SetMode) sealed()       {}

// Outcome classifies the result of a transition attempt.
type Outcome string

const (
	Applied               Outcome = "applied"
	PendingAcknowledgment Outcome = "pending_acknowledgment"
	Rejected              Outcome = "rejected"
)

// PendingTransition is a validated transition waiting for explicit
// acknowledgment. The state does not change until Acknowledge is called:
// nothing that changes agent power takes effect silently.
type PendingTransition struct {
	ID        string
	Op        Op
	Trigger   string
	From      Axes
	To        Axes
	CreatedAt time.Time
}

// TransitionResult is the outcome of a transition attempt.
type TransitionResult struct {
	Outcome  Outcome
	NewState *SystemState
	Pending  *PendingTransition
	Reason   string
}

// Transition validates and applies a named operation. Structural invariants
// are checked first; if valid, the operation either applies immediately
// (appending to history) or returns a pending transition that must be
// acknowledged before the new state exists.
func Transition(s SystemState, op Op, trigger string) (TransitionResult, error) {
	to, reason, ok := applyOp(s.Axes, op)
	if !ok {
		return TransitionResult{Outcome: Rejected, Reason: reason}, nil
	}

	if requiresAcknowledgment(s.Axes, op) {
		pending := &PendingTransition{
			ID:        uuid.NewString(),
			Op:        op,
			Trigger:   trigger,
			From:      s.Axes,
			To:        to,
			CreatedAt: time.Now().UTC(),
		}
		return TransitionResult{Outcome: PendingAcknowledgment, Pending: pending}, nil
	}

	next := record(s, op, to, trigger, false)
	return TransitionResult{Outcome: Applied, NewState: &next}, nil
}

// Acknowledge applies a pending transition. The structural invariants are
// re-validated against the current state, which may have drifted since the
// transition was proposed.
func Acknowledge(s SystemState, pending PendingTransition) (SystemState, error) {
	if pending.Op == nil {
		return s, errors.New(errors.CodeInvalidInput, "pending transition has no operation", nil)
	}
	to, reason, ok := applyOp(s.Axes, pending.Op)
	if !ok {
		return s, errors.New(errors.CodeStructural,
			fmt.Sprintf("pending transition %s no longer valid: %s", pending.Op.Name(), reason), nil)
	}
	if to != pending.To {
		return s, errors.New(errors.CodeStructural,
			fmt.Sprintf("state drifted since transition %s was proposed", pending.Op.Name()), nil)
	}
	return record(s, pending.Op, to, pending.Trigger, true), nil
}

// applyOp validates a single operation against the current axes and returns
// the resulting axes. Each operation has its own validation.
func applyOp(from Axes, op Op) (Axes, string, bool) {
	to := from
	switch op := op.(type) {
	case SetScope:
		to.Scope = op.To
	case SetAction:
		if op.To == policy.ActionApply {
			if from.Scope != policy.ScopeScoped {
				return from, "entering action=apply requires scope=scoped", false
			}
			if from.Budget == policy.BudgetExceeded {
				return from, "entering action=apply is rejected while budget=exceeded", false
			}
		}
		to.Action = op.To
	case SetAgentic:
		if op.To == policy.Agentic && from.Checkpoint != policy.Checkpointed {
			return from, "entering agentic requires checkpoint=checkpointed", false
		}
		to.Agentic = op.To
	case SetCheckpoint:
		to.Checkpoint = op.To
	case SetBudget:
		to.Budget = op.To
	case SetMode:
		to.Mode = op.To
	default:
		return from, fmt.Sprintf("unknown transition operation %T", op), false
	}
	return to, "", true
}

// requiresAcknowledgment reports whether the operation must be explicitly
// acknowledged before it takes effect: any autonomy-mode change, any
// transition into agentic, and any read_only -> apply escalation.
func requiresAcknowledgment(from Axes, op Op) bool {
	switch op := op.(type) {
	case SetMode:
		return true
	case SetAgentic:
		return op.To == policy.Agentic && from.Agentic != policy.Agentic
	case SetAction:
		return from.Action == policy.ActionReadOnly && op.To == policy.ActionApply
	default:
		return false
	}
}

func record(s SystemState, op Op, to Axes, trigger string, acknowledged bool) SystemState {
	history := make([]StateTransition, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, StateTransition{
		ID:           uuid.NewString(),
		Op:           op.Name(),
		From:         s.Axes,
		To:           to,
		Trigger:      trigger,
		RequiredAck:  acknowledged,
		Acknowledged: acknowledged,
		Timestamp:    time.Now().UTC(),
	})
	return SystemState{Axes: to, History: history}
}
