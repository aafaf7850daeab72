// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/atelier-ide/warden/pkg/core"
	"github.com/atelier-ide/warden/pkg/policy"
	"github.com/atelier-ide/warden/pkg/telemetry"
)

// Machine wraps the pure decision functions with tracing, structured logging,
// metrics, and event emission. The underlying functions stay pure; Machine
// only adds observability around them.
type Machine struct {
	tracer  trace.Tracer
	emitter core.EventEmitter
	logger  *slog.Logger
	metrics *telemetry.GovernanceMetrics
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithEmitter sets the event emitter for transition and decision events.
func WithEmitter(emitter core.EventEmitter) MachineOption {
	return func(m *Machine) {
		if emitter != nil {
			m.emitter = emitter
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records decision counters on the governance meters.
func WithMetrics(metrics *telemetry.GovernanceMetrics) MachineOption {
	return func(m *Machine) {
		m.metrics = metrics
	}
}

// NewMachine creates an instrumented state machine.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		tracer:  otel.Tracer("warden/state"),
		emitter: core.NoopEventEmitter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CanPerform evaluates the action against the state, recording the decision.
func (m *Machine) CanPerform(ctx context.Context, s SystemState, action policy.ActionKind) (Decision, error) {
	ctx, span := m.tracer.Start(ctx, "State.CanPerform", trace.WithAttributes(
		attribute.String(telemetry.AttrActionKind, string(action)),
		attribute.String(telemetry.AttrAutonomyMode, string(s.Mode)),
	))
	defer span.End()

	decision, err := CanPerform(s, action)
	if err != nil {
		span.RecordError(err)
		return decision, err
	}
	span.SetAttributes(telemetry.DecisionAttributes(
		string(action), string(s.Mode), decision.Allowed, decision.Reason)...)
	m.metrics.RecordDecision(ctx, string(action), decision.Allowed)

	if !decision.Allowed {
		m.logger.Info("state.decision.denied",
			slog.String("action", string(action)),
			slog.String("reason", decision.Reason),
		)
	}
	m.emitter.Emit(ctx, core.NewEvent(core.EventDecision, runID(ctx), map[string]any{
		"action":  string(action),
		"allowed": decision.Allowed,
		"reason":  decision.Reason,
	}))
	return decision, nil
}

// Transition validates and applies a named operation, recording the outcome.
func (m *Machine) Transition(ctx context.Context, s SystemState, op Op, trigger string) (TransitionResult, error) {
	ctx, span := m.tracer.Start(ctx, "State.Transition", trace.WithAttributes(
		attribute.String(telemetry.AttrTransitionOp, op.Name()),
		attribute.String(telemetry.AttrTransitionTrigger, trigger),
	))
	defer span.End()

	result, err := Transition(s, op, trigger)
	if err != nil {
		span.RecordError(err)
		return result, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrTransitionOutcome, string(result.Outcome)))

	switch result.Outcome {
	case Rejected:
		m.logger.Warn("state.transition.rejected",
			slog.String("op", op.Name()),
			slog.String("reason", result.Reason),
		)
	case PendingAcknowledgment:
		m.logger.Info("state.transition.pending",
			slog.String("op", op.Name()),
			slog.String("pending_id", result.Pending.ID),
		)
	case Applied:
		m.logger.Info("state.transition.applied",
			slog.String("op", op.Name()),
			slog.String("trigger", trigger),
		)
	}
	m.emitter.Emit(ctx, core.NewEvent(core.EventTransition, runID(ctx), map[string]any{
		"op":      op.Name(),
		"outcome": string(result.Outcome),
		"trigger": trigger,
	}))
	return result, nil
}

// Acknowledge applies a pending transition, recording the result.
func (m *Machine) Acknowledge(ctx context.Context, s SystemState, pending PendingTransition) (SystemState, error) {
	ctx, span := m.tracer.Start(ctx, "State.Acknowledge", trace.WithAttributes(
		attribute.String(telemetry.AttrTransitionOp, pending.Op.Name()),
		attribute.String("pending.id", pending.ID),
	))
	defer span.End()

	next, err := Acknowledge(s, pending)
	if err != nil {
		span.RecordError(err)
		m.logger.Warn("state.acknowledge.failed",
			slog.String("op", pending.Op.Name()),
			slog.String("error", err.Error()),
		)
		return next, err
	}
	m.logger.Info("state.acknowledge.applied", slog.String("op", pending.Op.Name()))
	m.emitter.Emit(ctx, core.NewEvent(core.EventTransition, runID(ctx), map[string]any{
		"op":           pending.Op.Name(),
		"outcome":      "acknowledged",
		"trigger":      pending.Trigger,
		"acknowledged": true,
	}))
	return next, nil
}

func runID(ctx context.Context) string {
	id, _ := core.RunID(ctx)
	return id
}
