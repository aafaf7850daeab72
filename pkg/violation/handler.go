// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package violation

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/atelier-ide/warden/pkg/core"
	"github.com/atelier-ide/warden/pkg/telemetry"
)

// Handler wraps the pure detection and response functions with tracing,
// logging, metrics, event emission, and the optional audit store. It is the
// only component that writes the violation log.
type Handler struct {
	tracer  trace.Tracer
	emitter core.EventEmitter
	logger  *slog.Logger
	store   AuditStore
	metrics *telemetry.GovernanceMetrics
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithEmitter sets the event emitter for violation and disclosure events.
func WithEmitter(emitter core.EventEmitter) HandlerOption {
	return func(h *Handler) {
		if emitter != nil {
			h.emitter = emitter
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithAuditStore persists every responded violation.
func WithAuditStore(store AuditStore) HandlerOption {
	return func(h *Handler) {
		if store != nil {
			h.store = store
		}
	}
}

// WithMetrics records violation and halt counters on the governance meters.
func WithMetrics(metrics *telemetry.GovernanceMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// NewHandler creates an instrumented violation handler.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		tracer:  otel.Tracer("warden/violation"),
		emitter: core.NoopEventEmitter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Detect classifies an anti-pattern instance, recording the detection.
func (h *Handler) Detect(ctx context.Context, t Type, evidence Evidence, resources []string) (DetectionResult, error) {
	ctx, span := h.tracer.Start(ctx, "Violation.Detect", trace.WithAttributes(
		attribute.String(telemetry.AttrViolationType, string(t)),
	))
	defer span.End()

	result, err := Detect(t, evidence, resources)
	if err != nil {
		span.RecordError(err)
		return result, err
	}
	span.SetAttributes(telemetry.ViolationAttributes(
		string(t), string(result.Violation.Severity), len(resources))...)
	h.metrics.RecordViolation(ctx, string(t), string(result.Violation.Severity))

	h.logger.Warn("violation.detected",
		slog.String("type", string(t)),
		slog.String("severity", string(result.Violation.Severity)),
		slog.Int("resources", len(resources)),
	)
	h.emitter.Emit(ctx, core.NewEvent(core.EventViolation, runID(ctx), map[string]any{
		"type":          string(t),
		"severity":      string(result.Violation.Severity),
		"must_halt":     result.MustHalt,
		"must_rollback": result.MustRollback,
	}))
	return result, nil
}

// Respond executes the mandatory response sequence, persists the violation,
// and emits the disclosure.
func (h *Handler) Respond(ctx context.Context, state State, result DetectionResult) (Response, error) {
	ctx, span := h.tracer.Start(ctx, "Violation.Respond", trace.WithAttributes(
		attribute.String("violation.type", string(result.Violation.Type)),
		attribute.String("violation.severity", string(result.Violation.Severity)),
	))
	defer span.End()

	response, err := Respond(state, result)
	if err != nil {
		span.RecordError(err)
		return response, err
	}

	for _, action := range response.Actions {
		h.logger.Info("violation.response",
			slog.String("violation_id", response.Violation.ID),
			slog.String("action", action.Kind),
		)
	}
	if response.Violation.Halted.Performed {
		h.metrics.RecordHalt(ctx, string(response.Violation.Type))
		h.emitter.Emit(ctx, core.NewEvent(core.EventHalt, runID(ctx), map[string]any{
			"violation_id": response.Violation.ID,
			"type":         string(response.Violation.Type),
		}))
	}
	h.emitter.Emit(ctx, core.NewEvent(core.EventDisclosure, runID(ctx), map[string]any{
		"violation_id": response.Violation.ID,
		"message":      response.UserMessage,
	}))

	if h.store != nil {
		if err := h.store.Save(ctx, response.Violation); err != nil {
			h.logger.Error("violation.audit.save_failed",
				slog.String("violation_id", response.Violation.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return response, nil
}

// Acknowledge marks a violation resolved and updates the audit store.
func (h *Handler) Acknowledge(ctx context.Context, state State, id string) (State, error) {
	next, err := Acknowledge(state, id)
	if err != nil {
		return next, err
	}
	h.logger.Info("violation.acknowledged", slog.String("violation_id", id))
	if h.store != nil {
		for _, v := range next.Violations {
			if v.ID == id {
				if err := h.store.Save(ctx, v); err != nil {
					h.logger.Error("violation.audit.save_failed",
						slog.String("violation_id", id),
						slog.String("error", err.Error()),
					)
				}
				break
			}
		}
	}
	return next, nil
}

// Audit summarizes the current log.
func (h *Handler) Audit(state State) Audit {
	return AuditViolations(state)
}

func runID(ctx context.Context) string {
	id, _ := core.RunID(ctx)
	return id
}
