// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package budget

import (
	"context"
	"log/slog"
	"sync"

	"github.com/atelier-ide/warden/pkg/core"
	"github.com/atelier-ide/warden/pkg/telemetry"
)

// SessionMeter owns the single usage counter shared by all executions for
// session-wide limits (tokens per session, API cost, parallel agents). All
// reads and read-modify-write updates are serialized behind one mutex; this
// is the only place in the core where true concurrency control is required.
type SessionMeter struct {
	mu      sync.Mutex
	state   State
	logger  *slog.Logger
	emitter core.EventEmitter
	metrics *telemetry.GovernanceMetrics
}

// SessionOption configures a SessionMeter.
type SessionOption func(*SessionMeter)

// WithSessionLogger sets the structured logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(m *SessionMeter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSessionEmitter sets the event emitter for limit warnings and halts.
func WithSessionEmitter(emitter core.EventEmitter) SessionOption {
	return func(m *SessionMeter) {
		if emitter != nil {
			m.emitter = emitter
		}
	}
}

// WithSessionMetrics records session budget pressure on the governance
// meters.
func WithSessionMetrics(metrics *telemetry.GovernanceMetrics) SessionOption {
	return func(m *SessionMeter) {
		m.metrics = metrics
	}
}

// NewSessionMeter creates the shared session counter.
func NewSessionMeter(limits Limits, opts ...SessionOption) *SessionMeter {
	m := &SessionMeter{
		state:   NewState(limits),
		logger:  slog.Default(),
		emitter: core.NoopEventEmitter{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *SessionMeter) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CheckLimits runs a limit check against the current shared state.
func (m *SessionMeter) CheckLimits() CheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CheckLimits(m.state)
}

// UpdateUsage applies deltas to the shared counter and re-checks limits in
// the same critical section.
func (m *SessionMeter) UpdateUsage(ctx context.Context, deltas Usage) (CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, result, err := UpdateUsage(m.state, deltas)
	if err != nil {
		return CheckResult{}, err
	}
	m.state = next
	m.observe(ctx, result)
	return result, nil
}

// IncrementUsage increases one shared metric and re-checks limits.
func (m *SessionMeter) IncrementUsage(ctx context.Context, metric Metric, delta int64) (CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, result, err := IncrementUsage(m.state, metric, delta)
	if err != nil {
		return CheckResult{}, err
	}
	m.state = next
	m.observe(ctx, result)
	return result, nil
}

// ResumeFromHalt clears a session-wide budget halt with a logged resolution.
func (m *SessionMeter) ResumeFromHalt(ctx context.Context, resolution string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := ResumeFromHalt(m.state, resolution)
	if err != nil {
		return err
	}
	m.state = next
	m.logger.Info("budget.session.resumed", slog.String("resolution", resolution))
	m.emitter.Emit(ctx, core.NewEvent(core.EventResume, "", map[string]any{
		"scope":      "session",
		"resolution": resolution,
	}))
	return nil
}

// SetLimits swaps the session limits (hot reload, approved increase).
func (m *SessionMeter) SetLimits(limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = WithLimits(m.state, limits)
}

func (m *SessionMeter) observe(ctx context.Context, result CheckResult) {
	for _, v := range result.Violations {
		m.metrics.RecordBudgetPercentage(ctx, string(v.Metric), v.Percent)
		if v.Severity == SeverityExceeded {
			continue
		}
		m.logger.Warn("budget.session.limit",
			slog.String("metric", string(v.Metric)),
			slog.String("severity", string(v.Severity)),
			slog.Float64("percent", v.Percent),
		)
		m.emitter.Emit(ctx, core.NewEvent(core.EventLimitWarning, "", map[string]any{
			"metric":   string(v.Metric),
			"severity": string(v.Severity),
			"percent":  v.Percent,
		}))
	}
	if result.MustHalt {
		m.metrics.RecordHalt(ctx, result.HaltReason)
		m.logger.Error("budget.session.halt", slog.String("reason", result.HaltReason))
		m.emitter.Emit(ctx, core.NewEvent(core.EventHalt, "", map[string]any{
			"scope":  "session",
			"reason": result.HaltReason,
		}))
	}
}
