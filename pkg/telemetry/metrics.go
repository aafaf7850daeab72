// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GovernanceMetrics tracks decision outcomes, violations, halts, and budget
// pressure for production monitoring.
type GovernanceMetrics struct {
	decisionCounter  metric.Int64Counter
	violationCounter metric.Int64Counter
	haltCounter      metric.Int64Counter
	budgetGauge      metric.Float64Gauge
	ambiguityGauge   metric.Float64Gauge
	uncertaintyGauge metric.Float64Gauge
}

// NewGovernanceMetrics creates the governance meters.
func NewGovernanceMetrics() (*GovernanceMetrics, error) {
	meter := otel.Meter("warden/governance")

	decisionCounter, err := meter.Int64Counter(
		"warden.decisions.total",
		metric.WithDescription("Action decisions by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	violationCounter, err := meter.Int64Counter(
		"warden.violations.total",
		metric.WithDescription("Detected violations by type and severity"),
	)
	if err != nil {
		return nil, err
	}

	haltCounter, err := meter.Int64Counter(
		"warden.halts.total",
		metric.WithDescription("Forced halts by cause"),
	)
	if err != nil {
		return nil, err
	}

	budgetGauge, err := meter.Float64Gauge(
		"warden.budget.percentage",
		metric.WithDescription("Budget consumption percentage by metric"),
	)
	if err != nil {
		return nil, err
	}

	ambiguityGauge, err := meter.Float64Gauge(
		"warden.context.ambiguity",
		metric.WithDescription("Context ambiguity score per execution"),
	)
	if err != nil {
		return nil, err
	}

	uncertaintyGauge, err := meter.Float64Gauge(
		"warden.supervisor.uncertainty",
		metric.WithDescription("Per-step uncertainty score per execution"),
	)
	if err != nil {
		return nil, err
	}

	return &GovernanceMetrics{
		decisionCounter:  decisionCounter,
		violationCounter: violationCounter,
		haltCounter:      haltCounter,
		budgetGauge:      budgetGauge,
		ambiguityGauge:   ambiguityGauge,
		uncertaintyGauge: uncertaintyGauge,
	}, nil
}

// RecordDecision counts one action decision.
func (gm *GovernanceMetrics) RecordDecision(ctx context.Context, action string, allowed bool) {
	if gm == nil {
		return
	}
	gm.decisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrActionKind, action),
		attribute.Bool(AttrDecisionAllowed, allowed),
	))
}

// RecordViolation counts one detected violation.
func (gm *GovernanceMetrics) RecordViolation(ctx context.Context, violationType, severity string) {
	if gm == nil {
		return
	}
	gm.violationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrViolationType, violationType),
		attribute.String(AttrViolationSeverity, severity),
	))
}

// RecordHalt counts one forced halt.
func (gm *GovernanceMetrics) RecordHalt(ctx context.Context, cause string) {
	if gm == nil {
		return
	}
	gm.haltCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrHaltCause, cause),
	))
}

// RecordBudgetPercentage records current consumption for one budget metric.
func (gm *GovernanceMetrics) RecordBudgetPercentage(ctx context.Context, budgetMetric string, percentage float64) {
	if gm == nil {
		return
	}
	gm.budgetGauge.Record(ctx, percentage, metric.WithAttributes(
		attribute.String(AttrBudgetMetric, budgetMetric),
	))
}

// RecordAmbiguity records the current context ambiguity score.
func (gm *GovernanceMetrics) RecordAmbiguity(ctx context.Context, executionID string, score float64) {
	if gm == nil {
		return
	}
	gm.ambiguityGauge.Record(ctx, score, metric.WithAttributes(
		attribute.String(AttrExecutionID, executionID),
	))
}

// RecordUncertainty records the per-step uncertainty score.
func (gm *GovernanceMetrics) RecordUncertainty(ctx context.Context, executionID string, score float64) {
	if gm == nil {
		return
	}
	gm.uncertaintyGauge.Record(ctx, score, metric.WithAttributes(
		attribute.String(AttrExecutionID, executionID),
	))
}
