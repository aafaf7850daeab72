// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package budget implements the budget enforcement engine: usage counters
// tracked against configured hard limits, with fixed 75/90/100 percent
// thresholds. It is the sole authority on whether an operation may proceed on
// cost, time, or scope grounds.
package budget

// Metric identifies one tracked limit/usage pair.
type Metric string

const (
	MetricFilesInScope     Metric = "maxFilesInScope"
	MetricLinesInScope     Metric = "maxLinesInScope"
	MetricStepsPerTask     Metric = "maxStepsPerTask"
	MetricAgentsParallel   Metric = "maxAgentsParallel"
	MetricTokensPerRequest Metric = "maxTokensPerRequest"
	MetricTokensPerSession Metric = "maxTokensPerSession"
	MetricCostCents        Metric = "maxApiCostCents"
	MetricSecondsPerAction Metric = "maxSecondsPerAction"
	MetricSecondsPerTask   Metric = "maxSecondsPerTask"
	MetricContextSources   Metric = "maxContextSources"
	MetricContextTokens    Metric = "maxContextTokens"
	MetricContextBreadth   Metric = "maxContextBreadth"
	MetricFilesModified    Metric = "maxFilesModified"
	MetricCommandsRun      Metric = "maxCommandsRun"
)

// AllMetrics lists every tracked metric, in check order.
var AllMetrics = []Metric{
	MetricFilesInScope,
	MetricLinesInScope,
	MetricStepsPerTask,
	MetricAgentsParallel,
	MetricTokensPerRequest,
	MetricTokensPerSession,
	MetricCostCents,
	MetricSecondsPerAction,
	MetricSecondsPerTask,
	MetricContextSources,
	MetricContextTokens,
	MetricContextBreadth,
	MetricFilesModified,
	MetricCommandsRun,
}

// Limits holds the configured hard limits. A zero limit means the metric is
// not limited.
type Limits struct {
	MaxFilesInScope     int64 `koanf:"max_files_in_scope"`
	MaxLinesInScope     int64 `koanf:"max_lines_in_scope"`
	MaxStepsPerTask     int64 `koanf:"max_steps_per_task"`
	MaxAgentsParallel   int64 `koanf:"max_agents_parallel"`
	MaxTokensPerRequest int64 `koanf:"max_tokens_per_request"`
	MaxTokensPerSession int64 `koanf:"max_tokens_per_session"`
	MaxCostCents        int64 `koanf:"max_api_cost_cents"`
	MaxSecondsPerAction int64 `koanf:"max_seconds_per_action"`
	MaxSecondsPerTask   int64 `koanf:"max_seconds_per_task"`
	MaxContextSources   int64 `koanf:"max_context_sources"`
	MaxContextTokens    int64 `koanf:"max_context_tokens"`
	MaxContextBreadth   int64 `koanf:"max_context_breadth"`
	MaxFilesModified    int64 `koanf:"max_files_modified"`
	MaxCommandsRun      int64 `koanf:"max_commands_run"`
}

// DefaultLimits returns conservative defaults for a single task.
func DefaultLimits() Limits {
	return Limits{
		MaxFilesInScope:     25,
		MaxLinesInScope:     10000,
		MaxStepsPerTask:     20,
		MaxAgentsParallel:   3,
		MaxTokensPerRequest: 32000,
		MaxTokensPerSession: 500000,
		MaxCostCents:        500,
		MaxSecondsPerAction: 120,
		MaxSecondsPerTask:   1800,
		MaxContextSources:   30,
		MaxContextTokens:    100000,
		MaxContextBreadth:   8,
		MaxFilesModified:    15,
		MaxCommandsRun:      25,
	}
}

// Usage holds the consumed amounts, parallel to Limits. Usage only increases
// within a session except on explicit reset.
type Usage struct {
	FilesInScope   int64
	LinesInScope   int64
	StepsCompleted int64
	AgentsParallel int64
	TokensRequest  int64
	TokensSession  int64
	CostCents      int64
	SecondsAction  int64
	SecondsTask    int64
	ContextSources int64
	ContextTokens  int64
	ContextBreadth int64
	FilesModified  int64
	CommandsRun    int64
}

// limitFor returns the configured limit for the metric.
func (l Limits) limitFor(m Metric) int64 {
	switch m {
	case MetricFilesInScope:
		return l.MaxFilesInScope
	case MetricLinesInScope:
		return l.MaxLinesInScope
	case MetricStepsPerTask:
		return l.MaxStepsPerTask
	case MetricAgentsParallel:
		return l.MaxAgentsParallel
	case MetricTokensPerRequest:
		return l.MaxTokensPerRequest
	case MetricTokensPerSession:
		return l.MaxTokensPerSession
	case MetricCostCents:
		return l.MaxCostCents
	case MetricSecondsPerAction:
		return l.MaxSecondsPerAction
	case MetricSecondsPerTask:
		return l.MaxSecondsPerTask
	case MetricContextSources:
		return l.MaxContextSources
	case MetricContextTokens:
		return l.MaxContextTokens
	case MetricContextBreadth:
		return l.MaxContextBreadth
	case MetricFilesModified:
		return l.MaxFilesModified
	case MetricCommandsRun:
		return l.MaxCommandsRun
	default:
		return 0
	}
}

// usageFor returns the consumed amount for the metric.
func (u Usage) usageFor(m Metric) int64 {
	switch m {
	case MetricFilesInScope:
		return u.FilesInScope
	case MetricLinesInScope:
		return u.LinesInScope
	case MetricStepsPerTask:
		return u.StepsCompleted
	case MetricAgentsParallel:
		return u.AgentsParallel
	case MetricTokensPerRequest:
		return u.TokensRequest
	case MetricTokensPerSession:
		return u.TokensSession
	case MetricCostCents:
		return u.CostCents
	case MetricSecondsPerAction:
		return u.SecondsAction
	case MetricSecondsPerTask:
		return u.SecondsTask
	case MetricContextSources:
		return u.ContextSources
	case MetricContextTokens:
		return u.ContextTokens
	case MetricContextBreadth:
		return u.ContextBreadth
	case MetricFilesModified:
		return u.FilesModified
	case MetricCommandsRun:
		return u.CommandsRun
	default:
		return 0
	}
}

// add returns u with the metric increased by delta.
func (u Usage) add(m Metric, delta int64) Usage {
	switch m {
	case MetricFilesInScope:
		u.FilesInScope += delta
	case MetricLinesInScope:
		u.LinesInScope += delta
	case MetricStepsPerTask:
		u.StepsCompleted += delta
	case MetricAgentsParallel:
		u.AgentsParallel += delta
	case MetricTokensPerRequest:
		u.TokensRequest += delta
	case MetricTokensPerSession:
		u.TokensSession += delta
	case MetricCostCents:
		u.CostCents += delta
	case MetricSecondsPerAction:
		u.SecondsAction += delta
	case MetricSecondsPerTask:
		u.SecondsTask += delta
	case MetricContextSources:
		u.ContextSources += delta
	case MetricContextTokens:
		u.ContextTokens += delta
	case MetricContextBreadth:
		u.ContextBreadth += delta
	case MetricFilesModified:
		u.FilesModified += delta
	case MetricCommandsRun:
		u.CommandsRun += delta
	}
	return u
}

// deltas returns every non-zero metric in d, preserving check order.
func (d Usage) deltas() []metricDelta {
	var out []metricDelta
	for _, m := range AllMetrics {
		if v := d.usageFor(m); v != 0 {
			out = append(out, metricDelta{Metric: m, Delta: v})
		}
	}
	return out
}

type metricDelta struct {
	Metric Metric
	Delta  int64
}
