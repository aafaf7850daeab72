// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the Warden configuration from defaults, an optional
// YAML file, and WARDEN_ environment variables, in that order.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/atelier-ide/warden/pkg/budget"
	"github.com/atelier-ide/warden/pkg/policy"
	"github.com/atelier-ide/warden/pkg/sources"
	"github.com/atelier-ide/warden/pkg/supervisor"
)

type Config struct {
	Log        LogConfig         `koanf:"log"`
	Telemetry  TelemetryConfig   `koanf:"telemetry"`
	Governance GovernanceConfig  `koanf:"governance"`
	Budget     budget.Limits     `koanf:"budget"`
	Context    sources.Config    `koanf:"context"`
	Supervisor supervisor.Config `koanf:"supervisor"`
	Audit      AuditConfig       `koanf:"audit"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type GovernanceConfig struct {
	// DefaultMode is the autonomy mode a fresh session starts in.
	DefaultMode string `koanf:"default_mode"`
}

type AuditConfig struct {
	// DBPath is the SQLite file for violation and execution records.
	// Empty keeps audit in memory only.
	DBPath string `koanf:"db_path"`
}

// Mode returns the configured default autonomy mode.
func (g GovernanceConfig) Mode() (policy.AutonomyMode, error) {
	switch policy.AutonomyMode(g.DefaultMode) {
	case policy.ModeDirected, policy.ModeCollaborative, policy.ModeAgentic:
		return policy.AutonomyMode(g.DefaultMode), nil
	}
	return "", fmt.Errorf("unknown autonomy mode %q", g.DefaultMode)
}

// Load reads configuration from defaults, then the YAML file at path (if
// any), then WARDEN_ environment variables (WARDEN_BUDGET_MAX_STEPS_PER_TASK
// -> budget.max_steps_per_task).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		k.Set(key, value)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("WARDEN_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "WARDEN_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the governance core cannot run with.
// Configuration errors are fatal at startup, never coerced.
func (c *Config) Validate() error {
	if _, err := c.Governance.Mode(); err != nil {
		return err
	}
	switch c.Telemetry.Exporter {
	case "", "stdout":
	case "otlp":
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}
	if c.Context.AmbiguityThreshold < 0 || c.Context.AmbiguityThreshold > 1 {
		return fmt.Errorf("context.ambiguity_threshold must be in [0,1], got %f", c.Context.AmbiguityThreshold)
	}
	if c.Supervisor.MaxSteps <= 0 {
		return fmt.Errorf("supervisor.max_steps must be positive")
	}
	return nil
}

func defaults() map[string]any {
	out := map[string]any{
		"log.level":               "info",
		"log.format":              "text",
		"telemetry.enabled":       false,
		"telemetry.exporter":      "stdout",
		"governance.default_mode": string(policy.ModeCollaborative),
		"audit.db_path":           "",
	}
	limits := budget.DefaultLimits()
	out["budget.max_files_in_scope"] = limits.MaxFilesInScope
	out["budget.max_lines_in_scope"] = limits.MaxLinesInScope
	out["budget.max_steps_per_task"] = limits.MaxStepsPerTask
	out["budget.max_agents_parallel"] = limits.MaxAgentsParallel
	out["budget.max_tokens_per_request"] = limits.MaxTokensPerRequest
	out["budget.max_tokens_per_session"] = limits.MaxTokensPerSession
	out["budget.max_api_cost_cents"] = limits.MaxCostCents
	out["budget.max_seconds_per_action"] = limits.MaxSecondsPerAction
	out["budget.max_seconds_per_task"] = limits.MaxSecondsPerTask
	out["budget.max_context_sources"] = limits.MaxContextSources
	out["budget.max_context_tokens"] = limits.MaxContextTokens
	out["budget.max_context_breadth"] = limits.MaxContextBreadth
	out["budget.max_files_modified"] = limits.MaxFilesModified
	out["budget.max_commands_run"] = limits.MaxCommandsRun

	ctx := sources.DefaultConfig()
	out["context.min_relevance_score"] = ctx.MinRelevanceScore
	out["context.max_total_tokens"] = ctx.MaxTotalTokens
	out["context.max_source_count"] = ctx.MaxSourceCount
	out["context.max_breadth"] = ctx.MaxBreadth
	out["context.ambiguity_threshold"] = ctx.AmbiguityThreshold

	sup := supervisor.DefaultConfig()
	out["supervisor.max_steps"] = sup.MaxSteps
	out["supervisor.uncertainty_threshold"] = sup.UncertaintyThreshold
	out["supervisor.step_timeout"] = sup.StepTimeout.String()

	return out
}
