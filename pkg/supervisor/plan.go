// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Plan is a declared run: the goal plus the intended steps, loaded from YAML
// before anything executes. Declaring the plan up front is what makes
// goal-drift detectable later.
type Plan struct {
	Goal   Goal       `yaml:"goal"`
	Steps  []PlanStep `yaml:"steps"`
	Limits PlanLimits `yaml:"limits"`
}

// PlanStep is one intended step.
type PlanStep struct {
	Description string `yaml:"description"`
}

// PlanLimits optionally overrides the execution bounds.
type PlanLimits struct {
	MaxSteps             int     `yaml:"max_steps"`
	UncertaintyThreshold float64 `yaml:"uncertainty_threshold"`
	StepTimeoutSeconds   int     `yaml:"step_timeout_seconds"`
}

// ParsePlan loads a plan from YAML and validates it.
func ParsePlan(data []byte) (*Plan, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plan payload")
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// LoadPlan loads a plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("plan path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlan(data)
}

// Validate checks the plan declares a complete goal and at least one step.
func (p *Plan) Validate() error {
	if err := p.Goal.Validate(); err != nil {
		return err
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan requires at least one step")
	}
	for i, step := range p.Steps {
		if strings.TrimSpace(step.Description) == "" {
			return fmt.Errorf("plan step %d has no description", i)
		}
	}
	return nil
}

// ExecutionConfig derives the execution bounds from the plan, falling back
// to defaults for anything unset.
func (p *Plan) ExecutionConfig() Config {
	cfg := DefaultConfig()
	if p.Limits.MaxSteps > 0 {
		cfg.MaxSteps = p.Limits.MaxSteps
	}
	if p.Limits.UncertaintyThreshold > 0 {
		cfg.UncertaintyThreshold = p.Limits.UncertaintyThreshold
	}
	if p.Limits.StepTimeoutSeconds > 0 {
		cfg.StepTimeout = time.Duration(p.Limits.StepTimeoutSeconds) * time.Second
	}
	return cfg
}
