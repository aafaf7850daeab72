// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package wardentest

import (
	"testing"

	"github.com/atelier-ide/warden/pkg/budget"
	"github.com/atelier-ide/warden/pkg/policy"
	"github.com/atelier-ide/warden/pkg/sources"
	"github.com/atelier-ide/warden/pkg/state"
)

// Scenario describes a governance situation: a starting state, a sequence of
// attempted actions, transitions, and source additions, and the expected
// outcomes. Scenarios keep long table tests readable.
type Scenario struct {
	Name    string
	Mode    policy.AutonomyMode
	Axes    *state.Axes // optional override of the initial axes
	Limits  *budget.Limits
	Usage   budget.Usage
	Sources []sources.Source
	Steps   []Step
}

// Step is one scripted interaction.
type Step struct {
	// Exactly one of Action, Op, AddSource, CheckBudget is set.
	Action      policy.ActionKind
	Op          state.Op
	Trigger     string
	AddSource   *sources.Source
	CheckBudget bool

	ExpectAllowed   bool
	ExpectReason    string // substring of the denial/rejection reason
	ExpectOutcome   state.Outcome
	ExpectViolation string // sources violation type
	ExpectAdded     bool
	ExpectStatus    budget.Severity
	ExpectHalt      bool
}

// Run executes the scenario against fresh state.
func (s Scenario) Run(t *testing.T) {
	t.Helper()
	t.Run(s.Name, func(t *testing.T) {
		a := NewAssertions(t)

		sys := state.Initial(s.Mode)
		if s.Axes != nil {
			sys.Axes = *s.Axes
		}

		limits := budget.DefaultLimits()
		if s.Limits != nil {
			limits = *s.Limits
		}
		task := budget.NewState(limits)
		task.Usage = s.Usage

		ctxState := sources.NewState(sources.DefaultConfig())
		for _, src := range s.Sources {
			ctxState, _ = sources.AddSource(ctxState, src)
		}

		for i, step := range s.Steps {
			switch {
			case step.Action != "":
				decision, err := state.CanPerform(sys, step.Action)
				a.AssertNoError(err, s.Name)
				a.AssertEqual(step.ExpectAllowed, decision.Allowed, s.Name)
				if step.ExpectReason != "" {
					a.AssertContains(decision.Reason, step.ExpectReason, s.Name)
				}
			case step.Op != nil:
				result, err := state.Transition(sys, step.Op, step.Trigger)
				a.AssertNoError(err, s.Name)
				a.AssertEqual(step.ExpectOutcome, result.Outcome, s.Name)
				if result.Outcome == state.Applied && result.NewState != nil {
					sys = *result.NewState
				}
				if step.ExpectReason != "" {
					a.AssertContains(result.Reason, step.ExpectReason, s.Name)
				}
			case step.AddSource != nil:
				next, result := sources.AddSource(ctxState, *step.AddSource)
				a.AssertEqual(step.ExpectAdded, result.Added, s.Name)
				if step.ExpectViolation != "" {
					a.AssertViolationType(result.Violations, step.ExpectViolation, s.Name)
				}
				ctxState = next
			case step.CheckBudget:
				check := budget.CheckLimits(task)
				a.AssertBudgetStatus(check, step.ExpectStatus, s.Name)
				a.AssertEqual(step.ExpectHalt, check.MustHalt, s.Name)
			default:
				t.Fatalf("scenario %s step %d sets no action, op, source, or budget check", s.Name, i)
			}
		}
	})
}

// RunAll executes every scenario.
func RunAll(t *testing.T, scenarios []Scenario) {
	t.Helper()
	for _, s := range scenarios {
		s.Run(t)
	}
}
