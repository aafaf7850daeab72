// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import "github.com/atelier-ide/warden/pkg/sources"

// Fixed uncertainty factor weights.
const (
	weightAmbiguousGoal    = 0.25
	weightMissingContext   = 0.20
	weightConflicting      = 0.20
	weightNovelSituation   = 0.15
	weightPreviousFailures = 0.10
	weightScopeCreep       = 0.10
)

// UncertaintySignals are the six per-step inputs, each in [0,1].
type UncertaintySignals struct {
	AmbiguousGoal           float64
	MissingContext          float64
	ConflictingInstructions float64
	NovelSituation          float64
	PreviousFailures        float64
	ScopeCreep              float64
}

// Score computes the weighted uncertainty, clamped to [0,100].
func (s UncertaintySignals) Score() float64 {
	total := weightAmbiguousGoal*clamp01(s.AmbiguousGoal) +
		weightMissingContext*clamp01(s.MissingContext) +
		weightConflicting*clamp01(s.ConflictingInstructions) +
		weightNovelSituation*clamp01(s.NovelSituation) +
		weightPreviousFailures*clamp01(s.PreviousFailures) +
		weightScopeCreep*clamp01(s.ScopeCreep)

	score := total * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SignalsFrom derives uncertainty signals from the context governor's
// ambiguity analysis and the execution's own history. The ambiguity score
// feeds missing-context and conflicting-instruction signals directly.
func SignalsFrom(analysis sources.Analysis, e Execution) UncertaintySignals {
	signals := UncertaintySignals{}
	for _, f := range analysis.Factors {
		switch f.Name {
		case "missing_dependency_context":
			signals.MissingContext = f.Score
		case "conflicting_information":
			signals.ConflictingInstructions = f.Score
		case "high_breadth_ratio":
			signals.ScopeCreep = f.Score
		}
	}
	if completed := CompletedSteps(e); completed > 0 {
		signals.PreviousFailures = clamp01(float64(FailedSteps(e)) / float64(completed))
	}
	return signals
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
