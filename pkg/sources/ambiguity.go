// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"fmt"
	"strings"
)

// Fixed factor weights for the ambiguity score.
const (
	weightConflicting   = 0.30
	weightMissingDeps   = 0.25
	weightLowRelevance  = 0.20
	weightBreadthRatio  = 0.15
	weightViolationLoad = 0.10

	proceedThreshold = 0.30
)

// Recommendation is the governor's verdict on the current context.
type Recommendation string

const (
	RecommendProceed Recommendation = "proceed"
	RecommendClarify Recommendation = "clarify"
	RecommendHalt    Recommendation = "halt"
)

// Factor is one weighted contributor to the ambiguity score.
type Factor struct {
	Name   string
	Weight float64
	Score  float64
	Detail string
}

// Analysis is the result of an ambiguity analysis.
type Analysis struct {
	Score                  float64
	Factors                []Factor
	Recommendation         Recommendation
	ClarificationQuestions []string
}

// AnalyzeAmbiguity computes the weighted ambiguity score over five factors:
// conflicting information, missing dependency context, low average relevance,
// breadth ratio, and unresolved-violation density. The score feeds the
// supervisor's per-step uncertainty check.
func AnalyzeAmbiguity(s State) Analysis {
	factors := []Factor{
		conflictingFactor(s),
		missingDependencyFactor(s),
		relevanceFactor(s),
		breadthFactor(s),
		violationFactor(s),
	}

	var score float64
	for _, f := range factors {
		score += f.Weight * f.Score
	}
	score = clamp01(score)

	analysis := Analysis{Score: score, Factors: factors}
	switch {
	case score < proceedThreshold:
		analysis.Recommendation = RecommendProceed
	case score < s.Config.AmbiguityThreshold:
		analysis.Recommendation = RecommendClarify
		analysis.ClarificationQuestions = clarificationQuestions(factors)
	default:
		analysis.Recommendation = RecommendHalt
	}
	return analysis
}

// conflictingFactor scores duplicate origins among the sources: the same
// file appearing twice suggests conflicting versions of the truth.
func conflictingFactor(s State) Factor {
	f := Factor{Name: "conflicting_information", Weight: weightConflicting}
	if len(s.Sources) == 0 {
		return f
	}
	seen := make(map[string]int)
	duplicates := 0
	for _, src := range s.Sources {
		seen[src.Origin]++
		if seen[src.Origin] == 2 {
			duplicates++
		}
	}
	if duplicates > 0 {
		f.Score = clamp01(float64(duplicates) * 2 / float64(len(s.Sources)))
		f.Detail = fmt.Sprintf("%d duplicated origins among %d sources", duplicates, len(s.Sources))
	}
	return f
}

// missingDependencyFactor fires when dependency context is clearly needed
// (a source mentions imports or is dependency-typed) but fewer than three
// sources are present.
func missingDependencyFactor(s State) Factor {
	f := Factor{Name: "missing_dependency_context", Weight: weightMissingDeps}
	needsDeps := false
	for _, src := range s.Sources {
		if src.Type == SourceDependencyRequired {
			needsDeps = true
			break
		}
		purpose := strings.ToLower(src.Purpose)
		if strings.Contains(purpose, "import") || strings.Contains(purpose, "require") {
			needsDeps = true
			break
		}
	}
	if needsDeps && len(s.Sources) < 3 {
		f.Score = 1.0
		f.Detail = fmt.Sprintf("dependency context signaled but only %d sources present", len(s.Sources))
	}
	return f
}

func relevanceFactor(s State) Factor {
	f := Factor{Name: "low_average_relevance", Weight: weightLowRelevance}
	if len(s.Sources) == 0 || s.Config.MinRelevanceScore <= 0 {
		return f
	}
	var total float64
	for _, src := range s.Sources {
		total += src.Relevance
	}
	avg := total / float64(len(s.Sources))
	if avg < s.Config.MinRelevanceScore {
		f.Score = clamp01((s.Config.MinRelevanceScore - avg) / s.Config.MinRelevanceScore)
		f.Detail = fmt.Sprintf("average relevance %.2f below minimum %.2f", avg, s.Config.MinRelevanceScore)
	}
	return f
}

func breadthFactor(s State) Factor {
	f := Factor{Name: "high_breadth_ratio", Weight: weightBreadthRatio}
	if s.Config.MaxBreadth <= 0 {
		return f
	}
	ratio := float64(s.Breadth()) / float64(s.Config.MaxBreadth)
	if ratio > 0.5 {
		f.Score = clamp01(ratio)
		f.Detail = fmt.Sprintf("context spans %d of %d allowed directories", s.Breadth(), s.Config.MaxBreadth)
	}
	return f
}

func violationFactor(s State) Factor {
	f := Factor{Name: "unresolved_violations", Weight: weightViolationLoad}
	unresolved := 0
	for _, v := range s.Violations {
		if !v.Resolved {
			unresolved++
		}
	}
	if unresolved == 0 {
		return f
	}
	denom := len(s.Sources)
	if denom == 0 {
		denom = 1
	}
	f.Score = clamp01(float64(unresolved) / float64(denom))
	f.Detail = fmt.Sprintf("%d unresolved context violations", unresolved)
	return f
}

// clarificationQuestions generates one targeted question per contributing
// factor.
func clarificationQuestions(factors []Factor) []string {
	var questions []string
	for _, f := range factors {
		if f.Score == 0 {
			continue
		}
		switch f.Name {
		case "conflicting_information":
			questions = append(questions, "Several sources cover the same files. Which version should be treated as authoritative?")
		case "missing_dependency_context":
			questions = append(questions, "The included code references dependencies that are not in context. Should they be added to the scope?")
		case "low_average_relevance":
			questions = append(questions, "Most included sources score low on relevance. Can the context be narrowed to the files that matter?")
		case "high_breadth_ratio":
			questions = append(questions, "The context spans many directories. Is the task really this broad, or can the scope be narrowed?")
		case "unresolved_violations":
			questions = append(questions, "There are unresolved context violations. Should the affected sources be approved or removed?")
		}
	}
	return questions
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
