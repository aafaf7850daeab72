// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package sources implements the context-inclusion governor: which
// information sources may feed agent reasoning, under authorization,
// token-budget, count, and breadth limits, plus the ambiguity score those
// sources produce.
package sources

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType classifies how a source entered the context.
type SourceType string

const (
	SourceUserProvided       SourceType = "user_provided"
	SourceDependencyRequired SourceType = "dependency_required"
	SourceExplicitlyApproved SourceType = "explicitly_approved"
	SourceAutoIncluded       SourceType = "auto_included"
)

// ApprovedBy identifies who authorized a source.
type ApprovedBy string

const (
	ApprovedByUser   ApprovedBy = "user"
	ApprovedBySystem ApprovedBy = "system"
	ApprovedByAgent  ApprovedBy = "agent"
	ApprovedByNobody ApprovedBy = ""
)

// Source is one information source feeding agent reasoning.
type Source struct {
	ID         string
	Type       SourceType
	Origin     string
	Purpose    string
	Relevance  float64
	Tokens     int64
	ApprovedBy ApprovedBy
}

// Config holds the governor thresholds.
type Config struct {
	MinRelevanceScore  float64 `koanf:"min_relevance_score"`
	MaxTotalTokens     int64   `koanf:"max_total_tokens"`
	MaxSourceCount     int     `koanf:"max_source_count"`
	MaxBreadth         int     `koanf:"max_breadth"`
	AmbiguityThreshold float64 `koanf:"ambiguity_threshold"`
}

// DefaultConfig returns the default governor thresholds.
func DefaultConfig() Config {
	return Config{
		MinRelevanceScore:  0.3,
		MaxTotalTokens:     100000,
		MaxSourceCount:     30,
		MaxBreadth:         8,
		AmbiguityThreshold: 0.70,
	}
}

// ViolationSeverity ranks a source violation.
type ViolationSeverity string

const (
	SeverityWarning  ViolationSeverity = "warning"
	SeverityError    ViolationSeverity = "error"
	SeverityCritical ViolationSeverity = "critical"
)

// Violation kinds raised by the governor.
const (
	ViolationUnauthorizedSource = "unauthorized_source"
	ViolationLowRelevance       = "low_relevance"
	ViolationTokenBudget        = "token_budget_exceeded"
	ViolationSourceCount        = "source_count_exceeded"
	ViolationBreadth            = "breadth_exceeded"
)

// Violation records one governor rule trip.
type Violation struct {
	Type      string
	Severity  ViolationSeverity
	Message   string
	SourceID  string
	Timestamp time.Time
	Resolved  bool
}

// State is the governed context: the admitted sources and the violation log.
type State struct {
	Config     Config
	Sources    []Source
	Violations []Violation
}

// NewState creates an empty governed context.
func NewState(cfg Config) State {
	return State{Config: cfg}
}

// AddResult is the outcome of attempting to add a source.
type AddResult struct {
	Added             bool
	Violations        []Violation
	RequiresApproval  bool
	RequiresNarrowing bool
}

// TotalTokens sums the tokens of all admitted sources.
func (s State) TotalTokens() int64 {
	var total int64
	for _, src := range s.Sources {
		total += src.Tokens
	}
	return total
}

// Breadth counts distinct parent directories among file-typed sources.
// Sources whose origin does not carry the "file:" prefix are ignored by the
// count; this mirrors the historical behavior and is a known under-count for
// non-file source kinds.
func (s State) Breadth() int {
	return breadthOf(s.Sources)
}

func breadthOf(sources []Source) int {
	dirs := make(map[string]struct{})
	for _, src := range sources {
		rel, ok := strings.CutPrefix(src.Origin, "file:")
		if !ok {
			continue
		}
		dirs[path.Dir(rel)] = struct{}{}
	}
	return len(dirs)
}

// AddSource evaluates the ordered governor checks and, unless a critical
// violation rejects the source, admits it. Non-critical violations are
// recorded but do not block admission. On rejection the source list is
// unchanged; only the violation log grows.
func AddSource(s State, src Source) (State, AddResult) {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	var result AddResult

	// (a) auto-included without user approval is unauthorized.
	if src.Type == SourceAutoIncluded && src.ApprovedBy != ApprovedByUser {
		result.Violations = append(result.Violations, Violation{
			Type:      ViolationUnauthorizedSource,
			Severity:  SeverityError,
			Message:   fmt.Sprintf("auto-included source %s lacks user approval", src.Origin),
			SourceID:  src.ID,
			Timestamp: now,
		})
		result.RequiresApproval = true
	}

	// (b) low relevance is a warning; the source is still added.
	if src.Relevance < s.Config.MinRelevanceScore {
		result.Violations = append(result.Violations, Violation{
			Type:      ViolationLowRelevance,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("source %s relevance %.2f below minimum %.2f", src.Origin, src.Relevance, s.Config.MinRelevanceScore),
			SourceID:  src.ID,
			Timestamp: now,
		})
	}

	// (c) token budget: critical, rejects the source outright.
	if s.Config.MaxTotalTokens > 0 && s.TotalTokens()+src.Tokens > s.Config.MaxTotalTokens {
		result.Violations = append(result.Violations, Violation{
			Type:      ViolationTokenBudget,
			Severity:  SeverityCritical,
			Message:   fmt.Sprintf("adding %s (%d tokens) would exceed the %d context token budget", src.Origin, src.Tokens, s.Config.MaxTotalTokens),
			SourceID:  src.ID,
			Timestamp: now,
		})
		result.RequiresNarrowing = true
	}

	// (d) source count after adding.
	if s.Config.MaxSourceCount > 0 && len(s.Sources)+1 > s.Config.MaxSourceCount {
		result.Violations = append(result.Violations, Violation{
			Type:      ViolationSourceCount,
			Severity:  SeverityError,
			Message:   fmt.Sprintf("source count would exceed %d", s.Config.MaxSourceCount),
			SourceID:  src.ID,
			Timestamp: now,
		})
		result.RequiresNarrowing = true
	}

	// (e) directory breadth after adding.
	if s.Config.MaxBreadth > 0 {
		after := breadthOf(append(append([]Source(nil), s.Sources...), src))
		if after > s.Config.MaxBreadth {
			result.Violations = append(result.Violations, Violation{
				Type:      ViolationBreadth,
				Severity:  SeverityError,
				Message:   fmt.Sprintf("context breadth %d would exceed %d directories", after, s.Config.MaxBreadth),
				SourceID:  src.ID,
				Timestamp: now,
			})
			result.RequiresApproval = true
		}
	}

	critical := false
	for _, v := range result.Violations {
		if v.Severity == SeverityCritical {
			critical = true
			break
		}
	}

	s.Violations = append(append([]Violation(nil), s.Violations...), result.Violations...)
	if critical {
		result.Added = false
		return s, result
	}

	s.Sources = append(append([]Source(nil), s.Sources...), src)
	result.Added = true
	return s, result
}

// ResolveViolations marks all violations for the given source as resolved.
func ResolveViolations(s State, sourceID string) State {
	resolved := make([]Violation, len(s.Violations))
	copy(resolved, s.Violations)
	for i := range resolved {
		if resolved[i].SourceID == sourceID {
			resolved[i].Resolved = true
		}
	}
	s.Violations = resolved
	return s
}

// Inspection answers "what am I reasoning from right now?". Read-only,
// callable at any time.
type Inspection struct {
	SourceCount          int
	TotalTokens          int64
	Breadth              int
	CountByType          map[SourceType]int
	AverageRelevance     float64
	UnresolvedViolations int
	Sources              []Source
}

// Inspect summarizes the governed context without mutating it.
func Inspect(s State) Inspection {
	insp := Inspection{
		SourceCount: len(s.Sources),
		TotalTokens: s.TotalTokens(),
		Breadth:     s.Breadth(),
		CountByType: make(map[SourceType]int),
		Sources:     append([]Source(nil), s.Sources...),
	}
	var relevance float64
	for _, src := range s.Sources {
		insp.CountByType[src.Type]++
		relevance += src.Relevance
	}
	if len(s.Sources) > 0 {
		insp.AverageRelevance = relevance / float64(len(s.Sources))
	}
	for _, v := range s.Violations {
		if !v.Resolved {
			insp.UnresolvedViolations++
		}
	}
	return insp
}
