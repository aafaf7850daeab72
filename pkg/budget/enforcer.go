// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package budget

import (
	"fmt"
	"time"

	"github.com/atelier-ide/warden/pkg/errors"
	"github.com/atelier-ide/warden/pkg/policy"
)

// Fixed classification thresholds, in percent of the configured limit.
const (
	ThresholdWarning  = 75.0
	ThresholdCritical = 90.0
	ThresholdExceeded = 100.0
)

// Severity classifies how far a metric is into its limit.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityExceeded Severity = "exceeded"
)

func (s Severity) rank() int {
	switch s {
	case SeverityExceeded:
		return 3
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// classify maps a usage percentage onto a severity. Exactly 100% is exceeded,
// never critical; exactly 90% is critical, never warning.
func classify(percent float64) Severity {
	switch {
	case percent >= ThresholdExceeded:
		return SeverityExceeded
	case percent >= ThresholdCritical:
		return SeverityCritical
	case percent >= ThresholdWarning:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// SafeOptionKind names a recoverable action offered when a limit blocks
// progress.
type SafeOptionKind string

const (
	OptionPause                 SafeOptionKind = "pause"
	OptionReduceScope           SafeOptionKind = "reduce_scope"
	OptionIncreaseLimit         SafeOptionKind = "increase_limit"
	OptionCheckpointAndContinue SafeOptionKind = "checkpoint_and_continue"
	OptionCancel                SafeOptionKind = "cancel"
)

// SafeOption is one recoverable action, tagged with whether it needs user
// approval.
type SafeOption struct {
	Kind          SafeOptionKind
	Description   string
	NeedsApproval bool
}

// LimitViolation records one metric crossing a threshold.
type LimitViolation struct {
	Metric      Metric
	Current     int64
	Limit       int64
	Percent     float64
	Severity    Severity
	Timestamp   time.Time
	Message     string
	SafeOptions []SafeOption
}

// CheckResult is the outcome of a full limit check.
type CheckResult struct {
	Allowed    bool
	Status     Severity
	Violations []LimitViolation
	MustHalt   bool
	HaltReason string
}

// BudgetAxis maps the overall status onto the budget axis of the operational
// state. Warning still counts as safe; the axis only tightens at critical.
func (r CheckResult) BudgetAxis() policy.BudgetState {
	switch r.Status {
	case SeverityExceeded:
		return policy.BudgetExceeded
	case SeverityCritical:
		return policy.BudgetConstrained
	default:
		return policy.BudgetSafe
	}
}

// State is one budget-tracking scope: a task, or the shared session. Halts
// are explicit and sticky; a halted state stays halted until a logged
// resolution.
type State struct {
	Limits      Limits
	Usage       Usage
	Halted      bool
	HaltReason  string
	Resumptions []Resumption
}

// Resumption records an explicit resume from a budget halt.
type Resumption struct {
	Resolution string
	Timestamp  time.Time
}

// NewState creates a budget state with the given limits and zero usage.
func NewState(limits Limits) State {
	return State{Limits: limits}
}

// CheckLimits iterates every metric/limit pair and classifies each against
// the fixed thresholds. Any single exceeded metric sets MustHalt; there is no
// averaging across metrics.
func CheckLimits(s State) CheckResult {
	result := CheckResult{Allowed: true, Status: SeverityOK}
	now := time.Now().UTC()

	for _, metric := range AllMetrics {
		limit := s.Limits.limitFor(metric)
		if limit <= 0 {
			continue
		}
		current := s.Usage.usageFor(metric)
		percent := float64(current) / float64(limit) * 100.0
		severity := classify(percent)
		if severity == SeverityOK {
			continue
		}

		violation := LimitViolation{
			Metric:      metric,
			Current:     current,
			Limit:       limit,
			Percent:     percent,
			Severity:    severity,
			Timestamp:   now,
			Message:     fmt.Sprintf("%s at %.0f%% (%d of %d)", metric, percent, current, limit),
			SafeOptions: safeOptionsFor(severity),
		}
		result.Violations = append(result.Violations, violation)

		if severity.rank() > result.Status.rank() {
			result.Status = severity
		}
		if severity == SeverityExceeded {
			result.MustHalt = true
			result.Allowed = false
			if result.HaltReason == "" {
				result.HaltReason = violation.Message
			}
		}
	}

	if s.Halted {
		result.Allowed = false
		result.MustHalt = true
		if result.HaltReason == "" {
			result.HaltReason = s.HaltReason
		}
	}
	return result
}

// UpdateUsage applies the deltas and immediately re-runs the limit check in
// the same operation; usage is never recorded without a re-check. Negative
// deltas are rejected: usage is monotonic except on explicit reset. A halted
// state refuses further usage until ResumeFromHalt records a resolution.
func UpdateUsage(s State, deltas Usage) (State, CheckResult, error) {
	if s.Halted {
		return s, CheckLimits(s), errors.New(errors.CodeLimitBreach,
			"budget is halted; no further usage until a logged resolution", nil)
	}
	for _, d := range deltas.deltas() {
		if d.Delta < 0 {
			return s, CheckResult{}, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("usage for %s may not decrease (delta %d)", d.Metric, d.Delta), nil)
		}
		s.Usage = s.Usage.add(d.Metric, d.Delta)
	}
	result := CheckLimits(s)
	if result.MustHalt && !s.Halted {
		s.Halted = true
		s.HaltReason = result.HaltReason
	}
	return s, result, nil
}

// IncrementUsage increases a single metric and re-checks limits.
func IncrementUsage(s State, metric Metric, delta int64) (State, CheckResult, error) {
	var deltas Usage
	deltas = deltas.add(metric, delta)
	return UpdateUsage(s, deltas)
}

// Reset returns a fresh state with the same limits and zero usage. The only
// sanctioned way for usage to decrease.
func Reset(s State) State {
	return NewState(s.Limits)
}

// ResumeFromHalt clears a budget halt. The resolution string is mandatory and
// recorded; usage is not reset, so the caller must raise a limit or reduce
// scope before the next check, or the state halts again immediately.
func ResumeFromHalt(s State, resolution string) (State, error) {
	if !s.Halted {
		return s, errors.New(errors.CodeInvalidInput, "budget state is not halted", nil)
	}
	if resolution == "" {
		return s, errors.New(errors.CodeHalted, "resuming from a budget halt requires a resolution", nil)
	}
	s.Halted = false
	s.HaltReason = ""
	s.Resumptions = append(append([]Resumption(nil), s.Resumptions...), Resumption{
		Resolution: resolution,
		Timestamp:  time.Now().UTC(),
	})
	return s, nil
}

// WithLimits swaps the configured limits, keeping usage and halt state. Used
// when the increase_limit safe option is approved or config is hot-reloaded.
func WithLimits(s State, limits Limits) State {
	s.Limits = limits
	return s
}

func safeOptionsFor(severity Severity) []SafeOption {
	options := []SafeOption{
		{Kind: OptionPause, Description: "pause the current task", NeedsApproval: false},
		{Kind: OptionReduceScope, Description: "narrow the declared scope", NeedsApproval: false},
	}
	if severity.rank() >= SeverityCritical.rank() {
		options = append(options, SafeOption{
			Kind:          OptionCheckpointAndContinue,
			Description:   "save a checkpoint and continue under supervision",
			NeedsApproval: true,
		})
	}
	if severity == SeverityExceeded {
		options = append(options,
			SafeOption{
				Kind:          OptionIncreaseLimit,
				Description:   "raise the configured limit",
				NeedsApproval: true,
			},
			SafeOption{
				Kind:          OptionCancel,
				Description:   "cancel the current task",
				NeedsApproval: false,
			},
		)
	}
	return options
}
