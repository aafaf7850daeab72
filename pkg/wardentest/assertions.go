// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package wardentest provides assertion helpers and a governance scenario
// runner for tests across the module.
package wardentest

import (
	"strings"
	"testing"

	"github.com/atelier-ide/warden/pkg/budget"
	"github.com/atelier-ide/warden/pkg/sources"
	"github.com/atelier-ide/warden/pkg/violation"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      *testing.T
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.t.Errorf("%s: expected %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertNotEqual asserts that two values are not equal.
func (a *Assertions) AssertNotEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected == actual {
		a.t.Errorf("%s: expected not %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertTrue asserts that the value is true.
func (a *Assertions) AssertTrue(value bool, msg string) {
	a.t.Helper()
	if !value {
		a.t.Errorf("%s: expected true", msg)
		a.failed = true
	}
}

// AssertFalse asserts that the value is false.
func (a *Assertions) AssertFalse(value bool, msg string) {
	a.t.Helper()
	if value {
		a.t.Errorf("%s: expected false", msg)
		a.failed = true
	}
}

// AssertContains asserts that the string contains the substring.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Errorf("%s: %q does not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertError asserts that the error is not nil.
func (a *Assertions) AssertError(err error, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error, got nil", msg)
		a.failed = true
	}
}

// AssertNoError asserts that the error is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.t.Errorf("%s: unexpected error: %v", msg, err)
		a.failed = true
	}
}

// AssertErrorContains asserts that the error message contains the substring.
func (a *Assertions) AssertErrorContains(err error, substr, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error containing %q, got nil", msg, substr)
		a.failed = true
		return
	}
	if !strings.Contains(err.Error(), substr) {
		a.t.Errorf("%s: error %q does not contain %q", msg, err.Error(), substr)
		a.failed = true
	}
}

// AssertBudgetStatus asserts the overall status of a budget check.
func (a *Assertions) AssertBudgetStatus(check budget.CheckResult, expected budget.Severity, msg string) {
	a.t.Helper()
	if check.Status != expected {
		a.t.Errorf("%s: expected budget status %s, got %s", msg, expected, check.Status)
		a.failed = true
	}
}

// AssertViolationType asserts that the violations include the given type.
func (a *Assertions) AssertViolationType(violations []sources.Violation, expected string, msg string) {
	a.t.Helper()
	for _, v := range violations {
		if v.Type == expected {
			return
		}
	}
	a.t.Errorf("%s: no violation of type %q in %+v", msg, expected, violations)
	a.failed = true
}

// AssertDisclosed asserts that a responded violation was disclosed with a
// timestamp.
func (a *Assertions) AssertDisclosed(v violation.Violation, msg string) {
	a.t.Helper()
	if !v.Disclosed.Performed || v.Disclosed.At.IsZero() {
		a.t.Errorf("%s: violation %s was not disclosed", msg, v.ID)
		a.failed = true
	}
}
