package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := stderrors.New("underlying")
	err := New(CodeRejected, "action not permitted", cause)
	if !strings.Contains(err.Error(), "REJECTED") {
		t.Fatalf("expected code in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "underlying") {
		t.Fatalf("expected cause in message, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause")
	}
}

func TestErrorChaining(t *testing.T) {
	err := New(CodeLimitBreach, "steps exhausted", nil).
		WithContext("metric", "maxStepsPerTask").
		WithAttribute("severity", "exceeded").
		WithRecoverable(true)

	if err.Context["metric"] != "maxStepsPerTask" {
		t.Fatalf("context not recorded")
	}
	if err.Attributes["severity"] != "exceeded" {
		t.Fatalf("attribute not recorded")
	}
	if !err.Recoverable {
		t.Fatalf("expected recoverable")
	}
	if err.RecoverableString() != "true" {
		t.Fatalf("unexpected recoverable string")
	}
}

func TestAsWardenError(t *testing.T) {
	if AsWardenError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}

	plain := stderrors.New("plain")
	wrapped := AsWardenError(plain)
	if wrapped.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", wrapped.Code)
	}

	typed := New(CodeViolation, "scope exceeded", nil)
	if AsWardenError(typed) != typed {
		t.Fatalf("typed error should pass through unchanged")
	}
}
