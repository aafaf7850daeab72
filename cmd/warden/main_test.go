package main

import (
	"testing"
	"time"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--json", "--timeout=5s", "explain", "apply_change"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.JSON || flags.Timeout != 5*time.Second {
		t.Fatalf("flags not applied: %+v", flags)
	}
	if len(rest) != 2 || rest[0] != "explain" {
		t.Fatalf("remaining args wrong: %v", rest)
	}
}

func TestParseGlobalFlagsConfig(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--config", "/tmp/warden.yaml", "audit", "violations"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if flags.ConfigPath != "/tmp/warden.yaml" {
		t.Fatalf("config path not captured: %q", flags.ConfigPath)
	}
	if len(rest) != 2 || rest[0] != "audit" {
		t.Fatalf("remaining args wrong: %v", rest)
	}
}

func TestParseGlobalFlagsRejectsUnknown(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--bogus"}); err == nil {
		t.Fatalf("unknown flag must be rejected")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 60); got != "short" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	long := "this goal description keeps going well past the display budget for the table"
	got := truncate(long, 20)
	if len(got) != 20 || got[17:] != "..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
