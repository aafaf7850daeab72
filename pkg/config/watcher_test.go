package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, payload string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	writeConfig(t, path, "budget:\n  max_steps_per_task: 10\n")

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if w.Config().Budget.MaxStepsPerTask != 10 {
		t.Fatalf("initial config not loaded")
	}

	changed := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// mtime granularity on some filesystems is one second
	time.Sleep(1100 * time.Millisecond)
	writeConfig(t, path, "budget:\n  max_steps_per_task: 30\n")

	select {
	case cfg := <-changed:
		if cfg.Budget.MaxStepsPerTask != 30 {
			t.Fatalf("reloaded config missing new limit: %d", cfg.Budget.MaxStepsPerTask)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("reload never happened")
	}
}

func TestWatcherKeepsPreviousConfigOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	time.Sleep(1100 * time.Millisecond)
	writeConfig(t, path, "governance:\n  default_mode: bogus\n")
	time.Sleep(200 * time.Millisecond)

	if w.Config().Log.Level != "info" {
		t.Fatalf("bad reload must keep the previous configuration")
	}
}

func TestReloadableConfig(t *testing.T) {
	first, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := NewReloadableConfig(first)

	second := *first
	second.Log.Level = "debug"
	r.Update(&second)

	if r.Get().Log.Level != "debug" {
		t.Fatalf("update not visible")
	}
}
