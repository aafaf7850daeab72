// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atelier-ide/warden/pkg/core"
	"github.com/atelier-ide/warden/pkg/errors"
)

// PendingLedger holds transitions awaiting acknowledgment. Entries expire
// after the TTL: a power escalation proposed an hour ago must not be
// acknowledgeable against whatever the session looks like now.
type PendingLedger struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	ttl     time.Duration
	logger  *slog.Logger
	emitter core.EventEmitter
}

type pendingEntry struct {
	transition PendingTransition
	expiresAt  time.Time
}

// LedgerOption configures a PendingLedger.
type LedgerOption func(*PendingLedger)

// WithLedgerTTL sets how long a pending transition stays acknowledgeable.
func WithLedgerTTL(ttl time.Duration) LedgerOption {
	return func(l *PendingLedger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLedgerLogger sets the structured logger.
func WithLedgerLogger(logger *slog.Logger) LedgerOption {
	return func(l *PendingLedger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLedgerEmitter sets the event emitter for expiry events.
func WithLedgerEmitter(emitter core.EventEmitter) LedgerOption {
	return func(l *PendingLedger) {
		if emitter != nil {
			l.emitter = emitter
		}
	}
}

// NewPendingLedger creates a ledger with a 5 minute default TTL.
func NewPendingLedger(opts ...LedgerOption) *PendingLedger {
	l := &PendingLedger{
		entries: make(map[string]pendingEntry),
		ttl:     5 * time.Minute,
		logger:  slog.Default(),
		emitter: core.NoopEventEmitter{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add records a pending transition.
func (l *PendingLedger) Add(pending PendingTransition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[pending.ID] = pendingEntry{
		transition: pending,
		expiresAt:  time.Now().UTC().Add(l.ttl),
	}
}

// Take removes and returns the pending transition for acknowledgment. An
// expired entry is removed and reported as such; it can never be
// acknowledged.
func (l *PendingLedger) Take(id string) (PendingTransition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[id]
	if !ok {
		return PendingTransition{}, errors.New(errors.CodeInvalidInput,
			"no pending transition with id "+id, nil)
	}
	delete(l.entries, id)

	if time.Now().UTC().After(entry.expiresAt) {
		return PendingTransition{}, errors.New(errors.CodeStructural,
			"pending transition "+entry.transition.Op.Name()+" expired before acknowledgment", nil)
	}
	return entry.transition, nil
}

// Pending returns the ids of all unexpired pending transitions.
func (l *PendingLedger) Pending() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	ids := make([]string, 0, len(l.entries))
	for id, entry := range l.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Expire removes all expired entries and returns how many were dropped.
func (l *PendingLedger) Expire(ctx context.Context) (int, error) {
	l.mu.Lock()
	now := time.Now().UTC()
	var expired []PendingTransition
	for id, entry := range l.entries {
		if now.After(entry.expiresAt) {
			expired = append(expired, entry.transition)
			delete(l.entries, id)
		}
	}
	l.mu.Unlock()

	for _, pending := range expired {
		l.logger.Info("state.pending.expired",
			slog.String("op", pending.Op.Name()),
			slog.String("pending_id", pending.ID),
		)
		l.emitter.Emit(ctx, core.NewEvent(core.EventTransition, runID(ctx), map[string]any{
			"op":      pending.Op.Name(),
			"outcome": "expired",
			"trigger": pending.Trigger,
		}))
	}
	return len(expired), nil
}

// StartSweeper expires stale entries on the interval until the context is
// canceled.
func (l *PendingLedger) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := l.Expire(ctx); err == nil && n > 0 {
					l.logger.Info("state.pending.sweep", slog.Int("expired", n))
				}
			}
		}
	}()
}
