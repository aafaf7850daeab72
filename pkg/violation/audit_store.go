// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package violation

import (
	"context"
	"sync"
)

// AuditStore persists responded violations for later inspection.
type AuditStore interface {
	Save(ctx context.Context, v Violation) error
	Get(ctx context.Context, id string) (Violation, bool, error)
	List(ctx context.Context, filter AuditFilter) ([]Violation, error)
}

// AuditFilter limits audit queries.
type AuditFilter struct {
	Type       Type
	Severity   Severity
	Unresolved bool
	Limit      int
}

// MemoryAuditStore keeps violations in memory, in detection order.
type MemoryAuditStore struct {
	mu         sync.Mutex
	violations map[string]Violation
	order      []string
}

// NewMemoryAuditStore returns an in-memory audit store.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{violations: make(map[string]Violation)}
}

// Save upserts a violation record.
func (s *MemoryAuditStore) Save(_ context.Context, v Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.violations[v.ID]; !exists {
		s.order = append(s.order, v.ID)
	}
	s.violations[v.ID] = v
	return nil
}

// Get returns the violation with the given id.
func (s *MemoryAuditStore) Get(_ context.Context, id string) (Violation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.violations[id]
	return v, ok, nil
}

// List returns filtered violations in detection order.
func (s *MemoryAuditStore) List(_ context.Context, filter AuditFilter) ([]Violation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Violation, 0, len(s.order))
	for _, id := range s.order {
		v := s.violations[id]
		if !matchesFilter(v, filter) {
			continue
		}
		out = append(out, v)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func matchesFilter(v Violation, filter AuditFilter) bool {
	if filter.Type != "" && v.Type != filter.Type {
		return false
	}
	if filter.Severity != "" && v.Severity != filter.Severity {
		return false
	}
	if filter.Unresolved && v.Resolved() {
		return false
	}
	return true
}
