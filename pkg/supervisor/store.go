// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"sync"
	"time"
)

// Record is the persisted shape of an execution: what an external store must
// keep so a halted run can be inspected and resumed across sessions. The
// core defines the shape; it never reaches into storage on a decision path.
type Record struct {
	ID             string
	Goal           string
	Status         Status
	StepsCompleted int
	StepsFailed    int
	HaltReason     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecordOf derives the persisted record from an execution.
func RecordOf(e Execution) Record {
	summary := Summarize(e)
	return Record{
		ID:             summary.ID,
		Goal:           summary.Goal,
		Status:         summary.Status,
		StepsCompleted: summary.StepsCompleted,
		StepsFailed:    summary.StepsFailed,
		HaltReason:     summary.HaltReason,
		CreatedAt:      summary.CreatedAt,
		UpdatedAt:      summary.UpdatedAt,
	}
}

// Store persists execution records.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	List(ctx context.Context, filter RecordFilter) ([]Record, error)
}

// RecordFilter limits record queries.
type RecordFilter struct {
	Status Status
	Limit  int
}

// MemoryStore keeps execution records in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	order   []string
}

// NewMemoryStore returns an in-memory execution store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Save upserts an execution record.
func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = record
	return nil
}

// Get returns the record for the execution id.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	return record, ok, nil
}

// List returns filtered records in insertion order.
func (s *MemoryStore) List(_ context.Context, filter RecordFilter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		record := s.records[id]
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, record)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
