package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/domain/encounter"
)

// Memory is an in-memory Store. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[string]encounter.Record
	markers map[uuid.UUID]Marker
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]encounter.Record),
		markers: make(map[uuid.UUID]Marker),
	}
}

// Seed inserts records without error handling, for test setup.
func (s *Memory) Seed(records ...encounter.Record) *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *Memory) Find(_ context.Context, q Query) ([]encounter.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []encounter.Record
	for _, r := range s.records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) UpdateOne(_ context.Context, id string, rec encounter.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return 0, nil
	}
	rec.ID = id
	s.records[id] = rec
	return 1, nil
}

func (s *Memory) Insert(_ context.Context, rec encounter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return fmt.Errorf("insert: record id is required")
	}
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("insert: record %s already exists", rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *Memory) HasMarker(_ context.Context, migrationID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[migrationID]
	return ok, nil
}

func (s *Memory) InsertMarker(_ context.Context, m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers[m.MigrationID]; ok {
		return fmt.Errorf("insert marker: migration %s already marked", m.MigrationID)
	}
	if m.AppliedAt.IsZero() {
		m.AppliedAt = time.Now().UTC()
	}
	s.markers[m.MigrationID] = m
	return nil
}

// MarkerCount reports how many migration markers exist, for tests.
func (s *Memory) MarkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}
