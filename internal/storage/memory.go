package storage

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	sessions    map[string]SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.sessions = make(map[string]SessionRecord)
	return nil
}

func (s *MemoryStore) SaveSession(_ context.Context, record SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.SchemaVersion = CurrentSchemaVersion
	s.sessions[record.ID] = record
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (SessionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[id]
	return record, ok, nil
}

// ListSessions returns sessions newest-first.
func (s *MemoryStore) ListSessions(_ context.Context) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]SessionRecord, 0, len(s.sessions))
	for _, record := range s.sessions {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtUTC != records[j].CreatedAtUTC {
			return records[i].CreatedAtUTC > records[j].CreatedAtUTC
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}
