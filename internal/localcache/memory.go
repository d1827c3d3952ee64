package localcache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore はプロセス内だけで保持するキャッシュ (テスト・一時セッション用)
type MemoryStore struct {
	mu       sync.RWMutex
	units    map[UnitKey]UnitEntry
	finished map[CourseKey]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		units:    make(map[UnitKey]UnitEntry),
		finished: make(map[CourseKey]time.Time),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) GetUnit(_ context.Context, key UnitKey) (UnitEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.units[key]
	return e, ok, nil
}

func (s *MemoryStore) PutUnit(_ context.Context, key UnitKey, entry UnitEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[key] = sanitize(entry)
	return nil
}

func (s *MemoryStore) GetFinishedDate(_ context.Context, key CourseKey) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.finished[key]
	return d, ok, nil
}

func (s *MemoryStore) PutFinishedDate(_ context.Context, key CourseKey, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[key] = dateOnly(date)
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := newSnapshot()
	for k, v := range s.units {
		snap.Units[k] = v
	}
	for k, v := range s.finished {
		snap.Finished[k] = v
	}
	return snap, nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.units)
	clear(s.finished)
	return nil
}
