package allowlist

import (
	"context"
	"sort"
	"sync"
	"time"

	"quotagate/internal/ratelimit/models"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*models.AllowlistEntry // keyed by "{type}:{identifier}"
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]*models.AllowlistEntry),
	}
}

func (s *InMemoryStore) Add(_ context.Context, entry *models.AllowlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[buildKey(entry.Type, entry.Identifier)] = &cp
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, entryType models.AllowlistEntryType, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, buildKey(entryType, identifier))
	return nil
}

func (s *InMemoryStore) IsAllowlisted(_ context.Context, entryType models.AllowlistEntryType, identifier string, now time.Time) (bool, error) {
	if identifier == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[buildKey(entryType, identifier)]
	return ok && entry.ActiveAt(now), nil
}

// List returns active entries ordered by creation time.
func (s *InMemoryStore) List(_ context.Context, now time.Time) ([]*models.AllowlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AllowlistEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.ActiveAt(now) {
			cp := *entry
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, entry := range s.entries {
		if !entry.ActiveAt(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func buildKey(entryType models.AllowlistEntryType, identifier string) string {
	return string(entryType) + ":" + identifier
}
