package ledger

import (
	"context"
	"sort"
	"sync"

	"quotagate/internal/ratelimit/models"
)

type dailyKey struct {
	userID  string
	day     models.Day
	feature models.Feature
}

type monthlyKey struct {
	userID      string
	periodStart models.Day
}

// InMemoryStore is a process-local ledger for tests and single-node setups.
type InMemoryStore struct {
	mu      sync.RWMutex
	daily   map[dailyKey]*models.DailyUsageRecord
	monthly map[monthlyKey]int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		daily:   make(map[dailyKey]*models.DailyUsageRecord),
		monthly: make(map[monthlyKey]int64),
	}
}

func (s *InMemoryStore) Increment(_ context.Context, delta models.UsageDelta) (*models.UsageSnapshot, error) {
	success, fail := delta.Counts()
	dk := dailyKey{userID: delta.UserID, day: delta.Day, feature: delta.Feature}
	mk := monthlyKey{userID: delta.UserID, periodStart: delta.PeriodStart}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.daily[dk]
	if !ok {
		rec = zeroRecord(delta.UserID, delta.Day, delta.Feature)
		s.daily[dk] = rec
	}
	rec.Count++
	rec.Success += success
	rec.Fail += fail
	rec.Tokens += delta.Tokens
	s.monthly[mk] += delta.Tokens

	return &models.UsageSnapshot{Record: *rec, MonthlyTokens: s.monthly[mk]}, nil
}

func (s *InMemoryStore) GetDaily(_ context.Context, userID string, day models.Day, feature models.Feature) (*models.DailyUsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.daily[dailyKey{userID: userID, day: day, feature: feature}]; ok {
		out := *rec
		return &out, nil
	}
	return zeroRecord(userID, day, feature), nil
}

func (s *InMemoryStore) ListDaily(_ context.Context, userID string, day models.Day) ([]models.DailyUsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DailyUsageRecord
	for k, rec := range s.daily {
		if k.userID == userID && k.day == day {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out, nil
}

func (s *InMemoryStore) MonthlyTokens(_ context.Context, userID string, periodStart models.Day) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monthly[monthlyKey{userID: userID, periodStart: periodStart}], nil
}

func (s *InMemoryStore) ResetDailyCounters(_ context.Context, today models.Day) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for k, rec := range s.daily {
		if k.day >= today {
			continue
		}
		if rec.Count > 0 || rec.Tokens > 0 {
			modified++
		}
		delete(s.daily, k)
	}
	return modified, nil
}
