// Package ledger persists per-user daily usage counters and per-period
// token totals. Every implementation applies an increment atomically: the
// daily record and the period token counter move together or not at all.
package ledger

import (
	"context"

	"quotagate/internal/ratelimit/models"
)

// Store is the usage ledger.
type Store interface {
	// Increment applies delta and returns the state right after it.
	Increment(ctx context.Context, delta models.UsageDelta) (*models.UsageSnapshot, error)
	// GetDaily returns the record for one user, day and feature. A missing
	// record is returned as a zero record, not an error.
	GetDaily(ctx context.Context, userID string, day models.Day, feature models.Feature) (*models.DailyUsageRecord, error)
	// ListDaily returns every record the user has for day.
	ListDaily(ctx context.Context, userID string, day models.Day) ([]models.DailyUsageRecord, error)
	// MonthlyTokens returns the tokens consumed in the billing period
	// starting at periodStart.
	MonthlyTokens(ctx context.Context, userID string, periodStart models.Day) (int64, error)
	// ResetDailyCounters zeroes every non-zero daily record dated before
	// today and returns how many records changed. Period token totals are
	// left alone.
	ResetDailyCounters(ctx context.Context, today models.Day) (int64, error)
}

func zeroRecord(userID string, day models.Day, feature models.Feature) *models.DailyUsageRecord {
	return &models.DailyUsageRecord{UserID: userID, Day: day, Feature: feature}
}
