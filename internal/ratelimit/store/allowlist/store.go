// Package allowlist stores rate-limit exemptions.
package allowlist

import (
	"context"
	"time"

	"quotagate/internal/ratelimit/models"
)

// Store persists allowlist entries. Expired entries are invisible to
// IsAllowlisted and List; DeleteExpired reclaims them.
type Store interface {
	Add(ctx context.Context, entry *models.AllowlistEntry) error
	Remove(ctx context.Context, entryType models.AllowlistEntryType, identifier string) error
	IsAllowlisted(ctx context.Context, entryType models.AllowlistEntryType, identifier string, now time.Time) (bool, error)
	List(ctx context.Context, now time.Time) ([]*models.AllowlistEntry, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
