package allowlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
)

// PostgresStore persists allowlist entries in rate_limit_allowlist.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, entry *models.AllowlistEntry) error {
	if entry == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "allowlist entry is required")
	}
	query := `
		INSERT INTO rate_limit_allowlist (id, entry_type, identifier, reason, expires_at, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (entry_type, identifier) DO UPDATE SET
			reason = EXCLUDED.reason,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at,
			created_by = EXCLUDED.created_by
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Type),
		entry.Identifier,
		entry.Reason,
		entry.ExpiresAt,
		entry.CreatedAt,
		entry.CreatedBy,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "add allowlist entry")
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, entryType models.AllowlistEntryType, identifier string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM rate_limit_allowlist WHERE entry_type = $1 AND identifier = $2`,
		string(entryType), identifier)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "remove allowlist entry")
	}
	return nil
}

func (s *PostgresStore) IsAllowlisted(ctx context.Context, entryType models.AllowlistEntryType, identifier string, now time.Time) (bool, error) {
	if identifier == "" {
		return false, nil
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM rate_limit_allowlist
			WHERE entry_type = $1 AND identifier = $2
			  AND (expires_at IS NULL OR expires_at > $3)
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, string(entryType), identifier, now).Scan(&exists); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "check allowlist")
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context, now time.Time) ([]*models.AllowlistEntry, error) {
	query := `
		SELECT id, entry_type, identifier, reason, expires_at, created_at, created_by
		FROM rate_limit_allowlist
		WHERE expires_at IS NULL OR expires_at > $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "list allowlist entries")
	}
	defer rows.Close()

	entries := []*models.AllowlistEntry{}
	for rows.Next() {
		entry, err := scanAllowlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allowlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "iterate allowlist entries")
	}
	return entries, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rate_limit_allowlist WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "delete expired allowlist entries")
	}
	return res.RowsAffected()
}

type allowlistRow interface {
	Scan(dest ...any) error
}

func scanAllowlistEntry(row allowlistRow) (*models.AllowlistEntry, error) {
	var (
		entry     models.AllowlistEntry
		entryType string
		expiresAt sql.NullTime
	)
	if err := row.Scan(&entry.ID, &entryType, &entry.Identifier, &entry.Reason, &expiresAt, &entry.CreatedAt, &entry.CreatedBy); err != nil {
		return nil, err
	}
	entry.Type = models.AllowlistEntryType(entryType)
	entry.CreatedAt = entry.CreatedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		entry.ExpiresAt = &t
	}
	return &entry, nil
}
