package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quotagate/internal/ratelimit/models"
)

// PostgresStore persists the ledger in usage_daily and usage_monthly_tokens.
// It is pure I/O: limits and decisions belong to the quota service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Increment(ctx context.Context, delta models.UsageDelta) (*models.UsageSnapshot, error) {
	day, err := delta.Day.Time()
	if err != nil {
		return nil, err
	}
	periodStart, err := delta.PeriodStart.Time()
	if err != nil {
		return nil, err
	}
	success, fail := delta.Counts()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin usage tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var snap models.UsageSnapshot
	rec, err := scanDailyRecord(tx.QueryRowContext(ctx, `
		INSERT INTO usage_daily (user_id, usage_date, feature, tokens, count, success, fail)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
		ON CONFLICT (user_id, usage_date, feature) DO UPDATE SET
			tokens = usage_daily.tokens + EXCLUDED.tokens,
			count = usage_daily.count + EXCLUDED.count,
			success = usage_daily.success + EXCLUDED.success,
			fail = usage_daily.fail + EXCLUDED.fail,
			updated_at = NOW()
		RETURNING user_id, usage_date, feature, tokens, count, success, fail
	`, delta.UserID, day, string(delta.Feature), delta.Tokens, success, fail))
	if err != nil {
		return nil, fmt.Errorf("upsert daily usage: %w", err)
	}
	snap.Record = *rec

	err = tx.QueryRowContext(ctx, `
		INSERT INTO usage_monthly_tokens (user_id, period_start, tokens)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, period_start) DO UPDATE SET
			tokens = usage_monthly_tokens.tokens + EXCLUDED.tokens,
			updated_at = NOW()
		RETURNING tokens
	`, delta.UserID, periodStart, delta.Tokens).Scan(&snap.MonthlyTokens)
	if err != nil {
		return nil, fmt.Errorf("upsert monthly tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit usage tx: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStore) GetDaily(ctx context.Context, userID string, day models.Day, feature models.Feature) (*models.DailyUsageRecord, error) {
	dayTime, err := day.Time()
	if err != nil {
		return nil, err
	}
	rec, err := scanDailyRecord(s.db.QueryRowContext(ctx, `
		SELECT user_id, usage_date, feature, tokens, count, success, fail
		FROM usage_daily
		WHERE user_id = $1 AND usage_date = $2 AND feature = $3
	`, userID, dayTime, string(feature)))
	if errors.Is(err, sql.ErrNoRows) {
		return zeroRecord(userID, day, feature), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily usage: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListDaily(ctx context.Context, userID string, day models.Day) ([]models.DailyUsageRecord, error) {
	dayTime, err := day.Time()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, usage_date, feature, tokens, count, success, fail
		FROM usage_daily
		WHERE user_id = $1 AND usage_date = $2
		ORDER BY feature
	`, userID, dayTime)
	if err != nil {
		return nil, fmt.Errorf("list daily usage: %w", err)
	}
	defer rows.Close()

	var out []models.DailyUsageRecord
	for rows.Next() {
		rec, err := scanDailyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily usage: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily usage: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MonthlyTokens(ctx context.Context, userID string, periodStart models.Day) (int64, error) {
	start, err := periodStart.Time()
	if err != nil {
		return 0, err
	}
	var tokens int64
	err = s.db.QueryRowContext(ctx, `
		SELECT tokens FROM usage_monthly_tokens WHERE user_id = $1 AND period_start = $2
	`, userID, start).Scan(&tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get monthly tokens: %w", err)
	}
	return tokens, nil
}

// ResetDailyCounters only touches non-zero rows, so running it twice for
// the same day modifies nothing the second time.
func (s *PostgresStore) ResetDailyCounters(ctx context.Context, today models.Day) (int64, error) {
	cutoff, err := today.Time()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE usage_daily
		SET tokens = 0, count = 0, success = 0, fail = 0, updated_at = NOW()
		WHERE usage_date < $1 AND (count > 0 OR tokens > 0)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reset daily usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset daily usage rows: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyRecord(row rowScanner) (*models.DailyUsageRecord, error) {
	var rec models.DailyUsageRecord
	var day time.Time
	var feature string
	if err := row.Scan(&rec.UserID, &day, &feature, &rec.Tokens, &rec.Count, &rec.Success, &rec.Fail); err != nil {
		return nil, err
	}
	rec.Day = models.DayOf(day)
	rec.Feature = models.Feature(feature)
	return &rec, nil
}
