package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quotagate/internal/ratelimit/models"
)

// Key layout, all under the "usage:" prefix:
//
//	usage:d:{day}:{feature}:{user}  hash of count, success, fail, tokens
//	usage:f:{day}:{user}            set of features the user touched that day
//	usage:i:{day}                   set of "{feature}:{user}" touched that day
//	usage:days                      sorted set of days with records, scored by unix seconds
//	usage:m:{period_start}:{user}   period token total
//
// Days and features never contain ':', so user ids may.
const (
	dailyTTL   = 8 * 24 * time.Hour
	monthlyTTL = 62 * 24 * time.Hour

	fieldCount   = "count"
	fieldSuccess = "success"
	fieldFail    = "fail"
	fieldTokens  = "tokens"
)

// RedisStore keeps the ledger in Redis. Increment runs as one MULTI/EXEC
// transaction so the daily hash and the period counter stay consistent.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "usage:"}
}

func (s *RedisStore) dailyKey(day models.Day, feature models.Feature, userID string) string {
	return fmt.Sprintf("%sd:%s:%s:%s", s.prefix, day, feature, userID)
}

func (s *RedisStore) featuresKey(day models.Day, userID string) string {
	return fmt.Sprintf("%sf:%s:%s", s.prefix, day, userID)
}

func (s *RedisStore) dayIndexKey(day models.Day) string {
	return fmt.Sprintf("%si:%s", s.prefix, day)
}

func (s *RedisStore) daysKey() string {
	return s.prefix + "days"
}

func (s *RedisStore) monthlyKey(periodStart models.Day, userID string) string {
	return fmt.Sprintf("%sm:%s:%s", s.prefix, periodStart, userID)
}

func (s *RedisStore) Increment(ctx context.Context, delta models.UsageDelta) (*models.UsageSnapshot, error) {
	dayTime, err := delta.Day.Time()
	if err != nil {
		return nil, err
	}
	success, fail := delta.Counts()
	dk := s.dailyKey(delta.Day, delta.Feature, delta.UserID)
	mk := s.monthlyKey(delta.PeriodStart, delta.UserID)

	var count, succ, failed, tokens, monthly *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.HIncrBy(ctx, dk, fieldCount, 1)
		succ = pipe.HIncrBy(ctx, dk, fieldSuccess, success)
		failed = pipe.HIncrBy(ctx, dk, fieldFail, fail)
		tokens = pipe.HIncrBy(ctx, dk, fieldTokens, delta.Tokens)
		pipe.Expire(ctx, dk, dailyTTL)

		fk := s.featuresKey(delta.Day, delta.UserID)
		pipe.SAdd(ctx, fk, string(delta.Feature))
		pipe.Expire(ctx, fk, dailyTTL)
		ik := s.dayIndexKey(delta.Day)
		pipe.SAdd(ctx, ik, string(delta.Feature)+":"+delta.UserID)
		pipe.Expire(ctx, ik, dailyTTL)
		pipe.ZAdd(ctx, s.daysKey(), redis.Z{Score: float64(dayTime.Unix()), Member: string(delta.Day)})

		monthly = pipe.IncrBy(ctx, mk, delta.Tokens)
		pipe.Expire(ctx, mk, monthlyTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	return &models.UsageSnapshot{
		Record: models.DailyUsageRecord{
			UserID:  delta.UserID,
			Day:     delta.Day,
			Feature: delta.Feature,
			Count:   count.Val(),
			Success: succ.Val(),
			Fail:    failed.Val(),
			Tokens:  tokens.Val(),
		},
		MonthlyTokens: monthly.Val(),
	}, nil
}

func (s *RedisStore) GetDaily(ctx context.Context, userID string, day models.Day, feature models.Feature) (*models.DailyUsageRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.dailyKey(day, feature, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get daily usage: %w", err)
	}
	return parseRecord(userID, day, feature, fields)
}

func (s *RedisStore) ListDaily(ctx context.Context, userID string, day models.Day) ([]models.DailyUsageRecord, error) {
	features, err := s.client.SMembers(ctx, s.featuresKey(day, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list daily features: %w", err)
	}
	sort.Strings(features)

	cmds := make([]*redis.MapStringStringCmd, len(features))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, f := range features {
			cmds[i] = pipe.HGetAll(ctx, s.dailyKey(day, models.Feature(f), userID))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list daily usage: %w", err)
	}

	out := make([]models.DailyUsageRecord, 0, len(features))
	for i, f := range features {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		rec, err := parseRecord(userID, day, models.Feature(f), fields)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *RedisStore) MonthlyTokens(ctx context.Context, userID string, periodStart models.Day) (int64, error) {
	n, err := s.client.Get(ctx, s.monthlyKey(periodStart, userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get monthly tokens: %w", err)
	}
	return n, nil
}

// ResetDailyCounters deletes the hashes of every indexed day before today.
// A deleted hash reads back as a zero record.
func (s *RedisStore) ResetDailyCounters(ctx context.Context, today models.Day) (int64, error) {
	todayTime, err := today.Time()
	if err != nil {
		return 0, err
	}
	days, err := s.client.ZRangeByScore(ctx, s.daysKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(todayTime.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list stale usage days: %w", err)
	}

	var modified int64
	for _, d := range days {
		day := models.Day(d)
		n, err := s.resetDay(ctx, day)
		if err != nil {
			return modified, err
		}
		modified += n
	}
	return modified, nil
}

func (s *RedisStore) resetDay(ctx context.Context, day models.Day) (int64, error) {
	ik := s.dayIndexKey(day)
	members, err := s.client.SMembers(ctx, ik).Result()
	if err != nil {
		return 0, fmt.Errorf("list usage for %s: %w", day, err)
	}

	keys := make([]string, 0, 2*len(members)+1)
	for _, m := range members {
		feature, userID, ok := strings.Cut(m, ":")
		if !ok {
			continue
		}
		keys = append(keys, s.dailyKey(day, models.Feature(feature), userID))
	}
	dailyKeys := len(keys)
	for _, m := range members {
		if _, userID, ok := strings.Cut(m, ":"); ok {
			keys = append(keys, s.featuresKey(day, userID))
		}
	}

	var deleted *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if dailyKeys > 0 {
			deleted = pipe.Del(ctx, keys[:dailyKeys]...)
		}
		if len(keys) > dailyKeys {
			pipe.Del(ctx, keys[dailyKeys:]...)
		}
		pipe.Del(ctx, ik)
		pipe.ZRem(ctx, s.daysKey(), string(day))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset usage for %s: %w", day, err)
	}
	if deleted == nil {
		return 0, nil
	}
	return deleted.Val(), nil
}

func parseRecord(userID string, day models.Day, feature models.Feature, fields map[string]string) (*models.DailyUsageRecord, error) {
	rec := zeroRecord(userID, day, feature)
	for name, dst := range map[string]*int64{
		fieldCount:   &rec.Count,
		fieldSuccess: &rec.Success,
		fieldFail:    &rec.Fail,
		fieldTokens:  &rec.Tokens,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse usage field %s: %w", name, err)
		}
		*dst = n
	}
	return rec, nil
}
