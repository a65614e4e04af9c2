package allowlist

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// contractSuite runs the same behaviour against every Store.
type contractSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
}

func (s *contractSuite) SetupTest() {
	s.store = s.newStore()
}

func (s *contractSuite) entry(t models.AllowlistEntryType, identifier string, expiresAt *time.Time) *models.AllowlistEntry {
	e, err := models.NewAllowlistEntry(t, identifier, "load test", "ops", expiresAt, now.Add(-time.Minute))
	s.Require().NoError(err)
	return e
}

func (s *contractSuite) TestAddThenIsAllowlisted() {
	ctx := context.Background()
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeIP, "203.0.113.9", nil)))

	ok, err := s.store.IsAllowlisted(ctx, models.AllowlistTypeIP, "203.0.113.9", now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.IsAllowlisted(ctx, models.AllowlistTypeUser, "203.0.113.9", now)
	s.Require().NoError(err)
	s.False(ok, "entries are scoped by type")
}

func (s *contractSuite) TestEmptyIdentifierIsNeverAllowlisted() {
	ok, err := s.store.IsAllowlisted(context.Background(), models.AllowlistTypeUser, "", now)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *contractSuite) TestExpiredEntriesAreInvisible() {
	ctx := context.Background()
	exp := now.Add(time.Minute)
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeUser, "u-1", &exp)))

	ok, err := s.store.IsAllowlisted(ctx, models.AllowlistTypeUser, "u-1", now)
	s.Require().NoError(err)
	s.True(ok)

	later := now.Add(2 * time.Minute)
	ok, err = s.store.IsAllowlisted(ctx, models.AllowlistTypeUser, "u-1", later)
	s.Require().NoError(err)
	s.False(ok)

	list, err := s.store.List(ctx, later)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *contractSuite) TestAddReplacesExistingEntry() {
	ctx := context.Background()
	exp := now.Add(time.Minute)
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeUser, "u-1", &exp)))
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeUser, "u-1", nil)))

	list, err := s.store.List(ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Nil(list[0].ExpiresAt)
}

func (s *contractSuite) TestRemove() {
	ctx := context.Background()
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeIP, "10.0.0.1", nil)))
	s.Require().NoError(s.store.Remove(ctx, models.AllowlistTypeIP, "10.0.0.1"))
	s.Require().NoError(s.store.Remove(ctx, models.AllowlistTypeIP, "never-added"))

	ok, err := s.store.IsAllowlisted(ctx, models.AllowlistTypeIP, "10.0.0.1", now)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *contractSuite) TestDeleteExpired() {
	ctx := context.Background()
	exp := now.Add(time.Minute)
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeUser, "short", &exp)))
	s.Require().NoError(s.store.Add(ctx, s.entry(models.AllowlistTypeUser, "forever", nil)))

	removed, err := s.store.DeleteExpired(ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	removed, err = s.store.DeleteExpired(ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Zero(removed)

	list, err := s.store.List(ctx, now)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("forever", list[0].Identifier)
}
