//go:build integration

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"quotagate/internal/platform/database"
	"quotagate/internal/ratelimit/models"
	"quotagate/migrations"
	"quotagate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	contractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(PostgresStoreSuite)
	s.newStore = func() Store {
		s.Require().NoError(s.postgres.TruncateLedger(context.Background()))
		return NewPostgres(s.postgres.DB)
	}
	suite.Run(t, s)
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresStoreSuite) TestResetKeepsRowsButZeroesThem() {
	ctx := context.Background()
	_, err := s.store.Increment(ctx, delta("u1", yesterday, models.FeatureArticleWriter, 7, models.UsageSuccess))
	s.Require().NoError(err)

	_, err = s.store.ResetDailyCounters(ctx, today)
	s.Require().NoError(err)

	var rows int
	err = s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_daily WHERE count = 0 AND tokens = 0`).Scan(&rows)
	s.Require().NoError(err)
	s.Equal(1, rows)
}

func (s *PostgresStoreSuite) TestMigrationsAreReapplicable() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Pool.Health(ctx))
	s.Require().NoError(database.Migrate(ctx, s.postgres.DB, migrations.FS))
}
