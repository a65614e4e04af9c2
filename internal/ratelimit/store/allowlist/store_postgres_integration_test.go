//go:build integration

package allowlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"quotagate/pkg/testutil/containers"
)

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	s := new(contractSuite)
	s.newStore = func() Store {
		s.Require().NoError(pg.TruncateTables(context.Background(), "rate_limit_allowlist"))
		return NewPostgres(pg.DB)
	}
	suite.Run(t, s)
}
