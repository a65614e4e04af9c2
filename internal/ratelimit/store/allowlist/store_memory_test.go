package allowlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"quotagate/internal/ratelimit/models"
)

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(contractSuite)
	s.newStore = func() Store { return NewInMemory() }
	suite.Run(t, s)
}

func TestInMemoryStore_ListReturnsCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	entry, err := models.NewAllowlistEntry(models.AllowlistTypeIP, "10.0.0.1", "probe", "ops", nil, now)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, entry))

	list, err := store.List(ctx, now)
	require.NoError(t, err)
	list[0].Reason = "mutated"

	again, err := store.List(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "probe", again[0].Reason)
}
