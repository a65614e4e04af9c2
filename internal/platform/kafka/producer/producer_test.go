package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{Brokers: " , "}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestNewDoesNotDial(t *testing.T) {
	// kgo connects lazily, so construction succeeds without a broker.
	p, err := New(Config{Brokers: "127.0.0.1:1", Acks: "1", Retries: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")

	assert.ErrorIs(t, p.Produce(context.Background(), &Message{Topic: "quota-audit"}), ErrClosed)
	assert.ErrorIs(t, p.Healthy(context.Background()), ErrClosed)
}
