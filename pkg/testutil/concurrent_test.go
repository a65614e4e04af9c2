package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "quotagate/pkg/domain-errors"
)

func TestRunConcurrentCategorizes(t *testing.T) {
	res := RunConcurrent(30, func(idx int) error {
		switch idx % 3 {
		case 0:
			return nil
		case 1:
			return dErrors.New(dErrors.CodeStoreUnavailable, "redis down")
		default:
			return errors.New("boom")
		}
	})

	assert.Equal(t, int32(10), res.Successes)
	assert.Equal(t, int32(10), res.Unavailable)
	assert.Equal(t, int32(10), res.Errors)
	assert.Equal(t, int32(30), res.Total())
}
