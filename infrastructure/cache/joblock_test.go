package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"crosspost/infrastructure/cache"
)

// TestJobLock_NilClient verifies the single-instance degradation: without a
// redis client every acquire is granted and release is a no-op.
func TestJobLock_NilClient(t *testing.T) {
	lock := cache.NewJobLock(nil, "instance-1")
	ok, err := lock.Acquire(context.Background(), "publish_orchestrator", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, lock.Release(context.Background(), "publish_orchestrator"))
}
