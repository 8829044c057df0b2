package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgate/opsgate/internal/shared"
)

func newTestThrottle(t *testing.T, limit int) (*Throttle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewThrottle(client, limit, time.Minute), mr
}

func TestThrottleAllowsWithinLimit(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3)
	for i := 0; i < 3; i++ {
		assert.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
	}
}

func TestThrottleBlocksOverLimit(t *testing.T) {
	throttle, _ := newTestThrottle(t, 2)
	require.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
	require.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))

	err := throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrRateLimited))

	// A different address keeps its own window.
	assert.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.2"))
}

func TestThrottleResetClearsWindow(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1)
	require.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
	require.Error(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))

	throttle.Reset(context.Background(), "op@opsgate.local", "10.0.0.1")
	assert.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
}

func TestThrottleWindowExpires(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1)
	require.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
	require.Error(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
}

func TestNilThrottleAllowsEverything(t *testing.T) {
	var throttle *Throttle
	assert.NoError(t, throttle.Allow(context.Background(), "op@opsgate.local", "10.0.0.1"))
	throttle.Reset(context.Background(), "op@opsgate.local", "10.0.0.1")
}
