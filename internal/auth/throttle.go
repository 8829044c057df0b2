package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsgate/opsgate/internal/shared"
)

// Throttle counts login attempts per email+address pair in a fixed window.
// A nil Throttle allows everything.
type Throttle struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewThrottle constructs a Throttle.
func NewThrottle(client *redis.Client, limit int, window time.Duration) *Throttle {
	return &Throttle{client: client, limit: limit, window: window}
}

// Allow records one attempt and reports whether it is within the limit.
func (t *Throttle) Allow(ctx context.Context, email, addr string) error {
	if t == nil || t.client == nil || t.limit <= 0 {
		return nil
	}
	key := fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(strings.TrimSpace(email)), addr)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		// Redis being down must not lock operators out.
		return nil
	}
	if count == 1 {
		t.client.Expire(ctx, key, t.window)
	}
	if count > int64(t.limit) {
		return fmt.Errorf("%w: too many login attempts, try again later", shared.ErrRateLimited)
	}
	return nil
}

// Reset clears the attempt counter after a successful login.
func (t *Throttle) Reset(ctx context.Context, email, addr string) {
	if t == nil || t.client == nil {
		return
	}
	key := fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(strings.TrimSpace(email)), addr)
	t.client.Del(ctx, key)
}
