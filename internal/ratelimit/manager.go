// Package ratelimit enforces fixed-window request budgets in Redis so that
// several service replicas share one count per client.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Manager provides Redis-backed rate limiting
type Manager struct {
	redis *redis.Client
	rpm   int
	now   func() time.Time
}

// New returns a Manager allowing rpm requests per client, method and path
// in each minute window. A nil client yields a Manager that allows
// everything.
func New(client *redis.Client, rpm int) *Manager {
	return &Manager{redis: client, rpm: rpm, now: time.Now}
}

// Limit is the configured requests-per-minute budget
func (m *Manager) Limit() int {
	return m.rpm
}

// Enabled reports whether limits are actually enforced
func (m *Manager) Enabled() bool {
	return m != nil && m.redis != nil && m.rpm > 0
}

func windowKey(clientID, method, path string, window int64) string {
	return fmt.Sprintf("rl:%s:%s:%s:%d", clientID, method, path, window)
}

// CheckRate counts one request and returns allowed=false once the bucket is
// exhausted, along with the seconds left in the current window and the
// remaining budget.
func (m *Manager) CheckRate(ctx context.Context, clientID, method, path string) (allowed bool, resetSec int, remaining int, err error) {
	if !m.Enabled() {
		return true, 0, 0, nil
	}
	now := m.now().UTC()
	window := now.Unix() / 60
	rk := windowKey(clientID, method, path, window)

	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, rk)
	pipe.Expire(ctx, rk, time.Minute)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, 0, fmt.Errorf("rate limit %s: %w", rk, err)
	}

	count := int(incr.Val())
	resetSec = 60 - int(now.Unix()%60)
	remaining = m.rpm - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= m.rpm, resetSec, remaining, nil
}
