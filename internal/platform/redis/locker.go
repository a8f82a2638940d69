package redis

import (
	"context"
	"fmt"
	"time"

	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixLock       = "lock:"
	defaultLockTTL      = 30 * time.Second
	lockRetryInterval   = 25 * time.Millisecond
	maxLockRetryBackoff = 250 * time.Millisecond
)

// releaseScript deletes the lock only while it still carries our token, so
// an expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a lock.Locker shared by every instance using the same Redis.
type Locker struct {
	client *Client
	ttl    time.Duration
}

func NewLocker(client *Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{client: client, ttl: ttl}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := keyPrefixLock + key
	token := uuid.New().String()
	wait := lockRetryInterval

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, lock.ErrLockTimeout
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, lock.ErrLockTimeout
		case <-time.After(wait):
		}
		if wait < maxLockRetryBackoff {
			wait *= 2
		}
	}

	return func() {
		// The caller's context may already be cancelled, release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to release lock")
		}
	}, nil
}
