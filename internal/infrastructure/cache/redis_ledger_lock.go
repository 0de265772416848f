package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared"
	"github.com/kitsbundles/backend/internal/infrastructure/config"
)

// releaseScript deletes the lock only while it is still held by ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLedgerLock is a per-checkout mutex held in Redis. Each holder writes a random
// token so that an expired holder cannot release a lock taken over by someone else.
type RedisLedgerLock struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
	retry     time.Duration
	newToken  func() string
}

var _ bundle.LedgerLocker = (*RedisLedgerLock)(nil)

// NewRedisLedgerLock creates a lock using the timings in cfg.
func NewRedisLedgerLock(client redis.UniversalClient, keyPrefix string, cfg config.LedgerConfig) *RedisLedgerLock {
	return &RedisLedgerLock{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       cfg.LockTTL,
		wait:      cfg.LockWait,
		retry:     cfg.LockRetry,
		newToken:  uuid.NewString,
	}
}

func (l *RedisLedgerLock) key(checkoutID string) string {
	return l.keyPrefix + "ledger:" + checkoutID
}

// Lock blocks until the checkout's lock is acquired, the wait budget is spent or ctx
// is done. Running out of time yields shared.ErrLockNotAcquired.
func (l *RedisLedgerLock) Lock(ctx context.Context, checkoutID string) (func(context.Context) error, error) {
	key := l.key(checkoutID)
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire ledger lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
					return fmt.Errorf("failed to release ledger lock: %w", err)
				}
				return nil
			}, nil
		}

		if !time.Now().Add(l.retry).Before(deadline) {
			return nil, fmt.Errorf("%w: checkout %s", shared.ErrLockNotAcquired, checkoutID)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
