package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNotHeld is returned when releasing a lease that expired or belongs to another holder
var ErrNotHeld = errors.New("lock not held")

// unlockScript deletes the key only if it still holds our token
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker hands out leases so only one process runs a sweep for a guild at a time
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a locker whose keys live under prefix
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// Lease is an acquired lock
type Lease struct {
	client *redis.Client
	key    string
	token  string
}

// TryAcquire takes the lease for name if nobody holds it. A nil lease means it is taken.
func (l *RedisLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	key := l.prefix + name
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lease{client: l.client, key: key, token: token}, nil
}

// Release gives the lease back
func (l *Lease) Release(ctx context.Context) error {
	deleted, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}

// Key returns the redis key of the lease
func (l *Lease) Key() string {
	return l.key
}
