package cmd

import (
	"context"
	"time"

	"quizbot/application"
	"quizbot/infrastructure/lock"
)

// redisSweepLocker adapts lock.RedisLocker to application.SweepLocker
type redisSweepLocker struct {
	locker *lock.RedisLocker
}

func (l *redisSweepLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (application.Lease, error) {
	lease, err := l.locker.TryAcquire(ctx, name, ttl)
	if err != nil || lease == nil {
		// a nil *lock.Lease must not become a non-nil Lease
		return nil, err
	}
	return lease, nil
}
