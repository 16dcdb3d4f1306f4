package application

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is the in-process SweepLocker used when Redis is disabled
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]time.Time)}
}

type localLease struct {
	locker *LocalLocker
	name   string
	until  time.Time
}

func (l *LocalLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if until, held := l.leases[name]; held && now.Before(until) {
		return nil, nil
	}
	until := now.Add(ttl)
	l.leases[name] = until
	return &localLease{locker: l, name: name, until: until}, nil
}

func (l *localLease) Release(ctx context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	// A lease that expired may already belong to someone else
	if current, ok := l.locker.leases[l.name]; ok && current.Equal(l.until) {
		delete(l.locker.leases, l.name)
	}
	return nil
}
