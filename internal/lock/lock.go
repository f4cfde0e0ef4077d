// Package lock provides the claim-scoped mutual exclusion the processing
// pipeline relies on: at most one concurrent processing attempt per claim_id.
package lock

import (
	"context"
	"sync"

	"claims-service/internal/apperrors"
)

// Locker acquires a claim-scoped lock. Acquire returns a ConflictError when
// the claim is already being processed; the returned release function is
// always safe to call once.
type Locker interface {
	Acquire(ctx context.Context, claimID string) (release func(), err error)
}

// MemoryLocker is the in-process Locker used when Redis is not configured
// (single-instance deployments and tests).
type MemoryLocker struct {
	mu     sync.Mutex
	locked map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locked: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(_ context.Context, claimID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locked[claimID]; held {
		return nil, apperrors.Conflict("claim " + claimID + " is already being processed")
	}
	l.locked[claimID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.locked, claimID)
			l.mu.Unlock()
		})
	}, nil
}
