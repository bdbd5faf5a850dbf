// Package worker enforces the at-most-one in-flight operation per session
// guarantee the counseling core assumes. A local mutex map serializes within
// the process; a best-effort Redis lease guards multi-instance deployments.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"counselgo/internal/redis"
)

const (
	leasePrefix = "counselgo:session-lease:"
	leaseTTL    = 3 * time.Minute
)

// ErrSessionBusy is returned when another instance holds the session lease.
var ErrSessionBusy = errors.New("session is already being processed")

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Manager hands out per-session serialization locks.
type Manager struct {
	mu    sync.Mutex
	cache *redis.Client
	locks map[string]*sessionLock
}

// NewManager builds a manager. cache may be nil, which disables the
// cross-instance lease and keeps only in-process serialization.
func NewManager(cache *redis.Client) *Manager {
	return &Manager{
		cache: cache,
		locks: make(map[string]*sessionLock),
	}
}

// Acquire blocks until this process may run the session's next operation,
// then claims the distributed lease. The returned release function must be
// called exactly once. Returns ErrSessionBusy when another instance holds
// the lease.
func (m *Manager) Acquire(ctx context.Context, sessionID string) (func(), error) {
	lock := m.checkout(sessionID)
	lock.mu.Lock()

	if !m.claimLease(ctx, sessionID) {
		lock.mu.Unlock()
		m.checkin(sessionID, lock)
		return nil, ErrSessionBusy
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		m.dropLease(sessionID)
		lock.mu.Unlock()
		m.checkin(sessionID, lock)
	}
	return release, nil
}

func (m *Manager) checkout(sessionID string) *sessionLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		m.locks[sessionID] = lock
	}
	lock.refs++
	return lock
}

func (m *Manager) checkin(sessionID string, lock *sessionLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock.refs--
	if lock.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// claimLease takes the cross-instance lease. Redis being down or absent is
// treated as success: local serialization still holds.
func (m *Manager) claimLease(ctx context.Context, sessionID string) bool {
	if m.cache == nil {
		return true
	}
	ok, err := m.cache.SetNX(ctx, leasePrefix+sessionID, "1", leaseTTL)
	if err != nil {
		log.Printf("session lease unavailable, proceeding locally: %v", err)
		return true
	}
	return ok
}

func (m *Manager) dropLease(sessionID string) {
	if m.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.cache.Del(ctx, leasePrefix+sessionID); err != nil {
		log.Printf("release session lease failed: %v", err)
	}
}
