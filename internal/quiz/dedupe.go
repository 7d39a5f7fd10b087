package quiz

import (
	"context"
	"sync"
	"time"
)

// Dedup helpers live here so service.go can focus on orchestration.

// fingerprint is the composite dedup key: two events sharing it within
// the recency window are the same logical submission.
func fingerprint(userID, qid, chosen string) string {
	return "dup|" + userID + "|" + qid + "|" + chosen
}

// ttlCache is the fast-path duplicate check. It is a best-effort
// short-circuit only; correctness rests on the locked durable scan.
type ttlCache struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func newTTLCache(now func() time.Time) *ttlCache {
	return &ttlCache{expires: map[string]time.Time{}, now: now}
}

func (c *ttlCache) Get(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp, ok := c.expires[key]
	if !ok {
		return false
	}
	if c.now().After(exp) {
		delete(c.expires, key)
		return false
	}
	return true
}

func (c *ttlCache) Put(key string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	// Opportunistic sweep keeps the map from accumulating dead keys.
	for k, exp := range c.expires {
		if now.After(exp) {
			delete(c.expires, k)
		}
	}
	c.expires[key] = now.Add(ttl)
}

// timedLock is a mutex with a bounded wait. One lock guards the whole
// scan-then-append critical section for all users.
type timedLock struct {
	ch chan struct{}
}

func newTimedLock() *timedLock {
	return &timedLock{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is held, the wait elapses, or ctx is
// canceled. Failing the wait is fatal for the request, never silent.
func (l *timedLock) Acquire(ctx context.Context, wait time.Duration) error {
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-t.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *timedLock) Release() {
	<-l.ch
}
