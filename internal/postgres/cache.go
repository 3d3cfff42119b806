// File path: internal/postgres/cache.go
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/floatchat/floatchat/internal/common"
)

const probeTimeout = 5 * time.Second

// Cache is a best-effort per-worker connection cache, not a pooled
// connection manager with fairness guarantees. Each worker identity owns
// at most one cached session; a handle is created lazily on first use,
// probed with a trivial round trip before reuse, and replaced when the
// probe or a later execution marks it broken. The mutex guards only the
// map lookup and insert, never a database round trip, so one slow query
// cannot serialize unrelated workers.
type Cache struct {
	dial Dialer

	mu      sync.Mutex
	handles map[string]*handle
}

type handle struct {
	conn Conn
	busy bool
}

// NewCache builds a cache around the provided dialer. The dialer is
// injectable so tests can back the cache with a fake store.
func NewCache(dial Dialer) *Cache {
	return &Cache{dial: dial, handles: make(map[string]*handle)}
}

// Acquire returns the live session owned by the worker identity, dialing a
// replacement when the cached one fails its liveness probe. The returned
// release func ends the worker's exclusive use and must be called exactly
// once. If the worker's cached handle is already checked out (two requests
// sharing one identity), the second caller gets an ephemeral session that
// release closes instead of caching.
func (c *Cache) Acquire(ctx context.Context, worker string) (Conn, func(), error) {
	logger := common.Logger()
	if worker == "" {
		worker = "default"
	}

	c.mu.Lock()
	h, ok := c.handles[worker]
	if ok && h.busy {
		c.mu.Unlock()
		logger.Debug("postgres: worker handle busy, dialing ephemeral session", "worker", worker)
		conn, err := c.dial(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("dial database: %w", err)
		}
		release := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			_ = conn.Close(closeCtx)
		}
		return conn, release, nil
	}
	if ok {
		h.busy = true
	}
	c.mu.Unlock()

	if ok {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := h.conn.Ping(probeCtx)
		cancel()
		if err == nil {
			return h.conn, func() { c.checkin(worker, h) }, nil
		}
		logger.Warn("postgres: cached session failed liveness probe, replacing", "worker", worker, "error", err)
		closeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		_ = h.conn.Close(closeCtx)
		cancel()
		c.mu.Lock()
		if c.handles[worker] == h {
			delete(c.handles, worker)
		}
		c.mu.Unlock()
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("dial database: %w", err)
	}
	fresh := &handle{conn: conn, busy: true}
	c.mu.Lock()
	if existing, exists := c.handles[worker]; exists && existing.busy {
		// Lost a race for the worker key; keep the new session ephemeral.
		c.mu.Unlock()
		release := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			_ = conn.Close(closeCtx)
		}
		return conn, release, nil
	}
	c.handles[worker] = fresh
	c.mu.Unlock()
	logger.Debug("postgres: cached new session", "worker", worker)
	return conn, func() { c.checkin(worker, fresh) }, nil
}

func (c *Cache) checkin(worker string, h *handle) {
	c.mu.Lock()
	if c.handles[worker] == h {
		h.busy = false
	}
	c.mu.Unlock()
}

// Invalidate discards the worker's cached session. The executor calls this
// after an error that indicates a broken session so the next acquire dials
// a fresh one.
func (c *Cache) Invalidate(worker string) {
	if worker == "" {
		worker = "default"
	}
	c.mu.Lock()
	h, ok := c.handles[worker]
	if ok {
		delete(c.handles, worker)
	}
	c.mu.Unlock()
	if ok {
		closeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		_ = h.conn.Close(closeCtx)
	}
}

// Close discards every cached session. Intended for process shutdown.
func (c *Cache) Close() {
	c.mu.Lock()
	handles := c.handles
	c.handles = make(map[string]*handle)
	c.mu.Unlock()
	for _, h := range handles {
		closeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		_ = h.conn.Close(closeCtx)
		cancel()
	}
}
