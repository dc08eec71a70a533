package network

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/metrics"
	"github.com/vietddude/seqgate/internal/waittx"
)

// StatusCache stores statuses of transactions that reached a terminal state.
type StatusCache interface {
	Get(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, bool, error)
	Set(ctx context.Context, hash domain.TxHash, resp *domain.StatusResponse, ttl time.Duration) error
}

// DefaultL2TTL bounds how long ACCEPTED_ON_L2 is served from cache, since
// it can still advance to ACCEPTED_ON_L1.
const DefaultL2TTL = time.Minute

// CachedProvider serves terminal statuses from a StatusCache. REJECTED and
// ACCEPTED_ON_L1 never change, so they are kept without expiry.
type CachedProvider struct {
	Provider
	cache   StatusCache
	l2TTL   time.Duration
	tracker *waittx.Tracker
	logger  *slog.Logger
}

// NewCachedProvider wraps p.
func NewCachedProvider(p Provider, cache StatusCache, l2TTL time.Duration, wait waittx.Config, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if l2TTL <= 0 {
		l2TTL = DefaultL2TTL
	}
	c := &CachedProvider{
		Provider: p,
		cache:    cache,
		l2TTL:    l2TTL,
		logger:   logger,
	}
	c.tracker = waittx.NewTracker(c, wait, logger)
	return c
}

// Transports returns the transports of the wrapped provider.
func (c *CachedProvider) Transports() []rpc.Provider {
	return Transports(c.Provider)
}

// GetTransactionStatus checks the cache before asking the network.
func (c *CachedProvider) GetTransactionStatus(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, error) {
	if resp, ok, err := c.cache.Get(ctx, hash); err != nil {
		c.logger.Warn("Status cache read failed", "tx_hash", hash, "error", err)
	} else if ok {
		metrics.StatusCacheHits.Inc()
		return resp, nil
	}

	resp, err := c.Provider.GetTransactionStatus(ctx, hash)
	if err != nil {
		return nil, err
	}

	if resp.Status.IsTerminal() {
		var ttl time.Duration
		if resp.Status == domain.TxStatusAcceptedOnL2 {
			ttl = c.l2TTL
		}
		if err := c.cache.Set(ctx, hash, resp, ttl); err != nil {
			c.logger.Warn("Status cache write failed", "tx_hash", hash, "error", err)
		}
	}
	return resp, nil
}

// WaitForTransaction polls through the cache.
func (c *CachedProvider) WaitForTransaction(ctx context.Context, hash domain.TxHash, opts ...waittx.Option) (*domain.StatusResponse, error) {
	return c.tracker.Wait(ctx, hash, opts...)
}

// Close closes the wrapped provider and the cache when they hold resources.
func (c *CachedProvider) Close() error {
	if closer, ok := c.Provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

type memoryEntry struct {
	resp    domain.StatusResponse
	expires time.Time
}

// MemoryStatusCache is an in-process StatusCache.
type MemoryStatusCache struct {
	mu      sync.RWMutex
	entries map[domain.TxHash]memoryEntry
	now     func() time.Time
}

// NewMemoryStatusCache creates an empty cache.
func NewMemoryStatusCache() *MemoryStatusCache {
	return &MemoryStatusCache{
		entries: make(map[domain.TxHash]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStatusCache) Get(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[hash]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, hash)
		m.mu.Unlock()
		return nil, false, nil
	}
	resp := e.resp
	return &resp, true, nil
}

// Set stores resp. A zero ttl keeps the entry forever.
func (m *MemoryStatusCache) Set(ctx context.Context, hash domain.TxHash, resp *domain.StatusResponse, ttl time.Duration) error {
	e := memoryEntry{resp: *resp}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[hash] = e
	m.mu.Unlock()
	return nil
}
