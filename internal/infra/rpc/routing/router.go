// Package routing handles endpoint selection, failover and retry.
//
// This package contains:
//   - Router: round-robin endpoint selection with a circuit breaker
//   - Retry: error classification and retry with exponential backoff
package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
)

// ErrNoProviders is returned when a router has nothing to route to.
var ErrNoProviders = errors.New("no providers configured")

type providerMetrics struct {
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	consecutiveFails int
	circuitOpen      bool
}

// Router spreads operations over the endpoints of one network and fails over
// between them. It satisfies provider.Provider so callers can treat a set of
// endpoints as a single gateway.
type Router struct {
	mu             sync.RWMutex
	name           string
	providers      []provider.Provider
	providerHealth map[string]*providerMetrics
	next           int
	retry          RetryConfig

	circuitThreshold int
	circuitCooldown  time.Duration
}

// NewRouter creates a router for the given endpoints.
func NewRouter(name string, retry RetryConfig, providers ...provider.Provider) *Router {
	r := &Router{
		name:             name,
		providerHealth:   make(map[string]*providerMetrics),
		retry:            retry,
		circuitThreshold: 5,
		circuitCooldown:  30 * time.Second,
	}
	for _, p := range providers {
		r.AddProvider(p)
	}
	return r
}

// AddProvider registers an endpoint.
func (r *Router) AddProvider(p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = append(r.providers, p)
	r.providerHealth[p.GetName()] = &providerMetrics{
		lastSuccessAt: time.Now(),
	}
}

// GetAllProviders returns all endpoints in registration order.
func (r *Router) GetAllProviders() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]provider.Provider, len(r.providers))
	copy(result, r.providers)
	return result
}

// candidates returns endpoints starting at the round-robin cursor, healthy
// ones first. Open circuits are tried last rather than skipped.
func (r *Router) candidates() []provider.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.providers)
	if n == 0 {
		return nil
	}
	start := r.next % n
	r.next = (r.next + 1) % n

	var healthy, degraded []provider.Provider
	for i := 0; i < n; i++ {
		p := r.providers[(start+i)%n]
		m := r.providerHealth[p.GetName()]
		open := m != nil && m.circuitOpen && time.Since(m.lastFailureAt) < r.circuitCooldown
		if open || !p.IsAvailable() {
			degraded = append(degraded, p)
			continue
		}
		healthy = append(healthy, p)
	}
	return append(healthy, degraded...)
}

// Execute runs op on the first endpoint that answers, retrying transient
// errors on each endpoint and failing over on provider-specific ones.
func (r *Router) Execute(ctx context.Context, op provider.Operation) (any, error) {
	providers := r.candidates()
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, p := range providers {
		start := time.Now()
		result, err := CallWithRetry(ctx, p, op, r.retry)
		if err == nil {
			r.RecordSuccess(p.GetName(), time.Since(start))
			return result, nil
		}

		lastErr = err
		switch ClassifyError(err) {
		case ActionFatal:
			return nil, err
		case ActionAnswer:
			// The endpoint is healthy; its answer is final.
			r.RecordSuccess(p.GetName(), time.Since(start))
			return nil, err
		}
		r.RecordFailure(p.GetName(), err)
	}

	if len(providers) == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// RecordSuccess records a successful call.
func (r *Router) RecordSuccess(providerName string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	metrics.successCount++
	metrics.totalLatency += latency
	metrics.lastSuccessAt = time.Now()
	metrics.consecutiveFails = 0
	metrics.circuitOpen = false
}

// RecordFailure records a failed call.
func (r *Router) RecordFailure(providerName string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	metrics.failureCount++
	metrics.lastFailureAt = time.Now()
	metrics.consecutiveFails++

	if metrics.consecutiveFails >= r.circuitThreshold {
		metrics.circuitOpen = true
	}
}

// CircuitOpen reports whether the breaker for an endpoint is open.
func (r *Router) CircuitOpen(providerName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.providerHealth[providerName]
	return ok && m.circuitOpen
}

// GetName returns the router's name.
func (r *Router) GetName() string {
	return r.name
}

// GetHealth reports the best health among endpoints.
func (r *Router) GetHealth() provider.HealthStatus {
	var best provider.HealthStatus
	for i, p := range r.GetAllProviders() {
		h := p.GetHealth()
		if i == 0 || (h.Available && !best.Available) || (h.Available == best.Available && h.ErrorRate < best.ErrorRate) {
			best = h
		}
	}
	return best
}

// IsAvailable reports whether any endpoint is available.
func (r *Router) IsAvailable() bool {
	for _, p := range r.GetAllProviders() {
		if p.IsAvailable() {
			return true
		}
	}
	return false
}

// Close closes every endpoint.
func (r *Router) Close() error {
	var errs []error
	for _, p := range r.GetAllProviders() {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
