package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
)

// Pinger is a backing store that can report reachability.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from transports and backing stores.
type Monitor struct {
	transports []rpc.Provider
	stores     map[string]Pinger
	cacheFor   time.Duration
	lastCheck  time.Time
	lastReport map[string]ComponentHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(transports []rpc.Provider, stores map[string]Pinger) *Monitor {
	if stores == nil {
		stores = make(map[string]Pinger)
	}
	return &Monitor{
		transports: transports,
		stores:     stores,
		cacheFor:   10 * time.Second,
		lastReport: make(map[string]ComponentHealth),
	}
}

// CheckHealth reports every component. Results are reused for a short
// while so scrapes don't ping the stores on every request.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ComponentHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < m.cacheFor && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ComponentHealth)

	for _, t := range m.transports {
		h := transportHealth(t.GetName(), t.GetHealth())
		report[h.Name] = h
	}

	for name, store := range m.stores {
		h := ComponentHealth{Name: name, Kind: "store", Status: StatusHealthy}
		if err := store.Health(ctx); err != nil {
			h.Status = StatusCritical
			h.Error = err.Error()
		}
		report[name] = h
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// Report returns the aggregated report.
func (m *Monitor) Report(ctx context.Context) HealthReport {
	components := m.CheckHealth(ctx)
	return HealthReport{
		SystemStatus: Aggregate(components),
		Components:   components,
	}
}

func transportHealth(name string, hs provider.HealthStatus) ComponentHealth {
	h := ComponentHealth{
		Name:      name,
		Kind:      "transport",
		Status:    StatusHealthy,
		ErrorRate: hs.ErrorRate,
		LatencyMs: hs.Latency.Milliseconds(),
	}

	throttled := hs.MonitorStats != nil && hs.MonitorStats.Status == provider.StatusThrottled
	switch {
	case !hs.Available, hs.ErrorRate > 0.5:
		h.Status = StatusCritical
	case throttled, hs.ErrorRate > 0.1:
		h.Status = StatusDegraded
	}
	return h
}
