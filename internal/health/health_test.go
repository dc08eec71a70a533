package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
)

type stubTransport struct {
	name   string
	health provider.HealthStatus
}

func (s *stubTransport) GetName() string                  { return s.name }
func (s *stubTransport) GetHealth() provider.HealthStatus { return s.health }
func (s *stubTransport) IsAvailable() bool                { return s.health.Available }
func (s *stubTransport) Close() error                     { return nil }
func (s *stubTransport) Execute(ctx context.Context, op provider.Operation) (any, error) {
	return nil, nil
}

type stubStore struct {
	err   error
	calls int
}

func (s *stubStore) Health(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name   string
		health provider.HealthStatus
		want   SystemStatus
	}{
		{"healthy", provider.HealthStatus{Available: true, ErrorRate: 0.01}, StatusHealthy},
		{"error rate degraded", provider.HealthStatus{Available: true, ErrorRate: 0.2}, StatusDegraded},
		{"unavailable", provider.HealthStatus{Available: false}, StatusCritical},
		{"throttled", provider.HealthStatus{
			Available:    true,
			MonitorStats: &provider.MonitorStats{Status: provider.StatusThrottled},
		}, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor([]rpc.Provider{&stubTransport{name: "feeder", health: tt.health}}, nil)
			report := m.CheckHealth(context.Background())
			if got := report["feeder"].Status; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCheckHealth_StoreFailureIsCritical(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	m := NewMonitor(nil, map[string]Pinger{"journal": store})

	report := m.Report(context.Background())
	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
	if report.Components["journal"].Error != "connection refused" {
		t.Errorf("store error not reported: %+v", report.Components["journal"])
	}
}

func TestCheckHealth_ReusesRecentReport(t *testing.T) {
	store := &stubStore{}
	m := NewMonitor(nil, map[string]Pinger{"redis": store})

	m.CheckHealth(context.Background())
	m.CheckHealth(context.Background())
	if store.calls != 1 {
		t.Errorf("expected one ping within the cache window, got %d", store.calls)
	}

	m.cacheFor = 0
	m.lastCheck = time.Time{}
	m.CheckHealth(context.Background())
	if store.calls != 2 {
		t.Errorf("expected a fresh ping after the window, got %d", store.calls)
	}
}

func TestServer(t *testing.T) {
	m := NewMonitor(
		[]rpc.Provider{&stubTransport{name: "gateway", health: provider.HealthStatus{Available: true}}},
		map[string]Pinger{"journal": &stubStore{}},
	)
	srv := httptest.NewServer(NewServer(m, ":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != string(StatusHealthy) {
		t.Errorf("expected healthy, got %v", body)
	}

	detailed, err := http.Get(srv.URL + "/health/detailed")
	if err != nil {
		t.Fatalf("GET /health/detailed: %v", err)
	}
	defer detailed.Body.Close()
	var report HealthReport
	if err := json.NewDecoder(detailed.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Components) != 2 {
		t.Errorf("expected 2 components, got %+v", report.Components)
	}

	metricsResp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", metricsResp.StatusCode)
	}
	if ct := metricsResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected metrics content type %q", ct)
	}
}

func TestServer_CriticalReturns503(t *testing.T) {
	m := NewMonitor(nil, map[string]Pinger{"redis": &stubStore{err: errors.New("down")}})
	srv := httptest.NewServer(NewServer(m, ":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}
