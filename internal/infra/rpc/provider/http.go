package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietddude/seqgate/internal/metrics"
)

// HTTPProvider implements Provider for REST and JSON-RPC over HTTP.
type HTTPProvider struct {
	name       string
	endpoint   string
	httpClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a new HTTP-based provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
		Monitor: NewProviderMonitor(),
	}
}

// Execute runs an operation as a REST or JSON-RPC request.
func (p *HTTPProvider) Execute(ctx context.Context, op Operation) (any, error) {
	ctx, span := otel.Tracer("seqgate/transport").Start(ctx, "gateway."+op.Name,
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.name),
		attribute.Bool("rest", op.IsREST),
	)

	metrics.GatewayRequestsTotal.WithLabelValues(p.name, op.Name).Inc()
	start := time.Now()

	var (
		result any
		err    error
	)
	switch {
	case op.Invoke != nil:
		result, err = op.Invoke(ctx)
	case op.IsREST:
		result, err = p.callREST(ctx, op)
	default:
		params, _ := op.Params.([]any)
		if op.Params != nil && params == nil {
			result, err = p.call(ctx, op.Name, op.Params)
		} else {
			result, err = p.Call(ctx, op.Name, params)
		}
	}

	metrics.GatewayLatency.WithLabelValues(p.name, op.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues(p.name, op.Name, errorType(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// Call makes a single JSON-RPC 2.0 call with positional params.
func (p *HTTPProvider) Call(ctx context.Context, method string, params []any) (any, error) {
	if params == nil {
		params = []any{}
	}
	return p.call(ctx, method, params)
}

func (p *HTTPProvider) call(ctx context.Context, method string, params any) (any, error) {
	if status := p.Monitor.CheckProviderStatus(); status == StatusThrottled {
		return nil, fmt.Errorf("provider throttled, retry after: %v", p.Monitor.GetRetryAfter())
	}

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      uuid.NewString(),
	}

	body, err := p.do(ctx, http.MethodPost, p.endpoint, reqBody)
	if err != nil {
		return nil, err
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		if p.Monitor.DetectThrottlePattern(rpcResp.Error.Message) {
			p.recordFailure()
			return nil, fmt.Errorf("throttle in rpc error: %w", rpcResp.Error)
		}
		// The request reached a healthy node; the error is the node's answer.
		return nil, rpcResp.Error
	}

	var result any
	if len(rpcResp.Result) > 0 {
		if err := decodeJSON(rpcResp.Result, &result); err != nil {
			return nil, fmt.Errorf("parse result: %w", err)
		}
	}
	return result, nil
}

func (p *HTTPProvider) callREST(ctx context.Context, op Operation) (any, error) {
	target := p.endpoint + "/" + strings.TrimLeft(op.Name, "/")
	if len(op.Query) > 0 {
		q := url.Values{}
		for k, v := range op.Query {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	method := op.RESTMethod
	if method == "" {
		method = http.MethodGet
	}

	body, err := p.do(ctx, method, target, op.Params)
	if err != nil {
		return nil, err
	}

	var result any
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if err := decodeJSON(body, &result); err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return result, nil
}

// do sends the request and returns the body of a 2xx response.
func (p *HTTPProvider) do(ctx context.Context, method, target string, payload any) ([]byte, error) {
	start := time.Now()

	var reader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			p.recordFailure()
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		p.Monitor.RecordThrottle(http.StatusTooManyRequests, retryAfter)
		p.recordFailure()
		return nil, fmt.Errorf("rate limited (429), retry after: %s", retryAfter)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 && p.Monitor.DetectThrottlePattern(string(body)) {
			p.recordFailure()
			return nil, fmt.Errorf("throttle detected in response: %s", string(body))
		}
		// 4xx and gateway error bodies are answers, not outages.
		if resp.StatusCode >= 500 && !looksLikeGatewayError(body) {
			p.recordFailure()
		} else {
			p.recordSuccess(latency)
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	p.Monitor.RecordRequest(latency)
	p.recordSuccess(latency)
	return body, nil
}

// decodeJSON keeps numbers as json.Number so felts wider than 53 bits
// are not rounded through float64.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// looksLikeGatewayError reports whether a 5xx body is a structured gateway answer
// such as {"code": "StarknetErrorCode.UNINITIALIZED_CONTRACT", ...}.
func looksLikeGatewayError(body []byte) bool {
	return ParseGatewayError(body).Code != ""
}

func errorType(err error) string {
	var httpErr *HTTPError
	var rpcErr *RPCError
	switch {
	case errors.As(err, &httpErr):
		return fmt.Sprintf("http_%d", httpErr.StatusCode)
	case errors.As(err, &rpcErr):
		return "rpc"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	}
	return "transport"
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// Endpoint returns the base URL requests are sent to.
func (p *HTTPProvider) Endpoint() string {
	return p.endpoint
}

// GetHealth returns the provider's health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h := p.health
	stats := p.Monitor.GetStats()
	h.MonitorStats = &stats
	return h
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// IsAvailable checks if the provider is available.
func (p *HTTPProvider) IsAvailable() bool {
	status := p.Monitor.CheckProviderStatus()
	return status == StatusHealthy || status == StatusDegraded
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.requestCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}
	if p.successCount > 0 {
		p.health.Latency = p.totalLatency / time.Duration(p.successCount)
	}
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.requestCount++
	p.health.LastFailureAt = time.Now()

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}

	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
