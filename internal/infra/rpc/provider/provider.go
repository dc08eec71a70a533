// Package provider implements the gateway transport.
//
// This package contains:
//   - Provider interface: core abstraction for a gateway endpoint
//   - HTTPProvider: REST and JSON-RPC over HTTP implementation
//   - ProviderMonitor: health and rate tracking
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Operation represents a request to execute against the gateway.
// It abstracts the transport layer so callers never build URLs or headers.
type Operation struct {
	// Name identifies the operation: a REST path ("feeder_gateway/get_code")
	// or a JSON-RPC method ("starknet_call").
	Name string

	// Params for JSON-RPC calls, or the JSON body for REST calls.
	Params any

	// Query holds REST query-string parameters.
	Query map[string]string

	// IsREST indicates if this is a REST API call instead of JSON-RPC.
	IsREST bool

	// RESTMethod specifies the HTTP method for REST calls (e.g., "GET", "POST").
	// Only used if IsREST is true.
	RESTMethod string

	// Invoke, when set, replaces the transport call entirely.
	Invoke func(ctx context.Context) (any, error)
}

// Provider defines the core interface for a gateway endpoint.
type Provider interface {
	// GetName returns provider identifier (e.g., "alpha4", "devnet")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Execute performs the operation with monitoring and error handling
	Execute(ctx context.Context, op Operation) (any, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, string(e.Body))
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// GatewayErrorBody is the error document returned by the sequencer gateway.
type GatewayErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseGatewayError decodes a gateway error document. Non-JSON bodies yield
// an empty code and the raw body as message.
func ParseGatewayError(body []byte) GatewayErrorBody {
	var e GatewayErrorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return GatewayErrorBody{Message: strings.TrimSpace(string(body))}
	}
	return e
}
