// Package rpc provides a resilient transport for sequencer gateways and nodes.
//
// This package offers:
//   - REST (gateway, feeder gateway) and JSON-RPC 2.0 over HTTP
//   - Automatic failover between endpoints of one network
//   - Retry with exponential backoff for transient errors
//   - Throttle detection and health monitoring
//
// # Quick Start
//
//	import "github.com/vietddude/seqgate/internal/infra/rpc"
//
//	gw := rpc.NewGateway("alpha-goerli", []string{
//	    "https://alpha4.starknet.io",
//	}, 30*time.Second, rpc.DefaultRetryConfig)
//
//	result, err := gw.Execute(ctx, rpc.NewRESTOperation(
//	    "feeder_gateway/get_contract_addresses", http.MethodGet, nil, nil))
//
// # Package Structure
//
//   - provider/ - HTTPProvider and health monitoring
//   - routing/  - endpoint selection, failover and retry
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"fmt"
	"time"

	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
	"github.com/vietddude/seqgate/internal/infra/rpc/routing"
)

// Provider is the core interface for gateway endpoints.
type Provider = provider.Provider

// HTTPProvider implements Provider for REST and JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// Operation represents a request to execute (transport-agnostic).
type Operation = provider.Operation

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// HTTPError is a non-2xx answer.
type HTTPError = provider.HTTPError

// RPCError is a JSON-RPC error object.
type RPCError = provider.RPCError

// Router fails over between endpoints of one network.
type Router = routing.Router

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// NewHTTPProvider creates a new HTTP-based provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout)
}

// NewGateway builds a Router over one HTTPProvider per endpoint. Endpoint
// providers are named "<name>-<index>" so metrics stay distinguishable.
func NewGateway(name string, endpoints []string, timeout time.Duration, retry RetryConfig) *Router {
	r := routing.NewRouter(name, retry)
	for i, endpoint := range endpoints {
		pname := name
		if len(endpoints) > 1 {
			pname = fmt.Sprintf("%s-%d", name, i)
		}
		r.AddProvider(provider.NewHTTPProvider(pname, endpoint, timeout))
	}
	return r
}
