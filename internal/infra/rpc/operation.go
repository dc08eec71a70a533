package rpc

import (
	"net/http"

	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
)

// NewRPCOperation creates an Operation for JSON-RPC 2.0 calls.
// Params may be positional ([]any) or named (a map or struct).
func NewRPCOperation(method string, params any) Operation {
	return provider.Operation{
		Name:   method,
		Params: params,
	}
}

// NewRESTOperation creates an Operation for REST API calls.
func NewRESTOperation(path, method string, body any, query map[string]string) Operation {
	if method == "" {
		method = http.MethodGet
	}
	return provider.Operation{
		Name:       path,
		Params:     body,
		Query:      query,
		IsREST:     true,
		RESTMethod: method,
	}
}
