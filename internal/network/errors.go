package network

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
	"github.com/vietddude/seqgate/internal/infra/rpc/routing"
)

// asGatewayError turns a structured gateway or node answer into a
// *domain.GatewayError of the given kind. Other errors are wrapped as is.
func asGatewayError(kind error, op string, err error) error {
	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		body := provider.ParseGatewayError(httpErr.Body)
		if body.Code != "" {
			return &domain.GatewayError{Kind: kind, Code: body.Code, Message: body.Message, Err: err}
		}
		msg := body.Message
		if msg == "" {
			msg = http.StatusText(httpErr.StatusCode)
		}
		return &domain.GatewayError{Kind: kind, Code: "HTTP_" + strconv.Itoa(httpErr.StatusCode), Message: msg, Err: err}
	}

	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		return &domain.GatewayError{Kind: kind, Code: strconv.Itoa(rpcErr.Code), Message: rpcErr.Message, Err: err}
	}

	return fmt.Errorf("%w: %s: %w", kind, op, err)
}

// isAnswer reports whether err is a well-formed refusal from a healthy
// endpoint rather than a transport failure.
func isAnswer(err error) bool {
	switch routing.ClassifyError(err) {
	case routing.ActionAnswer:
		return true
	case routing.ActionFatal:
		var httpErr *provider.HTTPError
		var rpcErr *provider.RPCError
		return errors.As(err, &httpErr) || errors.As(err, &rpcErr)
	}
	return false
}

// isUnsupported reports HTTP answers meaning the endpoint doesn't exist.
func isUnsupported(err error) bool {
	var httpErr *provider.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch httpErr.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}

// hasGatewayCode reports whether err carries the given StarknetErrorCode.
func hasGatewayCode(err error, codes ...string) bool {
	var httpErr *provider.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	code := strings.TrimPrefix(provider.ParseGatewayError(httpErr.Body).Code, "StarknetErrorCode.")
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// hasRPCCode reports whether err is a JSON-RPC error with one of codes.
func hasRPCCode(err error, codes ...int) bool {
	var rpcErr *provider.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	for _, c := range codes {
		if rpcErr.Code == c {
			return true
		}
	}
	return false
}
