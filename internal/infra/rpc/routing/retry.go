package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/seqgate/internal/infra/rpc/provider"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
	// ActionAnswer marks a well-formed gateway answer (a revert, an unknown
	// contract). Retrying or failing over would get the same answer.
	ActionAnswer
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFailover:
		return "failover"
	case ActionFatal:
		return "fatal"
	case ActionAnswer:
		return "answer"
	}
	return "unknown"
}

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ActionFatal
	}

	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		// Parse error, invalid request, method not found, invalid params
		case -32700, -32600, -32601, -32602:
			return ActionFatal
		case -32603:
			return ActionRetry
		}
		return ActionAnswer
	}

	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusForbidden,
			httpErr.StatusCode == http.StatusUnauthorized:
			return ActionFailover
		case gatewayCode(httpErr.Body) != "":
			return classifyGatewayCode(gatewayCode(httpErr.Body))
		case httpErr.StatusCode >= 500:
			return ActionRetry
		case httpErr.StatusCode == http.StatusNotFound,
			httpErr.StatusCode == http.StatusMethodNotAllowed,
			httpErr.StatusCode == http.StatusNotImplemented:
			return ActionAnswer
		default:
			return ActionFatal
		}
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// Failover (Provider specific issues)
	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit") || strings.Contains(sLower, "throttle") ||
		strings.Contains(sLower, "quota") || strings.Contains(sLower, "unauthorized") {
		return ActionFailover
	}

	// Default to Retry (Network, 5xx, etc)
	return ActionRetry
}

// classifyGatewayCode maps StarknetErrorCode values from gateway error bodies.
func classifyGatewayCode(code string) ErrorAction {
	switch strings.TrimPrefix(code, "StarknetErrorCode.") {
	case "MALFORMED_REQUEST", "INVALID_TRANSACTION_HASH", "OUT_OF_RANGE_TRANSACTION_HASH",
		"INVALID_PROGRAM", "INVALID_CONTRACT_DEFINITION":
		return ActionFatal
	case "TRANSACTION_LIMIT_EXCEEDED":
		return ActionFailover
	}
	return ActionAnswer
}

func gatewayCode(body []byte) string {
	return provider.ParseGatewayError(body).Code
}

// CallWithRetry executes an operation with exponential backoff.
func CallWithRetry(
	ctx context.Context,
	p provider.Provider,
	op provider.Operation,
	config RetryConfig,
) (any, error) {
	var lastErr error
	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := p.Execute(ctx, op)
		if err == nil {
			return result, nil
		}

		lastErr = err

		switch ClassifyError(err) {
		case ActionFatal, ActionAnswer, ActionFailover:
			return nil, err
		}

		if attempt == attempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	multiple := config.BackoffMultiple
	if multiple < 1 {
		multiple = 1
	}
	delay := float64(config.InitialDelay) * math.Pow(multiple, float64(attempt))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
