package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for malformed ABIs or empty configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrEncoding is returned when call arguments don't match the ABI.
	ErrEncoding = errors.New("encoding error")

	// ErrDecoding is returned when a call result doesn't match the ABI.
	ErrDecoding = errors.New("decoding error")

	// ErrSubmission is returned when the gateway refuses a deploy or invoke.
	ErrSubmission = errors.New("submission error")

	// ErrCall is returned when a read call reverts.
	ErrCall = errors.New("call error")

	// ErrNotFound is returned when a trace or contract is absent.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported is returned for features the network doesn't expose.
	ErrUnsupported = errors.New("unsupported by network")

	// ErrTransactionRejected is the rejected terminal outcome of a wait.
	ErrTransactionRejected = errors.New("transaction rejected")

	// ErrTransactionTimeout is returned when a wait exhausts its budget.
	ErrTransactionTimeout = errors.New("transaction wait timed out")
)

// GatewayError carries the code and message from a gateway error body,
// e.g. {"code": "StarknetErrorCode.UNINITIALIZED_CONTRACT", "message": "..."}.
type GatewayError struct {
	Kind    error
	Code    string
	Message string
	// Err is the transport error the answer arrived in, if any.
	Err error
}

func (e *GatewayError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
