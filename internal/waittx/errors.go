package waittx

import (
	"fmt"
	"time"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// RejectedError is the rejected terminal outcome of a wait.
type RejectedError struct {
	Hash   domain.TxHash
	Reason *domain.FailureReason
}

func (e *RejectedError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("transaction %s rejected", e.Hash)
	}
	return fmt.Sprintf("transaction %s rejected: %s", e.Hash, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return domain.ErrTransactionRejected
}

// TimeoutError is returned when the wait budget runs out before a terminal
// status. Callers may extend the wait rather than treat it as a failure.
type TimeoutError struct {
	Hash       domain.TxHash
	Attempts   int
	Elapsed    time.Duration
	LastStatus domain.TxStatus
	// LastErr is the last transient polling error, if the final poll failed.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("transaction %s not final after %d polls in %s (last status %s)",
		e.Hash, e.Attempts, e.Elapsed.Round(time.Millisecond), e.lastStatus())
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error {
	return domain.ErrTransactionTimeout
}

func (e *TimeoutError) lastStatus() domain.TxStatus {
	if e.LastStatus == "" {
		return "unknown"
	}
	return e.LastStatus
}
