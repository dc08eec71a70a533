// Package emitter publishes terminal transaction outcomes downstream.
package emitter

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// Emitter defines the interface for publishing outcome events
type Emitter interface {
	// Emit sends a single event
	Emit(ctx context.Context, event *domain.Event) error

	// EmitBatch sends multiple events
	EmitBatch(ctx context.Context, events []*domain.Event) error

	// Close closes the emitter connection
	Close() error
}

// NewOutcomeEvent builds the event published when a wait ends.
func NewOutcomeEvent(
	network string,
	hash domain.TxHash,
	status domain.TxStatus,
	reason string,
	attempts int,
	elapsed time.Duration,
) *domain.Event {
	eventType := domain.EventTypeTransactionTimedOut
	switch {
	case status == domain.TxStatusRejected:
		eventType = domain.EventTypeTransactionRejected
	case status.IsAccepted():
		eventType = domain.EventTypeTransactionAccepted
	}
	return &domain.Event{
		EventType: eventType,
		Network:   network,
		TxHash:    hash,
		Status:    status,
		Reason:    reason,
		Attempts:  attempts,
		Elapsed:   elapsed,
		EmittedAt: time.Now().UTC(),
	}
}

// Multi fans events out to several emitters.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) EmitBatch(ctx context.Context, events []*domain.Event) error {
	var errs []error
	for _, e := range m {
		if err := e.EmitBatch(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, e := range m {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
