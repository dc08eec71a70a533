package storage

import (
	"context"
	"errors"

	"github.com/vietddude/seqgate/internal/core/domain"
)

var (
	// ErrSubmissionNotFound is returned when no journal entry exists for a hash
	ErrSubmissionNotFound = errors.New("submission not found")
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// SubmissionRepository journals deploy and invoke submissions
type SubmissionRepository interface {
	// Save inserts a submission or replaces the entry with the same network and hash
	Save(ctx context.Context, s *domain.Submission) error

	// UpdateStatus records the latest known status of a submission
	UpdateStatus(
		ctx context.Context,
		network string,
		hash domain.TxHash,
		status domain.TxStatus,
		reason string,
	) error

	// GetByHash retrieves a submission by transaction hash
	GetByHash(ctx context.Context, network string, hash domain.TxHash) (*domain.Submission, error)

	// List returns the newest submissions first. An empty network lists all.
	List(ctx context.Context, network string, limit int) ([]*domain.Submission, error)

	// Close releases the underlying store
	Close() error
}
