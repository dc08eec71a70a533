package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/storage"
)

// SubmissionRepo implements storage.SubmissionRepository on SQL.
type SubmissionRepo struct {
	db  *DB
	now func() time.Time
}

var _ storage.SubmissionRepository = (*SubmissionRepo)(nil)

// NewSubmissionRepo creates a new SQL submission repository.
func NewSubmissionRepo(db *DB) *SubmissionRepo {
	return &SubmissionRepo{db: db, now: time.Now}
}

// Save upserts a submission. A repeated hash keeps its id and submitted_at.
func (r *SubmissionRepo) Save(ctx context.Context, s *domain.Submission) error {
	now := r.now().UTC()
	row := *s
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.SubmittedAt.IsZero() {
		row.SubmittedAt = now
	}
	row.SubmittedAt = row.SubmittedAt.UTC()
	row.UpdatedAt = now

	query := `
		INSERT INTO submissions (
			id, network, kind, tx_hash, contract_address, entry_point,
			status, failure_reason, submitted_at, updated_at
		) VALUES (
			:id, :network, :kind, :tx_hash, :contract_address, :entry_point,
			:status, :failure_reason, :submitted_at, :updated_at
		)
		ON CONFLICT (network, tx_hash) DO UPDATE SET
			kind = excluded.kind,
			contract_address = excluded.contract_address,
			entry_point = excluded.entry_point,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}

	stored, err := r.GetByHash(ctx, s.Network, s.TxHash)
	if err != nil {
		return err
	}
	s.ID, s.SubmittedAt, s.UpdatedAt = stored.ID, stored.SubmittedAt, stored.UpdatedAt
	return nil
}

// UpdateStatus records the latest status of a journaled submission.
func (r *SubmissionRepo) UpdateStatus(
	ctx context.Context,
	network string,
	hash domain.TxHash,
	status domain.TxStatus,
	reason string,
) error {
	query := r.db.Rebind(`
		UPDATE submissions SET status = ?, failure_reason = ?, updated_at = ?
		WHERE network = ? AND tx_hash = ?
	`)
	res, err := r.db.ExecContext(ctx, query, string(status), reason, r.now().UTC(), network, string(hash))
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	if n == 0 {
		return storage.ErrSubmissionNotFound
	}
	return nil
}

// GetByHash retrieves a submission by transaction hash.
func (r *SubmissionRepo) GetByHash(
	ctx context.Context,
	network string,
	hash domain.TxHash,
) (*domain.Submission, error) {
	query := r.db.Rebind(`
		SELECT id, network, kind, tx_hash, contract_address, entry_point,
			status, failure_reason, submitted_at, updated_at
		FROM submissions
		WHERE network = ? AND tx_hash = ?
	`)
	var s domain.Submission
	if err := r.db.GetContext(ctx, &s, query, network, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &s, nil
}

// List returns the newest submissions first.
func (r *SubmissionRepo) List(ctx context.Context, network string, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	query := `
		SELECT id, network, kind, tx_hash, contract_address, entry_point,
			status, failure_reason, submitted_at, updated_at
		FROM submissions`
	args := []any{}
	if network != "" {
		query += ` WHERE network = ?`
		args = append(args, network)
	}
	query += ` ORDER BY submitted_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var subs []*domain.Submission
	if err := r.db.SelectContext(ctx, &subs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// Close closes the underlying database.
func (r *SubmissionRepo) Close() error {
	return r.db.Close()
}
