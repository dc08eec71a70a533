package control

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/emitter"
	"github.com/vietddude/seqgate/internal/infra/storage"
	"github.com/vietddude/seqgate/internal/waittx"
)

// maxConcurrentWaits bounds WaitAll's fan-out.
const maxConcurrentWaits = 8

// WaitResult is the outcome of one hash in WaitAll.
type WaitResult struct {
	Hash   domain.TxHash
	Status *domain.StatusResponse
	Err    error
}

// Wait blocks until hash is final, then journals and emits the outcome.
// Cancelled and failed waits are not emitted since nothing was learned.
func (c *Client) Wait(ctx context.Context, hash domain.TxHash, opts ...waittx.Option) (*domain.StatusResponse, error) {
	var report waittx.Report
	opts = append(opts, waittx.WithObserver(func(r waittx.Report) { report = r }))

	resp, err := c.provider.WaitForTransaction(ctx, hash, opts...)

	outcome := report.Outcome()
	if outcome != "accepted" && outcome != "rejected" && outcome != "timeout" {
		return resp, err
	}

	// The caller's ctx may already be done; recording must still happen.
	recordCtx := context.WithoutCancel(ctx)
	reason := report.Reason.String()
	if outcome != "timeout" {
		c.updateJournal(recordCtx, hash, report.Status, reason)
	}

	event := emitter.NewOutcomeEvent(c.network, hash, report.Status, reason, report.Attempts, report.Elapsed)
	if emitErr := c.emitter.Emit(recordCtx, event); emitErr != nil {
		c.log.Warn("Failed to emit outcome", "tx_hash", hash, "error", emitErr)
	}
	return resp, err
}

func (c *Client) updateJournal(ctx context.Context, hash domain.TxHash, status domain.TxStatus, reason string) {
	if c.journal == nil {
		return
	}
	err := c.journal.UpdateStatus(ctx, c.network, hash, status, reason)
	switch {
	case errors.Is(err, storage.ErrSubmissionNotFound):
		// Submitted elsewhere; nothing to update.
	case err != nil:
		c.log.Warn("Failed to journal outcome", "tx_hash", hash, "error", err)
	}
}

// WaitAll waits for every hash concurrently. One hash failing does not
// stop the others; each result carries its own error.
func (c *Client) WaitAll(ctx context.Context, hashes []domain.TxHash, opts ...waittx.Option) []WaitResult {
	results := make([]WaitResult, len(hashes))

	var g errgroup.Group
	g.SetLimit(maxConcurrentWaits)
	for i, hash := range hashes {
		g.Go(func() error {
			resp, err := c.Wait(ctx, hash, opts...)
			results[i] = WaitResult{Hash: hash, Status: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
