// Package waittx polls transaction status until the transaction reaches a
// terminal state or the wait budget runs out.
package waittx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc/routing"
	"github.com/vietddude/seqgate/internal/metrics"
)

// StatusQuerier is the status half of a provider.
type StatusQuerier interface {
	GetTransactionStatus(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, error)
}

// Config holds the wait budget and cadence.
type Config struct {
	// Interval between polls when Backoff is nil.
	Interval time.Duration `yaml:"interval"`
	// MaxAttempts caps the number of status queries. 0 means no cap.
	MaxAttempts int `yaml:"max_attempts"`
	// Timeout caps wall-clock time. 0 means no cap.
	Timeout time.Duration `yaml:"timeout"`
	// RequireL1 keeps polling past ACCEPTED_ON_L2 until ACCEPTED_ON_L1.
	RequireL1 bool `yaml:"require_l1"`

	Backoff Backoff `yaml:"-"`
}

// DefaultConfig treats L2 acceptance as final and gives up after ten minutes.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Second,
		MaxAttempts: 0,
		Timeout:     10 * time.Minute,
		RequireL1:   false,
	}
}

func (c Config) backoff() Backoff {
	if c.Backoff != nil {
		return c.Backoff
	}
	return ConstantBackoff{Every: c.Interval}
}

// Report summarizes a finished wait.
type Report struct {
	Hash     domain.TxHash
	Status   domain.TxStatus
	Reason   *domain.FailureReason
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Outcome names how the wait ended: accepted, rejected, timeout, cancelled or failed.
func (r Report) Outcome() string {
	var rejected *RejectedError
	var timeout *TimeoutError
	switch {
	case r.Err == nil:
		return "accepted"
	case errors.As(r.Err, &rejected):
		return "rejected"
	case errors.As(r.Err, &timeout):
		return "timeout"
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "failed"
}

// Option overrides Config for a single wait.
type Option func(*settings)

type settings struct {
	Config
	observers []func(Report)
}

// WithInterval sets a constant poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		s.Interval = d
		s.Backoff = nil
	}
}

// WithMaxAttempts caps the number of status queries.
func WithMaxAttempts(n int) Option {
	return func(s *settings) { s.MaxAttempts = n }
}

// WithTimeout caps the wall-clock duration of the wait.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.Timeout = d }
}

// WithRequireL1 sets whether only ACCEPTED_ON_L1 ends the wait successfully.
func WithRequireL1(require bool) Option {
	return func(s *settings) { s.RequireL1 = require }
}

// WithBackoff replaces the poll cadence.
func WithBackoff(b Backoff) Option {
	return func(s *settings) { s.Backoff = b }
}

// WithObserver registers fn to receive the Report of the wait.
func WithObserver(fn func(Report)) Option {
	return func(s *settings) { s.observers = append(s.observers, fn) }
}

// Tracker waits for transactions to become final. It keeps no per-wait
// state, so one Tracker serves any number of concurrent waits.
type Tracker struct {
	querier StatusQuerier
	config  Config
	logger  *slog.Logger
}

// NewTracker creates a tracker polling q.
func NewTracker(q StatusQuerier, cfg Config, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{querier: q, config: cfg, logger: logger}
}

// pollState is the per-wait bookkeeping.
type pollState struct {
	hash       domain.TxHash
	attempt    int
	started    time.Time
	lastStatus domain.TxStatus
	lastErr    error
}

// Wait polls until hash is accepted, rejected, the budget is exhausted or
// ctx is done. The first poll is issued immediately.
func (t *Tracker) Wait(ctx context.Context, hash domain.TxHash, opts ...Option) (*domain.StatusResponse, error) {
	s := settings{Config: t.config}
	for _, opt := range opts {
		opt(&s)
	}

	ctx, span := otel.Tracer("seqgate/waittx").Start(ctx, "waittx.Wait")
	defer span.End()
	span.SetAttributes(attribute.String("tx_hash", string(hash)))

	st := &pollState{hash: hash, started: time.Now()}
	resp, err := t.wait(ctx, st, s.Config)

	report := Report{
		Hash:     hash,
		Status:   st.lastStatus,
		Attempts: st.attempt,
		Elapsed:  time.Since(st.started),
		Err:      err,
	}
	if resp != nil {
		report.Reason = resp.FailureReason
	}
	outcome := report.Outcome()
	metrics.WaitOutcomesTotal.WithLabelValues(outcome).Inc()
	metrics.WaitDuration.WithLabelValues(outcome).Observe(report.Elapsed.Seconds())
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("attempts", st.attempt),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	for _, fn := range s.observers {
		fn(report)
	}

	return resp, err
}

func (t *Tracker) wait(parent context.Context, st *pollState, cfg Config) (*domain.StatusResponse, error) {
	if err := domain.ValidateTxHash(st.hash); err != nil {
		return nil, err
	}

	ctx := parent
	var deadline time.Time
	if cfg.Timeout > 0 {
		deadline = st.started.Add(cfg.Timeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(parent, deadline)
		defer cancel()
	}
	backoff := cfg.backoff()

	for {
		resp, err := t.querier.GetTransactionStatus(ctx, st.hash)
		st.attempt++
		if err == nil && resp == nil {
			err = fmt.Errorf("empty status response")
		}

		switch {
		case err != nil:
			if parent.Err() != nil {
				return nil, fmt.Errorf("wait for %s: %w", st.hash, parent.Err())
			}
			if fatal(err) {
				if errors.Is(err, domain.ErrSubmission) {
					return nil, err
				}
				return nil, fmt.Errorf("%w: status of %s: %w", domain.ErrSubmission, st.hash, err)
			}
			st.lastErr = err
			metrics.StatusPollsTotal.WithLabelValues("error").Inc()
			t.logger.Debug("Status poll failed, will retry",
				"tx_hash", st.hash,
				"attempt", st.attempt,
				"error", err,
			)
		default:
			st.lastErr = nil
			if resp.Status != st.lastStatus {
				t.logger.Debug("Transaction status changed",
					"tx_hash", st.hash,
					"from", st.lastStatus,
					"to", resp.Status,
					"attempt", st.attempt,
				)
			}
			st.lastStatus = resp.Status
			metrics.StatusPollsTotal.WithLabelValues(string(resp.Status)).Inc()

			switch {
			case resp.Status == domain.TxStatusRejected:
				return resp, &RejectedError{Hash: st.hash, Reason: resp.FailureReason}
			case resp.Status == domain.TxStatusAcceptedOnL1,
				resp.Status == domain.TxStatusAcceptedOnL2 && !cfg.RequireL1:
				return resp, nil
			}
		}

		if cfg.MaxAttempts > 0 && st.attempt >= cfg.MaxAttempts {
			return nil, t.timeout(st)
		}

		delay := backoff.Next(st.attempt)
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil, t.timeout(st)
			}
			delay = min(delay, remaining)
		}

		if err := sleep(ctx, delay); err != nil {
			if parent.Err() != nil {
				return nil, fmt.Errorf("wait for %s: %w", st.hash, parent.Err())
			}
			return nil, t.timeout(st)
		}
	}
}

func (t *Tracker) timeout(st *pollState) error {
	return &TimeoutError{
		Hash:       st.hash,
		Attempts:   st.attempt,
		Elapsed:    time.Since(st.started),
		LastStatus: st.lastStatus,
		LastErr:    st.lastErr,
	}
}

// fatal reports errors that polling again cannot fix. Deadlines hit by a
// single request are transient; the wait's own budget decides when to stop.
func fatal(err error) bool {
	if errors.Is(err, domain.ErrSubmission) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return routing.ClassifyError(err) == routing.ActionFatal
}

// sleep waits for d or until ctx is done, without leaking the timer.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
