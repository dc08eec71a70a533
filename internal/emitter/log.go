package emitter

import (
	"context"
	"log/slog"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// LogEmitter writes events to a structured logger.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter that logs through logger, or slog.Default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(ctx context.Context, event *domain.Event) error {
	level := slog.LevelInfo
	if event.EventType != domain.EventTypeTransactionAccepted {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "Transaction outcome",
		"event", event.EventType,
		"network", event.Network,
		"tx_hash", event.TxHash,
		"status", event.Status,
		"reason", event.Reason,
		"attempts", event.Attempts,
		"elapsed", event.Elapsed,
	)
	return nil
}

func (l *LogEmitter) EmitBatch(ctx context.Context, events []*domain.Event) error {
	for _, e := range events {
		_ = l.Emit(ctx, e)
	}
	return nil
}

func (l *LogEmitter) Close() error {
	return nil
}
