package domain

import "time"

// Event represents a terminal transaction outcome that is published downstream
type Event struct {
	EventType EventType      `json:"event_type"`
	Network   string         `json:"network"`
	TxHash    TxHash         `json:"tx_hash"`
	Status    TxStatus       `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Attempts  int            `json:"attempts"`
	Elapsed   time.Duration  `json:"elapsed"`
	EmittedAt time.Time      `json:"emitted_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type EventType string

const (
	EventTypeTransactionAccepted EventType = "transaction_accepted"
	EventTypeTransactionRejected EventType = "transaction_rejected"
	EventTypeTransactionTimedOut EventType = "transaction_timed_out"
)
