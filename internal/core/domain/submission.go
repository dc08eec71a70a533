package domain

import "time"

// Submission is a journal record of a deploy or invoke sent to the gateway
type Submission struct {
	ID              string         `json:"id"               db:"id"`
	Network         string         `json:"network"          db:"network"`
	Kind            SubmissionKind `json:"kind"             db:"kind"`
	TxHash          TxHash         `json:"tx_hash"          db:"tx_hash"`
	ContractAddress Address        `json:"contract_address" db:"contract_address"`
	EntryPoint      string         `json:"entry_point"      db:"entry_point"`
	Status          TxStatus       `json:"status"           db:"status"`
	FailureReason   string         `json:"failure_reason"   db:"failure_reason"`
	SubmittedAt     time.Time      `json:"submitted_at"     db:"submitted_at"`
	UpdatedAt       time.Time      `json:"updated_at"       db:"updated_at"`
}

type SubmissionKind string

const (
	SubmissionKindDeploy SubmissionKind = "deploy"
	SubmissionKindInvoke SubmissionKind = "invoke"
)
