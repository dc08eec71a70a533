package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// TxHash identifies a submitted transaction.
type TxHash string

// Address identifies a deployed contract.
type Address string

// TxStatus is the finality stage reported by the gateway.
type TxStatus string

const (
	TxStatusNotReceived  TxStatus = "NOT_RECEIVED"
	TxStatusReceived     TxStatus = "RECEIVED"
	TxStatusPending      TxStatus = "PENDING"
	TxStatusAcceptedOnL2 TxStatus = "ACCEPTED_ON_L2"
	TxStatusAcceptedOnL1 TxStatus = "ACCEPTED_ON_L1"
	TxStatusRejected     TxStatus = "REJECTED"
)

// ParseTxStatus maps a wire string to a TxStatus. Node aliases are folded in.
func ParseTxStatus(s string) (TxStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOT_RECEIVED", "UNKNOWN":
		return TxStatusNotReceived, nil
	case "RECEIVED":
		return TxStatusReceived, nil
	case "PENDING":
		return TxStatusPending, nil
	case "ACCEPTED_ON_L2":
		return TxStatusAcceptedOnL2, nil
	case "ACCEPTED_ON_L1":
		return TxStatusAcceptedOnL1, nil
	case "REJECTED":
		return TxStatusRejected, nil
	default:
		return "", fmt.Errorf("unknown transaction status %q", s)
	}
}

// IsTerminal reports whether no further transition is expected.
func (s TxStatus) IsTerminal() bool {
	switch s {
	case TxStatusAcceptedOnL2, TxStatusAcceptedOnL1, TxStatusRejected:
		return true
	}
	return false
}

// IsAccepted reports a successful terminal status.
func (s TxStatus) IsAccepted() bool {
	return s == TxStatusAcceptedOnL2 || s == TxStatusAcceptedOnL1
}

// Rank orders statuses along the progression. REJECTED ranks with L2.
func (s TxStatus) Rank() int {
	switch s {
	case TxStatusNotReceived:
		return 0
	case TxStatusReceived:
		return 1
	case TxStatusPending:
		return 2
	case TxStatusAcceptedOnL2, TxStatusRejected:
		return 3
	case TxStatusAcceptedOnL1:
		return 4
	}
	return -1
}

// ValidateTxHash rejects hashes the gateway could never have produced.
func ValidateTxHash(h TxHash) error {
	s := string(h)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("%w: transaction hash %q must be 0x-prefixed", ErrSubmission, s)
	}
	digits := s[2:]
	if len(digits) == 0 || len(digits) > 64 {
		return fmt.Errorf("%w: transaction hash %q has invalid length", ErrSubmission, s)
	}
	for _, c := range digits {
		if !isHexDigit(c) {
			return fmt.Errorf("%w: transaction hash %q is not hex", ErrSubmission, s)
		}
	}
	if v, _ := new(big.Int).SetString(digits, 16); v.Cmp(FieldPrime) >= 0 {
		return fmt.Errorf("%w: transaction hash %q is outside the field", ErrSubmission, s)
	}
	return nil
}

// ValidateAddress checks the shape of a contract address.
func ValidateAddress(a Address) error {
	if _, err := ParseFelt(string(a)); err != nil || !strings.HasPrefix(strings.ToLower(string(a)), "0x") {
		return fmt.Errorf("invalid contract address %q", a)
	}
	return nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// FailureReason is attached by the gateway to rejected transactions.
type FailureReason struct {
	Code         string `json:"code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (r *FailureReason) String() string {
	if r == nil {
		return ""
	}
	switch {
	case r.Code != "" && r.ErrorMessage != "":
		return r.Code + ": " + r.ErrorMessage
	case r.Code != "":
		return r.Code
	}
	return r.ErrorMessage
}

// StatusResponse is the answer to a status query.
type StatusResponse struct {
	Status        TxStatus       `json:"tx_status"`
	BlockHash     string         `json:"block_hash,omitempty"`
	FailureReason *FailureReason `json:"tx_failure_reason,omitempty"`
}

// DeployResult is returned by a deploy submission.
type DeployResult struct {
	TransactionHash TxHash  `json:"transaction_hash"`
	ContractAddress Address `json:"contract_address"`
}

// InvokeResult is returned by an invoke submission.
type InvokeResult struct {
	TransactionHash TxHash `json:"transaction_hash"`
}

// Trace is the execution trace of a transaction.
type Trace struct {
	Signature          []string        `json:"signature"`
	FunctionInvocation json.RawMessage `json:"function_invocation,omitempty"`
}

// Code is the deployed bytecode of a contract.
type Code struct {
	Bytecode []string        `json:"bytecode"`
	ABI      json.RawMessage `json:"abi,omitempty"`
}

// ContractAddresses lists the network's system contracts on L1.
type ContractAddresses struct {
	GpsStatementVerifier string `json:"GpsStatementVerifier"`
	Starknet             string `json:"Starknet"`
}

// CompiledContract is compiler output accepted by deploy.
type CompiledContract struct {
	Program           json.RawMessage `json:"program"`
	EntryPointsByType json.RawMessage `json:"entry_points_by_type"`
	ABI               json.RawMessage `json:"abi,omitempty"`
}
