// Package network implements the provider capability set over a sequencer
// gateway or a JSON-RPC node.
package network

import (
	"context"
	"math/big"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/waittx"
)

// Provider is everything a client can ask of a network.
type Provider interface {
	// Deploy submits a contract deployment.
	Deploy(ctx context.Context, req DeployRequest) (*domain.DeployResult, error)

	// Invoke submits a state-changing call.
	Invoke(ctx context.Context, req InvokeRequest) (*domain.InvokeResult, error)

	// CallContract executes a read call against pending state.
	CallContract(ctx context.Context, req CallRequest) ([]*big.Int, error)

	// GetTransactionStatus returns NOT_RECEIVED, not an error, for unknown hashes.
	GetTransactionStatus(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, error)

	// GetTransactionTrace returns the execution trace of a transaction.
	GetTransactionTrace(ctx context.Context, hash domain.TxHash) (*domain.Trace, error)

	// GetCode returns the bytecode deployed at address.
	GetCode(ctx context.Context, address domain.Address) (*domain.Code, error)

	// GetContractAddresses returns the network's L1 system contracts.
	GetContractAddresses(ctx context.Context) (*domain.ContractAddresses, error)

	// WaitForTransaction polls the status of hash until it is final.
	WaitForTransaction(ctx context.Context, hash domain.TxHash, opts ...waittx.Option) (*domain.StatusResponse, error)
}

// DeployRequest describes a contract deployment.
type DeployRequest struct {
	Contract            *domain.CompiledContract
	ConstructorCalldata []*big.Int
	// Salt defaults to a random felt when nil.
	Salt *big.Int
}

// InvokeRequest describes a state-changing call. Signature is passed
// through unchanged.
type InvokeRequest struct {
	Address    domain.Address
	EntryPoint string
	Calldata   []*big.Int
	Signature  []string
}

// CallRequest describes a read call.
type CallRequest struct {
	Address    domain.Address
	EntryPoint string
	Calldata   []*big.Int
	Signature  []string
}

// TransportLister is implemented by providers that talk to the network
// through rpc transports.
type TransportLister interface {
	Transports() []rpc.Provider
}

// Transports returns the transports behind p, for health reporting.
// Providers that don't expose any yield nil.
func Transports(p Provider) []rpc.Provider {
	if l, ok := p.(TransportLister); ok {
		return l.Transports()
	}
	return nil
}
