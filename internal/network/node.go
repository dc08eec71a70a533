package network

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/waittx"
)

// JSON-RPC error codes of the node API.
const (
	rpcContractNotFound = 20
	rpcInvalidSelector  = 21
	rpcInvalidCalldata  = 22
	rpcInvalidTxHash    = 25
	rpcTxHashNotFound   = 29
	rpcContractError    = 40
)

// NodeProvider talks to a full node over JSON-RPC.
type NodeProvider struct {
	name    string
	client  rpc.Provider
	tracker *waittx.Tracker
	logger  *slog.Logger
}

// NewNodeProvider creates a provider over a JSON-RPC transport.
func NewNodeProvider(name string, client rpc.Provider, wait waittx.Config, logger *slog.Logger) *NodeProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &NodeProvider{
		name:   name,
		client: client,
		logger: logger.With("network", name),
	}
	p.tracker = waittx.NewTracker(p, wait, p.logger)
	return p
}

// Name returns the network name.
func (p *NodeProvider) Name() string {
	return p.name
}

// Transports returns the JSON-RPC transport.
func (p *NodeProvider) Transports() []rpc.Provider {
	return []rpc.Provider{p.client}
}

func functionCall(address domain.Address, entryPoint string, calldata []*big.Int) map[string]any {
	return map[string]any{
		"contract_address":     string(address),
		"entry_point_selector": domain.FeltHex(Selector(entryPoint)),
		"calldata":             domain.FeltHexes(calldata),
	}
}

// Deploy submits a deploy transaction.
func (p *NodeProvider) Deploy(ctx context.Context, req DeployRequest) (*domain.DeployResult, error) {
	definition, err := contractDefinition(req.Contract)
	if err != nil {
		return nil, err
	}
	salt, err := deploySalt(req.Salt)
	if err != nil {
		return nil, err
	}

	params := []any{domain.FeltHex(salt), domain.FeltHexes(req.ConstructorCalldata), definition}
	result, err := p.client.Execute(ctx, rpc.NewRPCOperation("starknet_addDeployTransaction", params))
	if err != nil {
		return nil, asGatewayError(domain.ErrSubmission, "starknet_addDeployTransaction", err)
	}

	m, err := asObject(result, "starknet_addDeployTransaction")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	res := &domain.DeployResult{
		TransactionHash: domain.TxHash(getString(m["transaction_hash"])),
		ContractAddress: domain.Address(getString(m["contract_address"])),
	}
	if res.TransactionHash == "" || res.ContractAddress == "" {
		return nil, fmt.Errorf("%w: deploy response missing transaction hash or address", domain.ErrSubmission)
	}

	p.logger.Info("Deploy submitted",
		"tx_hash", res.TransactionHash,
		"contract_address", res.ContractAddress,
	)
	return res, nil
}

// Invoke submits an invoke transaction.
func (p *NodeProvider) Invoke(ctx context.Context, req InvokeRequest) (*domain.InvokeResult, error) {
	if err := domain.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}

	params := []any{
		functionCall(req.Address, req.EntryPoint, req.Calldata),
		signature(req.Signature),
		"0x0", // max fee
		"0x0", // version
	}
	result, err := p.client.Execute(ctx, rpc.NewRPCOperation("starknet_addInvokeTransaction", params))
	if err != nil {
		return nil, asGatewayError(domain.ErrSubmission, "starknet_addInvokeTransaction", err)
	}

	m, err := asObject(result, "starknet_addInvokeTransaction")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	hash := domain.TxHash(getString(m["transaction_hash"]))
	if hash == "" {
		return nil, fmt.Errorf("%w: invoke response missing transaction hash", domain.ErrSubmission)
	}

	p.logger.Info("Invoke submitted",
		"tx_hash", hash,
		"contract_address", req.Address,
		"entry_point", req.EntryPoint,
	)
	return &domain.InvokeResult{TransactionHash: hash}, nil
}

// CallContract runs a read call against the pending block.
func (p *NodeProvider) CallContract(ctx context.Context, req CallRequest) ([]*big.Int, error) {
	if err := domain.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCall, err)
	}

	params := []any{functionCall(req.Address, req.EntryPoint, req.Calldata), "pending"}
	result, err := p.client.Execute(ctx, rpc.NewRPCOperation("starknet_call", params))
	if err != nil {
		if hasRPCCode(err, rpcContractNotFound, rpcInvalidSelector, rpcInvalidCalldata, rpcContractError) || isAnswer(err) {
			return nil, asGatewayError(domain.ErrCall, "starknet_call", err)
		}
		return nil, fmt.Errorf("starknet_call: %w", err)
	}

	felts, err := domain.ParseFelts(getStrings(result))
	if err != nil {
		return nil, fmt.Errorf("%w: starknet_call result: %w", domain.ErrDecoding, err)
	}
	return felts, nil
}

// GetTransactionStatus reads the status from the transaction receipt.
func (p *NodeProvider) GetTransactionStatus(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, error) {
	if err := domain.ValidateTxHash(hash); err != nil {
		return nil, err
	}

	result, err := p.client.Execute(ctx, rpc.NewRPCOperation("starknet_getTransactionReceipt", []any{string(hash)}))
	if err != nil {
		if hasRPCCode(err, rpcTxHashNotFound) {
			return &domain.StatusResponse{Status: domain.TxStatusNotReceived}, nil
		}
		if hasRPCCode(err, rpcInvalidTxHash) {
			return nil, asGatewayError(domain.ErrSubmission, "starknet_getTransactionReceipt", err)
		}
		return nil, fmt.Errorf("starknet_getTransactionReceipt: %w", err)
	}

	m, err := asObject(result, "starknet_getTransactionReceipt")
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseTxStatus(getString(m["status"]))
	if err != nil {
		return nil, fmt.Errorf("starknet_getTransactionReceipt: %w", err)
	}

	resp := &domain.StatusResponse{Status: status, BlockHash: getString(m["block_hash"])}
	if status == domain.TxStatusRejected {
		if msg := getString(m["status_data"]); msg != "" {
			resp.FailureReason = &domain.FailureReason{ErrorMessage: msg}
		}
	}
	return resp, nil
}

// GetTransactionTrace returns the execution trace of hash.
func (p *NodeProvider) GetTransactionTrace(ctx context.Context, hash domain.TxHash) (*domain.Trace, error) {
	if err := domain.ValidateTxHash(hash); err != nil {
		return nil, err
	}

	result, err := p.client.Execute(ctx, rpc.NewRPCOperation("starknet_traceTransaction", []any{string(hash)}))
	if err != nil {
		if isAnswer(err) {
			return nil, asGatewayError(domain.ErrNotFound, "starknet_traceTransaction", err)
		}
		return nil, fmt.Errorf("starknet_traceTransaction: %w", err)
	}

	m, err := asObject(result, "starknet_traceTransaction")
	if err != nil {
		return nil, err
	}
	return parseTrace(m), nil
}

// GetCode returns the bytecode at address.
func (p *NodeProvider) GetCode(ctx context.Context, address domain.Address) (*domain.Code, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	result, err := p.client.Execute(ctx, rpc.NewRPCOperation("starknet_getCode", []any{string(address)}))
	if err != nil {
		if isAnswer(err) {
			return nil, asGatewayError(domain.ErrNotFound, "starknet_getCode", err)
		}
		return nil, fmt.Errorf("starknet_getCode: %w", err)
	}

	m, err := asObject(result, "starknet_getCode")
	if err != nil {
		return nil, err
	}
	bytecode := getStrings(m["bytecode"])
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: no code at %s", domain.ErrNotFound, address)
	}

	code := &domain.Code{Bytecode: bytecode}
	// The node returns the ABI as a JSON string.
	if abiStr := getString(m["abi"]); abiStr != "" {
		code.ABI = []byte(abiStr)
	} else {
		code.ABI = getRaw(m["abi"])
	}
	return code, nil
}

// GetContractAddresses is not part of the node API.
func (p *NodeProvider) GetContractAddresses(ctx context.Context) (*domain.ContractAddresses, error) {
	return nil, fmt.Errorf("%w: get_contract_addresses on node %s", domain.ErrUnsupported, p.name)
}

// WaitForTransaction polls the status of hash until it is final.
func (p *NodeProvider) WaitForTransaction(ctx context.Context, hash domain.TxHash, opts ...waittx.Option) (*domain.StatusResponse, error) {
	return p.tracker.Wait(ctx, hash, opts...)
}

// Close releases the transport.
func (p *NodeProvider) Close() error {
	return p.client.Close()
}
