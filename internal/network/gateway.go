package network

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/klauspost/compress/gzip"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/waittx"
)

// Transaction types accepted by gateway/add_transaction.
const (
	txTypeDeploy = "DEPLOY"
	txTypeInvoke = "INVOKE_FUNCTION"
)

// GatewayProvider talks to a sequencer's gateway (writes) and feeder
// gateway (reads) over REST.
type GatewayProvider struct {
	name    string
	gateway rpc.Provider
	feeder  rpc.Provider
	devnet  bool
	tracker *waittx.Tracker
	logger  *slog.Logger
}

// NewGatewayProvider creates a provider over the given transports.
func NewGatewayProvider(
	name string,
	gateway, feeder rpc.Provider,
	devnet bool,
	wait waittx.Config,
	logger *slog.Logger,
) *GatewayProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &GatewayProvider{
		name:    name,
		gateway: gateway,
		feeder:  feeder,
		devnet:  devnet,
		logger:  logger.With("network", name),
	}
	p.tracker = waittx.NewTracker(p, wait, p.logger)
	return p
}

// Name returns the network name.
func (p *GatewayProvider) Name() string {
	return p.name
}

// Transports returns the gateway and feeder gateway transports.
func (p *GatewayProvider) Transports() []rpc.Provider {
	return []rpc.Provider{p.gateway, p.feeder}
}

// Deploy submits a DEPLOY transaction.
func (p *GatewayProvider) Deploy(ctx context.Context, req DeployRequest) (*domain.DeployResult, error) {
	definition, err := contractDefinition(req.Contract)
	if err != nil {
		return nil, err
	}
	salt, err := deploySalt(req.Salt)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"type":                  txTypeDeploy,
		"contract_address_salt": domain.FeltHex(salt),
		"constructor_calldata":  domain.FeltDecimals(req.ConstructorCalldata),
		"contract_definition":   definition,
	}
	result, err := p.gateway.Execute(ctx, rpc.NewRESTOperation("add_transaction", http.MethodPost, body, nil))
	if err != nil {
		return nil, asGatewayError(domain.ErrSubmission, "deploy", err)
	}

	m, err := asObject(result, "deploy")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	res := &domain.DeployResult{
		TransactionHash: domain.TxHash(getString(m["transaction_hash"])),
		ContractAddress: domain.Address(getString(m["address"])),
	}
	if res.ContractAddress == "" {
		res.ContractAddress = domain.Address(getString(m["contract_address"]))
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

// Invoke submits an INVOKE_FUNCTION transaction.
func (p *GatewayProvider) Invoke(ctx context.Context, req InvokeRequest) (*domain.InvokeResult, error) {
	if err := domain.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}

	body := map[string]any{
		"type":                 txTypeInvoke,
		"contract_address":     string(req.Address),
		"entry_point_selector": domain.FeltHex(Selector(req.EntryPoint)),
		"calldata":             domain.FeltDecimals(req.Calldata),
		"signature":            signature(req.Signature),
	}
	result, err := p.gateway.Execute(ctx, rpc.NewRESTOperation("add_transaction", http.MethodPost, body, nil))
	if err != nil {
		return nil, asGatewayError(domain.ErrSubmission, "invoke", err)
	}

	m, err := asObject(result, "invoke")
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

// CallContract runs a read call against pending state.
func (p *GatewayProvider) CallContract(ctx context.Context, req CallRequest) ([]*big.Int, error) {
	if err := domain.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCall, err)
	}

	body := map[string]any{
		"contract_address":     string(req.Address),
		"entry_point_selector": domain.FeltHex(Selector(req.EntryPoint)),
		"calldata":             domain.FeltDecimals(req.Calldata),
		"signature":            signature(req.Signature),
	}
	op := rpc.NewRESTOperation("call_contract", http.MethodPost, body, map[string]string{"blockNumber": "pending"})
	result, err := p.feeder.Execute(ctx, op)
	if err != nil {
		if isAnswer(err) {
			return nil, asGatewayError(domain.ErrCall, "call_contract", err)
		}
		return nil, fmt.Errorf("call_contract: %w", err)
	}

	m, err := asObject(result, "call_contract")
	if err != nil {
		return nil, err
	}
	felts, err := domain.ParseFelts(getStrings(m["result"]))
	if err != nil {
		return nil, fmt.Errorf("%w: call_contract result: %w", domain.ErrDecoding, err)
	}
	return felts, nil
}

// GetTransactionStatus queries the feeder gateway. Unknown hashes come back
// as NOT_RECEIVED.
func (p *GatewayProvider) GetTransactionStatus(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, error) {
	if err := domain.ValidateTxHash(hash); err != nil {
		return nil, err
	}

	op := rpc.NewRESTOperation("get_transaction_status", http.MethodGet, nil,
		map[string]string{"transactionHash": string(hash)})
	result, err := p.feeder.Execute(ctx, op)
	if err != nil {
		if hasGatewayCode(err, "TRANSACTION_NOT_FOUND") {
			return &domain.StatusResponse{Status: domain.TxStatusNotReceived}, nil
		}
		return nil, fmt.Errorf("get_transaction_status: %w", err)
	}

	m, err := asObject(result, "get_transaction_status")
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseTxStatus(getString(m["tx_status"]))
	if err != nil {
		return nil, fmt.Errorf("get_transaction_status: %w", err)
	}
	return &domain.StatusResponse{
		Status:        status,
		BlockHash:     getString(m["block_hash"]),
		FailureReason: parseFailureReason(m["tx_failure_reason"]),
	}, nil
}

// GetTransactionTrace returns the execution trace of hash.
func (p *GatewayProvider) GetTransactionTrace(ctx context.Context, hash domain.TxHash) (*domain.Trace, error) {
	if err := domain.ValidateTxHash(hash); err != nil {
		return nil, err
	}

	op := rpc.NewRESTOperation("get_transaction_trace", http.MethodGet, nil,
		map[string]string{"transactionHash": string(hash)})
	result, err := p.feeder.Execute(ctx, op)
	if err != nil {
		if isAnswer(err) {
			return nil, asGatewayError(domain.ErrNotFound, "get_transaction_trace", err)
		}
		return nil, fmt.Errorf("get_transaction_trace: %w", err)
	}

	m, err := asObject(result, "get_transaction_trace")
	if err != nil {
		return nil, err
	}
	return parseTrace(m), nil
}

// GetCode returns the bytecode at address. An empty bytecode means no
// contract is deployed there.
func (p *GatewayProvider) GetCode(ctx context.Context, address domain.Address) (*domain.Code, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	op := rpc.NewRESTOperation("get_code", http.MethodGet, nil,
		map[string]string{"contractAddress": string(address), "blockNumber": "pending"})
	result, err := p.feeder.Execute(ctx, op)
	if err != nil {
		if isAnswer(err) {
			return nil, asGatewayError(domain.ErrNotFound, "get_code", err)
		}
		return nil, fmt.Errorf("get_code: %w", err)
	}

	m, err := asObject(result, "get_code")
	if err != nil {
		return nil, err
	}
	bytecode := getStrings(m["bytecode"])
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: no code at %s", domain.ErrNotFound, address)
	}
	return &domain.Code{Bytecode: bytecode, ABI: getRaw(m["abi"])}, nil
}

// GetContractAddresses returns the L1 system contracts. Local networks
// don't serve them.
func (p *GatewayProvider) GetContractAddresses(ctx context.Context) (*domain.ContractAddresses, error) {
	if p.devnet {
		return nil, fmt.Errorf("%w: get_contract_addresses on devnet %s", domain.ErrUnsupported, p.name)
	}

	result, err := p.feeder.Execute(ctx, rpc.NewRESTOperation("get_contract_addresses", http.MethodGet, nil, nil))
	if err != nil {
		if isUnsupported(err) {
			return nil, asGatewayError(domain.ErrUnsupported, "get_contract_addresses", err)
		}
		return nil, fmt.Errorf("get_contract_addresses: %w", err)
	}

	m, err := asObject(result, "get_contract_addresses")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupported, err)
	}
	addrs := &domain.ContractAddresses{
		GpsStatementVerifier: getString(m["GpsStatementVerifier"]),
		Starknet:             getString(m["Starknet"]),
	}
	if addrs.GpsStatementVerifier == "" && addrs.Starknet == "" {
		return nil, fmt.Errorf("%w: get_contract_addresses returned no addresses", domain.ErrUnsupported)
	}
	return addrs, nil
}

// WaitForTransaction polls the status of hash until it is final.
func (p *GatewayProvider) WaitForTransaction(ctx context.Context, hash domain.TxHash, opts ...waittx.Option) (*domain.StatusResponse, error) {
	return p.tracker.Wait(ctx, hash, opts...)
}

// Close releases both transports.
func (p *GatewayProvider) Close() error {
	return errors.Join(p.gateway.Close(), p.feeder.Close())
}

// contractDefinition builds the deploy payload with the program compressed
// the way the gateway expects: gzip, then base64.
func contractDefinition(c *domain.CompiledContract) (map[string]any, error) {
	if c == nil || len(c.Program) == 0 {
		return nil, fmt.Errorf("%w: compiled contract has no program", domain.ErrSubmission)
	}

	program, err := compressProgram(c.Program)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}

	def := map[string]any{
		"program":              program,
		"entry_points_by_type": json.RawMessage(c.EntryPointsByType),
	}
	if len(c.EntryPointsByType) == 0 {
		def["entry_points_by_type"] = map[string]any{}
	}
	if len(c.ABI) > 0 {
		def["abi"] = json.RawMessage(c.ABI)
	}
	return def, nil
}

// compressProgram accepts either the raw program JSON or an already
// compressed base64 string.
func compressProgram(program json.RawMessage) (string, error) {
	var encoded string
	if err := json.Unmarshal(program, &encoded); err == nil {
		return encoded, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, program); err != nil {
		return "", fmt.Errorf("program is not valid json: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(compact.Bytes()); err != nil {
		return "", fmt.Errorf("compress program: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress program: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func deploySalt(salt *big.Int) (*big.Int, error) {
	if salt != nil {
		v, err := domain.ToFelt(salt)
		if err != nil {
			return nil, fmt.Errorf("%w: salt: %w", domain.ErrSubmission, err)
		}
		return v, nil
	}
	v, err := rand.Int(rand.Reader, domain.FieldPrime)
	if err != nil {
		return nil, fmt.Errorf("%w: generate salt: %w", domain.ErrSubmission, err)
	}
	return v, nil
}

func signature(sig []string) []string {
	if sig == nil {
		return []string{}
	}
	return sig
}
