// Package control wires configuration into a ready-to-use Client.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/vietddude/seqgate/internal/abi"
	"github.com/vietddude/seqgate/internal/contract"
	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/emitter"
	"github.com/vietddude/seqgate/internal/health"
	"github.com/vietddude/seqgate/internal/infra/storage"
	"github.com/vietddude/seqgate/internal/network"
)

// Client is the application facade: a network provider plus the journal
// and outcome emitter that record what was submitted and how it ended.
type Client struct {
	network  string
	provider network.Provider
	journal  storage.SubmissionRepository
	emitter  emitter.Emitter
	monitor  *health.Monitor
	log      *slog.Logger

	closers []func(context.Context) error
}

// NewClient assembles a Client from already-built parts.
func NewClient(
	networkName string,
	p network.Provider,
	journal storage.SubmissionRepository,
	em emitter.Emitter,
	logger *slog.Logger,
) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if em == nil {
		em = emitter.NewLogEmitter(logger)
	}
	return &Client{
		network:  networkName,
		provider: p,
		journal:  journal,
		emitter:  em,
		monitor:  health.NewMonitor(network.Transports(p), nil),
		log:      logger,
	}
}

// Network returns the configured network name.
func (c *Client) Network() string {
	return c.network
}

// Provider returns the underlying network provider.
func (c *Client) Provider() network.Provider {
	return c.provider
}

// Contract binds an ABI document to a deployed address.
func (c *Client) Contract(address domain.Address, abiJSON []byte) (*contract.Contract, error) {
	return contract.NewFromJSON(abiJSON, address, c.provider)
}

// Deploy submits compiled and journals the submission. Constructor
// arguments are encoded against the contract's ABI when it has one.
func (c *Client) Deploy(
	ctx context.Context,
	compiled *domain.CompiledContract,
	salt *big.Int,
	args ...any,
) (*domain.DeployResult, error) {
	if compiled == nil {
		return nil, fmt.Errorf("%w: no contract to deploy", domain.ErrConfiguration)
	}
	calldata, err := constructorCalldata(compiled, args)
	if err != nil {
		return nil, err
	}

	res, err := c.provider.Deploy(ctx, network.DeployRequest{
		Contract:            compiled,
		ConstructorCalldata: calldata,
		Salt:                salt,
	})
	if err != nil {
		return nil, err
	}

	c.record(ctx, &domain.Submission{
		Network:         c.network,
		Kind:            domain.SubmissionKindDeploy,
		TxHash:          res.TransactionHash,
		ContractAddress: res.ContractAddress,
		Status:          domain.TxStatusReceived,
	})
	c.log.Info("Deploy submitted",
		"tx_hash", res.TransactionHash,
		"contract_address", res.ContractAddress,
	)
	return res, nil
}

// Invoke submits a state-changing call through an ABI-bound contract.
func (c *Client) Invoke(
	ctx context.Context,
	ct *contract.Contract,
	name string,
	signature []string,
	args ...any,
) (*domain.InvokeResult, error) {
	res, err := ct.Invoke(ctx, name, signature, args...)
	if err != nil {
		return nil, err
	}
	c.recordInvoke(ctx, ct.Address(), name, res)
	return res, nil
}

// Execute runs a bound ABI function: view functions are called, others
// are submitted and journaled.
func (c *Client) Execute(
	ctx context.Context,
	ct *contract.Contract,
	name string,
	signature []string,
	args ...any,
) (*contract.Outcome, error) {
	m, err := ct.Method(name)
	if err != nil {
		return nil, err
	}
	out, err := m.Execute(ctx, signature, args...)
	if err != nil {
		return nil, err
	}
	if out.Tx != nil {
		c.recordInvoke(ctx, ct.Address(), name, out.Tx)
	}
	return out, nil
}

// InvokeRaw submits pre-encoded calldata.
func (c *Client) InvokeRaw(ctx context.Context, req network.InvokeRequest) (*domain.InvokeResult, error) {
	res, err := c.provider.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	c.recordInvoke(ctx, req.Address, req.EntryPoint, res)
	return res, nil
}

func (c *Client) recordInvoke(ctx context.Context, address domain.Address, entryPoint string, res *domain.InvokeResult) {
	c.record(ctx, &domain.Submission{
		Network:         c.network,
		Kind:            domain.SubmissionKindInvoke,
		TxHash:          res.TransactionHash,
		ContractAddress: address,
		EntryPoint:      entryPoint,
		Status:          domain.TxStatusReceived,
	})
	c.log.Info("Invoke submitted",
		"tx_hash", res.TransactionHash,
		"contract_address", address,
		"entry_point", entryPoint,
	)
}

// record journals s. The transaction is already on its way, so a journal
// failure is logged rather than returned.
func (c *Client) record(ctx context.Context, s *domain.Submission) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Save(ctx, s); err != nil {
		c.log.Warn("Failed to journal submission", "tx_hash", s.TxHash, "error", err)
	}
}

// Call runs a read call through an ABI-bound contract.
func (c *Client) Call(ctx context.Context, ct *contract.Contract, name string, args ...any) (*abi.Result, error) {
	return ct.Call(ctx, name, args...)
}

// CallRaw runs a read call with pre-encoded calldata.
func (c *Client) CallRaw(ctx context.Context, req network.CallRequest) ([]*big.Int, error) {
	return c.provider.CallContract(ctx, req)
}

// Status returns the current status of hash.
func (c *Client) Status(ctx context.Context, hash domain.TxHash) (*domain.StatusResponse, error) {
	return c.provider.GetTransactionStatus(ctx, hash)
}

// Trace returns the execution trace of hash.
func (c *Client) Trace(ctx context.Context, hash domain.TxHash) (*domain.Trace, error) {
	return c.provider.GetTransactionTrace(ctx, hash)
}

// Code returns the code deployed at address.
func (c *Client) Code(ctx context.Context, address domain.Address) (*domain.Code, error) {
	return c.provider.GetCode(ctx, address)
}

// ContractAddresses returns the network's L1 contracts.
func (c *Client) ContractAddresses(ctx context.Context) (*domain.ContractAddresses, error) {
	return c.provider.GetContractAddresses(ctx)
}

// History lists journaled submissions on this network, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]*domain.Submission, error) {
	if c.journal == nil {
		return nil, nil
	}
	return c.journal.List(ctx, c.network, limit)
}

// Health reports the state of transports and backing stores.
func (c *Client) Health(ctx context.Context) health.HealthReport {
	return c.monitor.Report(ctx)
}

// Close releases everything the client opened, in reverse order.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func constructorCalldata(compiled *domain.CompiledContract, args []any) ([]*big.Int, error) {
	if len(compiled.ABI) > 0 && string(compiled.ABI) != "null" {
		doc, err := abi.Parse(compiled.ABI)
		if err != nil {
			return nil, err
		}
		return abi.EncodeConstructor(doc, args...)
	}
	out := make([]*big.Int, len(args))
	for i, arg := range args {
		v, err := domain.ToFelt(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: constructor argument %d: %w", domain.ErrEncoding, i, err)
		}
		out[i] = v
	}
	return out, nil
}
