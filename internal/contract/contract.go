// Package contract binds an ABI to a deployed address and a provider.
package contract

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/vietddude/seqgate/internal/abi"
	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/network"
)

// ErrUnknownFunction is returned for names the ABI doesn't declare.
var ErrUnknownFunction = errors.New("unknown function")

// Contract is a deployed contract. It holds no state between calls.
type Contract struct {
	abi      *abi.ABI
	address  domain.Address
	provider network.Provider
}

// New binds abiDoc to address on p.
func New(abiDoc *abi.ABI, address domain.Address, p network.Provider) (*Contract, error) {
	if abiDoc == nil || len(abiDoc.Functions()) == 0 {
		return nil, fmt.Errorf("%w: contract abi is empty", domain.ErrConfiguration)
	}
	if err := domain.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if isNil(p) {
		return nil, fmt.Errorf("%w: contract has no provider", domain.ErrConfiguration)
	}
	return &Contract{abi: abiDoc, address: address, provider: p}, nil
}

func isNil(p network.Provider) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// NewFromJSON parses a JSON ABI and binds it.
func NewFromJSON(raw []byte, address domain.Address, p network.Provider) (*Contract, error) {
	parsed, err := abi.Parse(raw)
	if err != nil {
		return nil, err
	}
	return New(parsed, address, p)
}

// Address returns the contract address.
func (c *Contract) Address() domain.Address {
	return c.address
}

// ABI returns the contract ABI.
func (c *Contract) ABI() *abi.ABI {
	return c.abi
}

// Functions lists the callable function names in ABI order.
func (c *Contract) Functions() []string {
	return c.abi.Functions()
}

// IsView reports whether name only reads state.
func (c *Contract) IsView(name string) bool {
	e, ok := c.abi.Function(name)
	return ok && e.IsView()
}

func (c *Contract) entry(name string) (*abi.Entry, error) {
	e, ok := c.abi.Function(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", domain.ErrConfiguration, ErrUnknownFunction, name)
	}
	return e, nil
}

// Call runs name as a read call and decodes its outputs.
func (c *Contract) Call(ctx context.Context, name string, args ...any) (*abi.Result, error) {
	e, err := c.entry(name)
	if err != nil {
		return nil, err
	}
	calldata, err := abi.Encode(c.abi, e, args...)
	if err != nil {
		return nil, err
	}

	raw, err := c.provider.CallContract(ctx, network.CallRequest{
		Address:    c.address,
		EntryPoint: name,
		Calldata:   calldata,
	})
	if err != nil {
		return nil, err
	}
	return abi.Decode(c.abi, e, raw)
}

// Invoke submits name as a transaction and returns its hash without
// waiting for finality. View functions cannot be invoked.
func (c *Contract) Invoke(ctx context.Context, name string, signature []string, args ...any) (*domain.InvokeResult, error) {
	e, err := c.entry(name)
	if err != nil {
		return nil, err
	}
	if e.IsView() {
		return nil, fmt.Errorf("%w: %q is a view function, use Call", domain.ErrConfiguration, name)
	}
	calldata, err := abi.Encode(c.abi, e, args...)
	if err != nil {
		return nil, err
	}

	return c.provider.Invoke(ctx, network.InvokeRequest{
		Address:    c.address,
		EntryPoint: name,
		Calldata:   calldata,
		Signature:  signature,
	})
}

// Method is one ABI function bound to the contract.
type Method struct {
	contract *Contract
	entry    *abi.Entry
}

// Method returns the bound function name.
func (c *Contract) Method(name string) (*Method, error) {
	e, err := c.entry(name)
	if err != nil {
		return nil, err
	}
	return &Method{contract: c, entry: e}, nil
}

// Methods returns every ABI function bound to the contract.
func (c *Contract) Methods() map[string]*Method {
	out := make(map[string]*Method)
	for _, name := range c.abi.Functions() {
		e, _ := c.abi.Function(name)
		out[name] = &Method{contract: c, entry: e}
	}
	return out
}

// Name returns the function name.
func (m *Method) Name() string {
	return m.entry.Name
}

// IsView reports whether the function only reads state.
func (m *Method) IsView() bool {
	return m.entry.IsView()
}

// Call runs the function as a read call.
func (m *Method) Call(ctx context.Context, args ...any) (*abi.Result, error) {
	return m.contract.Call(ctx, m.entry.Name, args...)
}

// Invoke submits the function as a transaction.
func (m *Method) Invoke(ctx context.Context, signature []string, args ...any) (*domain.InvokeResult, error) {
	return m.contract.Invoke(ctx, m.entry.Name, signature, args...)
}

// Outcome is what Execute produced: a decoded result for view functions,
// a submitted transaction otherwise.
type Outcome struct {
	Result *abi.Result
	Tx     *domain.InvokeResult
}

// Execute calls view functions and invokes state-changing ones.
// The signature is ignored for calls.
func (m *Method) Execute(ctx context.Context, signature []string, args ...any) (*Outcome, error) {
	if m.entry.IsView() {
		res, err := m.Call(ctx, args...)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: res}, nil
	}
	tx, err := m.Invoke(ctx, signature, args...)
	if err != nil {
		return nil, err
	}
	return &Outcome{Tx: tx}, nil
}
