package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/network"
	"github.com/vietddude/seqgate/internal/waittx"
)

const tokenABI = `[
  {"type": "function", "name": "balance_of", "inputs": [{"name": "user", "type": "felt"}],
   "outputs": [{"name": "res", "type": "felt"}], "stateMutability": "view"},
  {"type": "function", "name": "mint", "inputs": [{"name": "to", "type": "felt"}, {"name": "amount", "type": "felt"}],
   "outputs": []}
]`

// stubProvider records requests and answers from fixed values.
type stubProvider struct {
	network.Provider

	callResult []*big.Int
	callErr    error
	calls      []network.CallRequest
	invokes    []network.InvokeRequest
}

func (s *stubProvider) CallContract(ctx context.Context, req network.CallRequest) ([]*big.Int, error) {
	s.calls = append(s.calls, req)
	return s.callResult, s.callErr
}

func (s *stubProvider) Invoke(ctx context.Context, req network.InvokeRequest) (*domain.InvokeResult, error) {
	s.invokes = append(s.invokes, req)
	return &domain.InvokeResult{TransactionHash: "0xabc"}, nil
}

func (s *stubProvider) WaitForTransaction(ctx context.Context, hash domain.TxHash, opts ...waittx.Option) (*domain.StatusResponse, error) {
	panic("contract must not wait for finality")
}

const tokenAddress = domain.Address("0x5a4d278dceae5ff055796f1f59a646f72628730b7d72acb5483062cb1ce82dd")

func TestNew_Validation(t *testing.T) {
	p := &stubProvider{}

	if _, err := New(nil, tokenAddress, p); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("nil abi: expected ErrConfiguration, got %v", err)
	}
	if _, err := NewFromJSON([]byte(""), tokenAddress, p); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("empty abi: expected ErrConfiguration, got %v", err)
	}
	if _, err := NewFromJSON([]byte(`[{"type": "function"`), tokenAddress, p); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("malformed abi: expected ErrConfiguration, got %v", err)
	}
	if _, err := NewFromJSON([]byte(tokenABI), "token", p); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("bad address: expected ErrConfiguration, got %v", err)
	}
	if _, err := NewFromJSON([]byte(tokenABI), tokenAddress, nil); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("nil provider: expected ErrConfiguration, got %v", err)
	}
	var typedNil *network.GatewayProvider
	if _, err := NewFromJSON([]byte(tokenABI), tokenAddress, typedNil); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("typed nil provider: expected ErrConfiguration, got %v", err)
	}
}

func TestCall_BalanceOfZero(t *testing.T) {
	p := &stubProvider{callResult: []*big.Int{big.NewInt(0)}}
	c, err := NewFromJSON([]byte(tokenABI), tokenAddress, p)
	if err != nil {
		t.Fatalf("NewFromJSON: %v", err)
	}

	result, err := c.Call(context.Background(), "balance_of", "0x1234")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	res, ok := result.Res().(*big.Int)
	if !ok || res.Sign() != 0 {
		t.Fatalf("expected balance 0, got %v", result.Res())
	}
	if result.At(0) != result.Res() {
		t.Error("At(0) and Res() must be the same value")
	}

	req := p.calls[0]
	if req.Address != tokenAddress || req.EntryPoint != "balance_of" {
		t.Errorf("unexpected request %+v", req)
	}
	if len(req.Calldata) != 1 || req.Calldata[0].Int64() != 0x1234 {
		t.Errorf("unexpected calldata %v", req.Calldata)
	}
}

func TestCall_Errors(t *testing.T) {
	p := &stubProvider{callResult: []*big.Int{}}
	c, _ := NewFromJSON([]byte(tokenABI), tokenAddress, p)
	ctx := context.Background()

	if _, err := c.Call(ctx, "total_supply"); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("expected ErrUnknownFunction, got %v", err)
	}
	if _, err := c.Call(ctx, "balance_of"); !errors.Is(err, domain.ErrEncoding) {
		t.Errorf("expected ErrEncoding, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Errorf("bad arguments must not reach the provider")
	}
	if _, err := c.Call(ctx, "balance_of", 1); !errors.Is(err, domain.ErrDecoding) {
		t.Errorf("expected ErrDecoding for empty result, got %v", err)
	}

	p.callErr = &domain.GatewayError{Kind: domain.ErrCall, Code: "StarknetErrorCode.TRANSACTION_FAILED", Message: "assert"}
	if _, err := c.Call(ctx, "balance_of", 1); !errors.Is(err, domain.ErrCall) {
		t.Errorf("expected ErrCall, got %v", err)
	}
}

func TestInvoke_ReturnsHashWithoutWaiting(t *testing.T) {
	p := &stubProvider{}
	c, _ := NewFromJSON([]byte(tokenABI), tokenAddress, p)

	res, err := c.Invoke(context.Background(), "mint", []string{"0x1", "0x2"}, "0x99", 1000)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.TransactionHash != "0xabc" {
		t.Errorf("unexpected hash %s", res.TransactionHash)
	}

	req := p.invokes[0]
	if req.EntryPoint != "mint" || len(req.Signature) != 2 {
		t.Errorf("unexpected request %+v", req)
	}
	if len(req.Calldata) != 2 || req.Calldata[1].Int64() != 1000 {
		t.Errorf("unexpected calldata %v", req.Calldata)
	}
}

func TestMethods(t *testing.T) {
	p := &stubProvider{callResult: []*big.Int{big.NewInt(7)}}
	c, _ := NewFromJSON([]byte(tokenABI), tokenAddress, p)

	methods := c.Methods()
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(methods))
	}
	if !methods["balance_of"].IsView() || methods["mint"].IsView() {
		t.Error("unexpected view flags")
	}
	if !c.IsView("balance_of") || c.IsView("mint") || c.IsView("missing") {
		t.Error("unexpected IsView results")
	}

	m, err := c.Method("balance_of")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}
	result, err := m.Call(context.Background(), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v, _ := result.Felt("res"); v.Int64() != 7 {
		t.Errorf("expected 7, got %v", v)
	}

	if _, err := c.Method("burn"); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestInvoke_RefusesViewFunction(t *testing.T) {
	p := &stubProvider{}
	c, _ := NewFromJSON([]byte(tokenABI), tokenAddress, p)

	if _, err := c.Invoke(context.Background(), "balance_of", nil, "0x1"); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if len(p.invokes) != 0 {
		t.Errorf("view function reached the provider as a transaction")
	}
}

func TestMethod_ExecuteRoutesByMutability(t *testing.T) {
	p := &stubProvider{callResult: []*big.Int{big.NewInt(7)}}
	c, _ := NewFromJSON([]byte(tokenABI), tokenAddress, p)
	ctx := context.Background()
	methods := c.Methods()

	out, err := methods["balance_of"].Execute(ctx, nil, "0x1")
	if err != nil {
		t.Fatalf("Execute balance_of: %v", err)
	}
	if out.Tx != nil || out.Result == nil {
		t.Fatalf("expected a call result, got %+v", out)
	}
	if res, _ := out.Result.Felt("res"); res == nil || res.Int64() != 7 {
		t.Errorf("expected res 7, got %v", out.Result.Res())
	}

	out, err = methods["mint"].Execute(ctx, []string{"0x1"}, "0x99", 5)
	if err != nil {
		t.Fatalf("Execute mint: %v", err)
	}
	if out.Result != nil || out.Tx == nil || out.Tx.TransactionHash != "0xabc" {
		t.Fatalf("expected a transaction, got %+v", out)
	}

	if len(p.calls) != 1 || len(p.invokes) != 1 {
		t.Errorf("expected one call and one invoke, got %d and %d", len(p.calls), len(p.invokes))
	}
	if p.invokes[0].EntryPoint != "mint" || len(p.invokes[0].Signature) != 1 {
		t.Errorf("unexpected invoke %+v", p.invokes[0])
	}
}
