package network

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/waittx"
)

func newTestGateway(t *testing.T, baseURL string, devnet bool) Provider {
	t.Helper()
	p, err := New(Config{
		Name:    "test",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Devnet:  devnet,
	}, Deps{
		Wait:  waittx.Config{Interval: time.Millisecond, Timeout: 5 * time.Second},
		Retry: rpc.RetryConfig{MaxAttempts: 1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestGateway_DeployAndWait(t *testing.T) {
	seq, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)
	ctx := context.Background()

	res, err := p.Deploy(ctx, DeployRequest{Contract: testContract()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if !isHex(string(res.TransactionHash)) || !isHex(string(res.ContractAddress)) {
		t.Fatalf("expected hash and address, got %+v", res)
	}

	body := seq.requests[0]
	if body["type"] != "DEPLOY" {
		t.Errorf("expected DEPLOY, got %v", body["type"])
	}
	if calldata, _ := body["constructor_calldata"].([]any); len(calldata) != 0 {
		t.Errorf("expected empty constructor calldata, got %v", calldata)
	}
	if salt, _ := body["contract_address_salt"].(string); !isHex(salt) {
		t.Errorf("expected a random hex salt, got %v", body["contract_address_salt"])
	}

	status, err := p.WaitForTransaction(ctx, res.TransactionHash)
	if err != nil {
		t.Fatalf("WaitForTransaction: %v", err)
	}
	if status.Status != domain.TxStatusAcceptedOnL2 {
		t.Errorf("expected ACCEPTED_ON_L2, got %s", status.Status)
	}

	// Terminal statuses stay put.
	for i := 0; i < 3; i++ {
		again, err := p.GetTransactionStatus(ctx, res.TransactionHash)
		if err != nil || again.Status != domain.TxStatusAcceptedOnL2 {
			t.Fatalf("expected stable ACCEPTED_ON_L2, got %+v, %v", again, err)
		}
	}
}

func TestGateway_DeployCompressesProgram(t *testing.T) {
	seq, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	_, err := p.Deploy(context.Background(), DeployRequest{
		Contract:            testContract(),
		ConstructorCalldata: []*big.Int{big.NewInt(7)},
		Salt:                big.NewInt(0x42),
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	body := seq.requests[0]
	if body["contract_address_salt"] != "0x42" {
		t.Errorf("expected salt 0x42, got %v", body["contract_address_salt"])
	}
	if calldata, _ := body["constructor_calldata"].([]any); len(calldata) != 1 || calldata[0] != "7" {
		t.Errorf("expected decimal calldata [7], got %v", body["constructor_calldata"])
	}
	def := body["contract_definition"].(map[string]any)
	program, err := decompressProgram(def["program"].(string))
	if err != nil {
		t.Fatalf("DecompressProgram: %v", err)
	}
	if len(program) == 0 || program[0] != '{' {
		t.Errorf("expected program json, got %q", program)
	}
}

func TestGateway_DeployWithoutProgram(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	_, err := p.Deploy(context.Background(), DeployRequest{Contract: &domain.CompiledContract{}})
	if !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
}

func TestGateway_InvokeAndCall(t *testing.T) {
	seq, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)
	ctx := context.Background()

	dep, err := p.Deploy(ctx, DeployRequest{Contract: testContract()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	inv, err := p.Invoke(ctx, InvokeRequest{
		Address:    dep.ContractAddress,
		EntryPoint: "transfer",
		Calldata:   []*big.Int{big.NewInt(1), big.NewInt(2)},
		Signature:  []string{"0x1", "0x2"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !isHex(string(inv.TransactionHash)) {
		t.Errorf("expected hash, got %q", inv.TransactionHash)
	}
	body := seq.requests[1]
	if body["entry_point_selector"] != "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e" {
		t.Errorf("unexpected selector %v", body["entry_point_selector"])
	}
	if sig, _ := body["signature"].([]any); len(sig) != 2 {
		t.Errorf("expected signature to pass through, got %v", body["signature"])
	}

	result, err := p.CallContract(ctx, CallRequest{
		Address:    dep.ContractAddress,
		EntryPoint: "balance_of",
		Calldata:   []*big.Int{big.NewInt(1)},
	})
	if err != nil {
		t.Fatalf("CallContract: %v", err)
	}
	if len(result) != 1 || result[0].Sign() != 0 {
		t.Errorf("expected [0], got %v", result)
	}
}

func TestGateway_CallKeepsNumericFeltPrecision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[12345678901234567891, "0x1"]}`))
	}))
	defer srv.Close()
	p := newTestGateway(t, srv.URL, true)

	result, err := p.CallContract(context.Background(), CallRequest{Address: "0x123", EntryPoint: "balance_of"})
	if err != nil {
		t.Fatalf("CallContract: %v", err)
	}
	want, _ := new(big.Int).SetString("12345678901234567891", 10)
	if len(result) != 2 || result[0].Cmp(want) != 0 {
		t.Errorf("expected %s, got %v", want, result)
	}
}

func TestGateway_CallUnknownContract(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	_, err := p.CallContract(context.Background(), CallRequest{Address: "0x123", EntryPoint: "balance_of"})
	if !errors.Is(err, domain.ErrCall) {
		t.Fatalf("expected ErrCall, got %v", err)
	}
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) || gwErr.Code != "StarknetErrorCode.UNINITIALIZED_CONTRACT" {
		t.Errorf("expected revert reason, got %v", err)
	}
}

func TestGateway_InvokeRejected(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	_, err := p.Invoke(context.Background(), InvokeRequest{Address: "0x123", EntryPoint: "transfer"})
	if !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
}

func TestGateway_StatusOfUnknownHash(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	status, err := p.GetTransactionStatus(context.Background(), "0x0123456789abcdef")
	if err != nil {
		t.Fatalf("unknown hash must not be an error, got %v", err)
	}
	if status.Status != domain.TxStatusNotReceived {
		t.Errorf("expected NOT_RECEIVED, got %s", status.Status)
	}
}

func TestGateway_StatusOfMalformedHash(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	if _, err := p.GetTransactionStatus(context.Background(), "hello"); !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
}

func TestGateway_TraceAndCode(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)
	ctx := context.Background()

	dep, err := p.Deploy(ctx, DeployRequest{Contract: testContract()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	trace, err := p.GetTransactionTrace(ctx, dep.TransactionHash)
	if err != nil {
		t.Fatalf("GetTransactionTrace: %v", err)
	}
	if len(trace.Signature) != 2 || len(trace.FunctionInvocation) == 0 {
		t.Errorf("unexpected trace %+v", trace)
	}

	if _, err := p.GetTransactionTrace(ctx, "0xdead"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown trace, got %v", err)
	}

	code, err := p.GetCode(ctx, dep.ContractAddress)
	if err != nil {
		t.Fatalf("GetCode: %v", err)
	}
	if len(code.Bytecode) != 2 || len(code.ABI) == 0 {
		t.Errorf("unexpected code %+v", code)
	}

	if _, err := p.GetCode(ctx, "0x999"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty code, got %v", err)
	}
}

func TestGateway_ContractAddresses(t *testing.T) {
	seq, srv := newFakeSequencer(t)
	ctx := context.Background()

	p := newTestGateway(t, srv.URL, false)
	addrs, err := p.GetContractAddresses(ctx)
	if err != nil {
		t.Fatalf("GetContractAddresses: %v", err)
	}
	if addrs.Starknet == "" || addrs.GpsStatementVerifier == "" {
		t.Errorf("expected both addresses, got %+v", addrs)
	}

	// Flagged devnet: no request is made.
	flagged := newTestGateway(t, srv.URL, true)
	if _, err := flagged.GetContractAddresses(ctx); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	// Unflagged network that doesn't serve the endpoint.
	seq.mu.Lock()
	seq.devnet = true
	seq.mu.Unlock()
	if _, err := p.GetContractAddresses(ctx); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for 404, got %v", err)
	}
}

func TestGateway_WaitTimesOut(t *testing.T) {
	_, srv := newFakeSequencer(t)
	p := newTestGateway(t, srv.URL, true)

	_, err := p.WaitForTransaction(context.Background(), "0xabc", waittx.WithMaxAttempts(1), waittx.WithInterval(0))
	if !errors.Is(err, domain.ErrTransactionTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestSelector(t *testing.T) {
	if got := domain.FeltHex(Selector("transfer")); got != "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e" {
		t.Errorf("unexpected transfer selector %s", got)
	}
	if Selector(DefaultEntryPoint).Sign() != 0 {
		t.Error("__default__ selector must be zero")
	}
	for _, name := range []string{"balance_of", "increase_balance", "constructor"} {
		if Selector(name).BitLen() > 250 {
			t.Errorf("selector of %s exceeds 250 bits", name)
		}
	}
}
