package network

import (
	"context"
	"encoding/json"
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

func newTestNode(t *testing.T, handler func(method string, params []any) (any, *rpc.RPCError)) Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	p, err := New(Config{Name: "node", Kind: KindNode, BaseURL: srv.URL}, Deps{
		Wait:  waittx.Config{Interval: time.Millisecond, Timeout: 5 * time.Second},
		Retry: rpc.RetryConfig{MaxAttempts: 1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNode_Call(t *testing.T) {
	p := newTestNode(t, func(method string, params []any) (any, *rpc.RPCError) {
		if method != "starknet_call" {
			t.Errorf("unexpected method %s", method)
		}
		call := params[0].(map[string]any)
		if call["contract_address"] == "0x404" {
			return nil, &rpc.RPCError{Code: 20, Message: "Contract not found"}
		}
		if params[1] != "pending" {
			t.Errorf("expected pending block, got %v", params[1])
		}
		return []any{"0x5"}, nil
	})
	ctx := context.Background()

	result, err := p.CallContract(ctx, CallRequest{Address: "0x1", EntryPoint: "balance_of", Calldata: []*big.Int{big.NewInt(1)}})
	if err != nil {
		t.Fatalf("CallContract: %v", err)
	}
	if len(result) != 1 || result[0].Int64() != 5 {
		t.Errorf("expected [5], got %v", result)
	}

	if _, err := p.CallContract(ctx, CallRequest{Address: "0x404", EntryPoint: "balance_of"}); !errors.Is(err, domain.ErrCall) {
		t.Errorf("expected ErrCall, got %v", err)
	}
}

func TestNode_StatusAndWait(t *testing.T) {
	polls := 0
	p := newTestNode(t, func(method string, params []any) (any, *rpc.RPCError) {
		if method != "starknet_getTransactionReceipt" {
			t.Errorf("unexpected method %s", method)
		}
		switch params[0] {
		case "0x404":
			return nil, &rpc.RPCError{Code: 29, Message: "Transaction hash not found"}
		case "0x405":
			return nil, &rpc.RPCError{Code: 25, Message: "Invalid transaction hash"}
		case "0xbad":
			return map[string]any{"status": "REJECTED", "status_data": "assertion failed"}, nil
		}
		polls++
		if polls < 3 {
			return map[string]any{"status": "PENDING"}, nil
		}
		return map[string]any{"status": "ACCEPTED_ON_L2", "block_hash": "0x9"}, nil
	})
	ctx := context.Background()

	status, err := p.GetTransactionStatus(ctx, "0x404")
	if err != nil || status.Status != domain.TxStatusNotReceived {
		t.Fatalf("expected NOT_RECEIVED, got %+v, %v", status, err)
	}

	_, err = p.GetTransactionStatus(ctx, "0x405")
	if !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected ErrSubmission for invalid hash, got %v", err)
	}
	_, err = p.WaitForTransaction(ctx, "0x405", waittx.WithMaxAttempts(3))
	if !errors.Is(err, domain.ErrSubmission) || errors.Is(err, domain.ErrTransactionTimeout) {
		t.Fatalf("expected wait to fail immediately with ErrSubmission, got %v", err)
	}

	final, err := p.WaitForTransaction(ctx, "0x1")
	if err != nil || final.Status != domain.TxStatusAcceptedOnL2 {
		t.Fatalf("expected ACCEPTED_ON_L2, got %+v, %v", final, err)
	}

	_, err = p.WaitForTransaction(ctx, "0xbad")
	var rejected *waittx.RejectedError
	if !errors.As(err, &rejected) || rejected.Reason == nil || rejected.Reason.ErrorMessage != "assertion failed" {
		t.Fatalf("expected rejection with reason, got %v", err)
	}
}

func TestNode_Submissions(t *testing.T) {
	p := newTestNode(t, func(method string, params []any) (any, *rpc.RPCError) {
		switch method {
		case "starknet_addDeployTransaction":
			return map[string]any{"transaction_hash": "0x10", "contract_address": "0x20"}, nil
		case "starknet_addInvokeTransaction":
			call := params[0].(map[string]any)
			if call["entry_point_selector"] != domain.FeltHex(Selector("transfer")) {
				t.Errorf("unexpected selector %v", call["entry_point_selector"])
			}
			return map[string]any{"transaction_hash": "0x11"}, nil
		}
		return nil, &rpc.RPCError{Code: -32601, Message: "Method not found"}
	})
	ctx := context.Background()

	dep, err := p.Deploy(ctx, DeployRequest{Contract: testContract()})
	if err != nil || dep.ContractAddress != "0x20" {
		t.Fatalf("unexpected deploy %+v, %v", dep, err)
	}
	inv, err := p.Invoke(ctx, InvokeRequest{Address: "0x20", EntryPoint: "transfer"})
	if err != nil || inv.TransactionHash != "0x11" {
		t.Fatalf("unexpected invoke %+v, %v", inv, err)
	}
}

func TestNode_CodeTraceAddresses(t *testing.T) {
	p := newTestNode(t, func(method string, params []any) (any, *rpc.RPCError) {
		switch method {
		case "starknet_getCode":
			if params[0] == "0x404" {
				return nil, &rpc.RPCError{Code: 20, Message: "Contract not found"}
			}
			return map[string]any{"bytecode": []any{"0x1"}, "abi": `[{"type":"function"}]`}, nil
		case "starknet_traceTransaction":
			if params[0] == "0x404" {
				return nil, &rpc.RPCError{Code: 25, Message: "Invalid transaction hash"}
			}
			return map[string]any{"signature": []any{}, "function_invocation": map[string]any{}}, nil
		}
		return nil, &rpc.RPCError{Code: -32601, Message: "Method not found"}
	})
	ctx := context.Background()

	code, err := p.GetCode(ctx, "0x1")
	if err != nil || len(code.Bytecode) != 1 || string(code.ABI) != `[{"type":"function"}]` {
		t.Fatalf("unexpected code %+v, %v", code, err)
	}
	if _, err := p.GetCode(ctx, "0x404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	trace, err := p.GetTransactionTrace(ctx, "0x1")
	if err != nil || trace.Signature == nil {
		t.Fatalf("unexpected trace %+v, %v", trace, err)
	}
	if _, err := p.GetTransactionTrace(ctx, "0x404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := p.GetContractAddresses(ctx); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
