package contract

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/network"
)

func TestCall_ThroughGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feeder_gateway/call_contract" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["entry_point_selector"] != domain.FeltHex(network.Selector("balance_of")) {
			t.Errorf("unexpected selector %v", body["entry_point_selector"])
		}
		if calldata, _ := body["calldata"].([]any); len(calldata) != 1 || calldata[0] != "4660" {
			t.Errorf("expected decimal calldata [4660], got %v", body["calldata"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []string{"0x0"}})
	}))
	defer srv.Close()

	p, err := network.New(network.Config{BaseURL: srv.URL, Devnet: true}, network.Deps{})
	if err != nil {
		t.Fatalf("network.New: %v", err)
	}
	c, err := NewFromJSON([]byte(tokenABI), tokenAddress, p)
	if err != nil {
		t.Fatalf("NewFromJSON: %v", err)
	}

	result, err := c.Call(context.Background(), "balance_of", "0x1234")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Res().(*big.Int).Sign() != 0 || result.At(0) != result.Res() {
		t.Errorf("expected res 0 aliased at position 0, got %v", result.Res())
	}
}
