package network

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// fakeSequencer serves the gateway and feeder gateway endpoints used by
// GatewayProvider. Submitted transactions advance one status per poll.
type fakeSequencer struct {
	t      *testing.T
	devnet bool

	mu        sync.Mutex
	nextID    int
	txs       map[string][]domain.TxStatus
	contracts map[string]bool
	requests  []map[string]any
	balances  map[string]string
}

func newFakeSequencer(t *testing.T) (*fakeSequencer, *httptest.Server) {
	f := &fakeSequencer{
		t:         t,
		txs:       make(map[string][]domain.TxStatus),
		contracts: make(map[string]bool),
		balances:  make(map[string]string),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSequencer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/gateway/add_transaction":
		f.addTransaction(w, r)
	case "/feeder_gateway/get_transaction_status":
		f.status(w, r.URL.Query().Get("transactionHash"))
	case "/feeder_gateway/call_contract":
		f.call(w, r)
	case "/feeder_gateway/get_transaction_trace":
		hash := r.URL.Query().Get("transactionHash")
		if _, ok := f.txs[hash]; !ok {
			gatewayErr(w, http.StatusInternalServerError, "TRANSACTION_NOT_FOUND", "no trace for "+hash)
			return
		}
		writeJSON(w, map[string]any{
			"function_invocation": map[string]any{"caller_address": "0x0", "result": []any{}},
			"signature":           []any{"0x1", "0x2"},
		})
	case "/feeder_gateway/get_code":
		if r.URL.Query().Get("blockNumber") != "pending" {
			f.t.Errorf("get_code should read pending state")
		}
		if !f.contracts[r.URL.Query().Get("contractAddress")] {
			writeJSON(w, map[string]any{"bytecode": []any{}, "abi": map[string]any{}})
			return
		}
		writeJSON(w, map[string]any{
			"bytecode": []any{"0x40780017fff7fff", "0x1"},
			"abi":      []any{map[string]any{"type": "function", "name": "balance_of"}},
		})
	case "/feeder_gateway/get_contract_addresses":
		if f.devnet {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{
			"GpsStatementVerifier": "0xAB43bA48c9edF4C2C4bB01237348D1D7B28ef168",
			"Starknet":             "0xde29d060D45901Fb19ED6C6e959EB22d8626708e",
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSequencer) addTransaction(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		gatewayErr(w, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
		return
	}
	f.requests = append(f.requests, body)

	f.nextID++
	hash := fmt.Sprintf("0x%064x", f.nextID)
	f.txs[hash] = []domain.TxStatus{domain.TxStatusReceived, domain.TxStatusPending, domain.TxStatusAcceptedOnL2}

	switch body["type"] {
	case txTypeDeploy:
		def, _ := body["contract_definition"].(map[string]any)
		program, _ := def["program"].(string)
		if _, err := decompressProgram(program); err != nil {
			gatewayErr(w, http.StatusBadRequest, "INVALID_PROGRAM", err.Error())
			return
		}
		address := fmt.Sprintf("0x%063x", 1000+f.nextID)
		f.contracts[address] = true
		f.balances[address] = "0x0"
		writeJSON(w, map[string]any{"code": "TRANSACTION_RECEIVED", "transaction_hash": hash, "address": address})
	case txTypeInvoke:
		if !f.contracts[fmt.Sprint(body["contract_address"])] {
			delete(f.txs, hash)
			gatewayErr(w, http.StatusInternalServerError, "UNINITIALIZED_CONTRACT", "contract not deployed")
			return
		}
		writeJSON(w, map[string]any{"code": "TRANSACTION_RECEIVED", "transaction_hash": hash})
	default:
		gatewayErr(w, http.StatusBadRequest, "MALFORMED_REQUEST", "unknown type")
	}
}

func (f *fakeSequencer) status(w http.ResponseWriter, hash string) {
	seq, ok := f.txs[hash]
	if !ok {
		writeJSON(w, map[string]any{"tx_status": "NOT_RECEIVED"})
		return
	}
	status := seq[0]
	if len(seq) > 1 {
		f.txs[hash] = seq[1:]
	}
	resp := map[string]any{"tx_status": string(status)}
	if status.IsTerminal() {
		resp["block_hash"] = "0x5"
	}
	writeJSON(w, resp)
}

func (f *fakeSequencer) call(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Query().Get("blockNumber") != "pending" {
		f.t.Errorf("call_contract should POST against pending, got %s %s", r.Method, r.URL.RawQuery)
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.requests = append(f.requests, body)

	address := fmt.Sprint(body["contract_address"])
	if !f.contracts[address] {
		gatewayErr(w, http.StatusInternalServerError, "UNINITIALIZED_CONTRACT",
			"Requested contract address "+address+" is not deployed.")
		return
	}
	if body["entry_point_selector"] != domain.FeltHex(Selector("balance_of")) {
		gatewayErr(w, http.StatusInternalServerError, "ENTRY_POINT_NOT_FOUND_IN_CONTRACT", "unknown entry point")
		return
	}
	writeJSON(w, map[string]any{"result": []any{f.balances[address]}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func gatewayErr(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]any{"code": "StarknetErrorCode." + code, "message": message})
}

const testProgram = `{"builtins": ["pedersen", "range_check"], "data": ["0x40780017fff7fff", "0x1"],
  "prime": "0x800000000000011000000000000000000000000000000000000000000000001"}`

func testContract() *domain.CompiledContract {
	return &domain.CompiledContract{
		Program:           json.RawMessage(testProgram),
		EntryPointsByType: json.RawMessage(`{"CONSTRUCTOR": [], "EXTERNAL": [], "L1_HANDLER": []}`),
		ABI:               json.RawMessage(`[]`),
	}
}

func isHex(s string) bool {
	return strings.HasPrefix(s, "0x") && len(s) > 2
}

// decompressProgram reverses compressProgram.
func decompressProgram(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
