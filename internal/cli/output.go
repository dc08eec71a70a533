package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/vietddude/seqgate/internal/core/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseFelts parses raw calldata given as decimal or 0x-hex strings.
func parseFelts(args []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(args))
	for i, a := range args {
		v, err := domain.ToFelt(a)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %w", domain.ErrEncoding, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseArgs turns command line words into ABI arguments. Words starting
// with '[' or '{' are JSON arrays and structs; anything else is a scalar.
func parseArgs(args []string) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		trimmed := strings.TrimSpace(a)
		if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
			out[i] = trimmed
			continue
		}
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: argument %d is not valid JSON: %w", domain.ErrEncoding, i, err)
		}
		out[i] = numbersToStrings(v)
	}
	return out, nil
}

func numbersToStrings(v any) any {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case []any:
		for i := range x {
			x[i] = numbersToStrings(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = numbersToStrings(x[k])
		}
		return x
	}
	return v
}

func loadCompiled(path string) (*domain.CompiledContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract: %w", err)
	}
	var compiled domain.CompiledContract
	if err := json.Unmarshal(data, &compiled); err != nil {
		return nil, fmt.Errorf("%w: contract %s: %w", domain.ErrConfiguration, path, err)
	}
	if len(compiled.Program) == 0 {
		return nil, fmt.Errorf("%w: contract %s has no program", domain.ErrConfiguration, path)
	}
	return &compiled, nil
}

// loadABI accepts a bare ABI document or compiler output carrying an "abi" key.
func loadABI(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read abi: %w", err)
	}
	var wrapped struct {
		ABI json.RawMessage `json:"abi"`
	}
	if json.Unmarshal(data, &wrapped) == nil && len(wrapped.ABI) > 0 {
		return wrapped.ABI, nil
	}
	return data, nil
}

func feltStrings(values []*big.Int) []string {
	return domain.FeltHexes(values)
}
