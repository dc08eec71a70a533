package abi

import (
	"encoding/json"
	"math/big"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// Result is a decoded call result. Values are reachable by position and by
// output name; both views read the same backing slice.
//
// Value types: felt → *big.Int, felt* → []*big.Int, struct → map[string]any,
// struct array → []map[string]any.
type Result struct {
	values []any
	names  []string
	index  map[string]int
}

func newResult(capacity int) *Result {
	return &Result{
		values: make([]any, 0, capacity),
		names:  make([]string, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (r *Result) add(name string, v any) {
	r.index[name] = len(r.values)
	r.values = append(r.values, v)
	r.names = append(r.names, name)
}

// Len returns the number of decoded outputs.
func (r *Result) Len() int {
	return len(r.values)
}

// At returns the i-th output, or nil when out of range.
func (r *Result) At(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Field returns the output with the given name.
func (r *Result) Field(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Res returns the first output. It is the same value as At(0).
func (r *Result) Res() any {
	return r.At(0)
}

// Names returns the output names in order.
func (r *Result) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Felt returns a named felt output.
func (r *Result) Felt(name string) (*big.Int, bool) {
	v, ok := r.Field(name)
	if !ok {
		return nil, false
	}
	f, ok := v.(*big.Int)
	return f, ok
}

// MarshalJSON renders the result as an object keyed by output name with
// felts in hex.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.values))
	for i, name := range r.names {
		out[name] = jsonValue(r.values[i])
	}
	return json.Marshal(out)
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case *big.Int:
		return domain.FeltHex(x)
	case []*big.Int:
		return domain.FeltHexes(x)
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = jsonValue(vv)
		}
		return m
	case []map[string]any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = jsonValue(vv)
		}
		return s
	}
	return v
}
