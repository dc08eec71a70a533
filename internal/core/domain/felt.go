package domain

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
)

// FieldPrime is the modulus of the network's prime field: 2^251 + 17*2^192 + 1.
var FieldPrime, _ = new(big.Int).SetString(
	"800000000000011000000000000000000000000000000000000000000000001", 16,
)

// Felt is a field element. The zero value is not a valid felt; use NewFelt.
type Felt struct {
	v *big.Int
}

// NewFelt wraps v after checking it is inside the field.
func NewFelt(v *big.Int) (Felt, error) {
	if err := checkFelt(v); err != nil {
		return Felt{}, err
	}
	return Felt{v: new(big.Int).Set(v)}, nil
}

// ParseFelt parses a decimal or 0x-prefixed hex string.
func ParseFelt(s string) (Felt, error) {
	v, err := parseBig(s)
	if err != nil {
		return Felt{}, err
	}
	return NewFelt(v)
}

// Big returns a copy of the underlying integer.
func (f Felt) Big() *big.Int {
	if f.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.v)
}

// Hex formats the felt as 0x-prefixed lowercase hex.
func (f Felt) Hex() string {
	return FeltHex(f.v)
}

func (f Felt) String() string {
	if f.v == nil {
		return "0"
	}
	return f.v.String()
}

// FeltHex formats a raw integer the way the gateway returns felts.
func FeltHex(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return "0x" + v.Text(16)
}

// FeltDecimals renders calldata as decimal strings for the wire.
func FeltDecimals(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

// FeltHexes renders calldata as hex strings for the JSON-RPC wire.
func FeltHexes(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FeltHex(v)
	}
	return out
}

// ParseFelts parses a wire array of felts (hex or decimal).
func ParseFelts(raw []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(raw))
	for i, s := range raw {
		f, err := ParseFelt(s)
		if err != nil {
			return nil, fmt.Errorf("felt %d: %w", i, err)
		}
		out[i] = f.v
	}
	return out, nil
}

// ToFelt normalizes a scalar argument into a field element.
// Accepted: *big.Int, big.Int, Felt, Go integer kinds and numeric strings.
func ToFelt(arg any) (*big.Int, error) {
	var v *big.Int
	switch x := arg.(type) {
	case nil:
		return nil, fmt.Errorf("nil value")
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil value")
		}
		v = new(big.Int).Set(x)
	case big.Int:
		v = new(big.Int).Set(&x)
	case Felt:
		if x.v == nil {
			return nil, fmt.Errorf("uninitialized felt")
		}
		v = x.Big()
	case string:
		parsed, err := parseBig(x)
		if err != nil {
			return nil, err
		}
		v = parsed
	case Address:
		parsed, err := parseBig(string(x))
		if err != nil {
			return nil, err
		}
		v = parsed
	default:
		rv := reflect.ValueOf(arg)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			v = big.NewInt(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			v = new(big.Int).SetUint64(rv.Uint())
		default:
			return nil, fmt.Errorf("unsupported felt value of type %T", arg)
		}
	}
	if err := checkFelt(v); err != nil {
		return nil, err
	}
	return v, nil
}

func checkFelt(v *big.Int) error {
	if v == nil {
		return fmt.Errorf("nil value")
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative value %s is not a felt", v)
	}
	if v.Cmp(FieldPrime) >= 0 {
		return fmt.Errorf("value %s exceeds field modulus", v)
	}
	return nil
}

func parseBig(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty numeric string")
	}
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid numeric string %q", s)
	}
	return v, nil
}
