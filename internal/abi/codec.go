package abi

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// maxArrayLen caps decoded array lengths so a garbage length felt cannot
// trigger a huge allocation.
const maxArrayLen = 1 << 20

// Arity returns the number of arguments entry expects.
func Arity(entry *Entry) int {
	n := 0
	for i := range entry.Inputs {
		if !lengthOf(entry.Inputs, i) {
			n++
		}
	}
	return n
}

// Encode flattens args into calldata following entry's inputs.
func Encode(a *ABI, entry *Entry, args ...any) ([]*big.Int, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil abi entry", domain.ErrEncoding)
	}
	if want := Arity(entry); len(args) != want {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d",
			domain.ErrEncoding, entry.Name, want, len(args))
	}

	calldata := make([]*big.Int, 0, len(args))
	next := 0
	for i, p := range entry.Inputs {
		if lengthOf(entry.Inputs, i) {
			continue
		}
		var err error
		calldata, err = a.encodeValue(calldata, p.Type, args[next])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrEncoding, entry.Name, p.Name, err)
		}
		next++
	}
	return calldata, nil
}

// EncodeConstructor encodes constructor arguments. An ABI without a
// constructor accepts no arguments.
func EncodeConstructor(a *ABI, args ...any) ([]*big.Int, error) {
	if a == nil || a.constructor == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: contract has no constructor, got %d arguments",
				domain.ErrEncoding, len(args))
		}
		return []*big.Int{}, nil
	}
	return Encode(a, a.constructor, args...)
}

func (a *ABI) encodeValue(out []*big.Int, typ string, arg any) ([]*big.Int, error) {
	switch {
	case typ == FeltType:
		v, err := domain.ToFelt(arg)
		if err != nil {
			return nil, err
		}
		return append(out, v), nil
	case isArray(typ):
		return a.encodeArray(out, elemType(typ), arg)
	}
	if a == nil {
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	s, ok := a.structs[typ]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	return a.encodeStruct(out, s, arg)
}

func (a *ABI) encodeArray(out []*big.Int, elem string, arg any) ([]*big.Int, error) {
	rv := reflect.ValueOf(arg)
	if arg == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected a slice for %s*, got %T", elem, arg)
	}
	out = append(out, big.NewInt(int64(rv.Len())))
	for i := 0; i < rv.Len(); i++ {
		var err error
		out, err = a.encodeValue(out, elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// encodeStruct accepts a map keyed by member name, a slice in member order,
// or a Go struct whose fields are tagged `abi:"member"` (or named after the
// member, case-insensitively).
func (a *ABI) encodeStruct(out []*big.Int, s *Struct, arg any) ([]*big.Int, error) {
	values, err := structValues(s, arg)
	if err != nil {
		return nil, err
	}
	for i, m := range s.Members {
		out, err = a.encodeValue(out, m.Type, values[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
		}
	}
	return out, nil
}

func structValues(s *Struct, arg any) ([]any, error) {
	values := make([]any, len(s.Members))

	switch x := arg.(type) {
	case map[string]any:
		for i, m := range s.Members {
			v, ok := x[m.Name]
			if !ok {
				return nil, fmt.Errorf("%s: missing member %q", s.Name, m.Name)
			}
			values[i] = v
		}
		if len(x) != len(s.Members) {
			return nil, fmt.Errorf("%s: expected %d members, got %d", s.Name, len(s.Members), len(x))
		}
		return values, nil
	case []any:
		if len(x) != len(s.Members) {
			return nil, fmt.Errorf("%s: expected %d members, got %d", s.Name, len(s.Members), len(x))
		}
		copy(values, x)
		return values, nil
	}

	rv := reflect.ValueOf(arg)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: unsupported struct value of type %T", s.Name, arg)
	}

	fields := make(map[string]reflect.Value, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("abi")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[normalize(name)] = rv.Field(i)
	}
	for i, m := range s.Members {
		f, ok := fields[normalize(m.Name)]
		if !ok {
			return nil, fmt.Errorf("%s: missing member %q", s.Name, m.Name)
		}
		values[i] = f.Interface()
	}
	return values, nil
}

func normalize(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_':
			continue
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}

// Decode maps raw felts onto entry's outputs. Surplus felts are ignored.
func Decode(a *ABI, entry *Entry, raw []*big.Int) (*Result, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil abi entry", domain.ErrDecoding)
	}

	d := &decoder{abi: a, raw: raw}
	result := newResult(len(entry.Outputs))
	for i := 0; i < len(entry.Outputs); i++ {
		p := entry.Outputs[i]
		if lengthOf(entry.Outputs, i) {
			arr := entry.Outputs[i+1]
			v, err := d.array(elemType(arr.Type))
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrDecoding, entry.Name, arr.Name, err)
			}
			result.add(arr.Name, v)
			i++
			continue
		}
		v, err := d.value(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrDecoding, entry.Name, p.Name, err)
		}
		result.add(p.Name, v)
	}
	return result, nil
}

type decoder struct {
	abi *ABI
	raw []*big.Int
	pos int
}

func (d *decoder) felt() (*big.Int, error) {
	if d.pos >= len(d.raw) {
		return nil, fmt.Errorf("result too short: need more than %d felts", len(d.raw))
	}
	v := d.raw[d.pos]
	if v == nil {
		return nil, fmt.Errorf("nil felt at position %d", d.pos)
	}
	d.pos++
	return v, nil
}

func (d *decoder) value(typ string) (any, error) {
	switch {
	case typ == FeltType:
		return d.felt()
	case isArray(typ):
		return d.array(elemType(typ))
	}
	if d.abi == nil {
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	s, ok := d.abi.structs[typ]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	return d.structValue(s)
}

func (d *decoder) structValue(s *Struct) (map[string]any, error) {
	out := make(map[string]any, len(s.Members))
	for _, m := range s.Members {
		v, err := d.value(m.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
		}
		out[m.Name] = v
	}
	return out, nil
}

func (d *decoder) array(elem string) (any, error) {
	n, err := d.felt()
	if err != nil {
		return nil, err
	}
	if !n.IsInt64() || n.Int64() > maxArrayLen {
		return nil, fmt.Errorf("array length %s out of range", n)
	}
	length := int(n.Int64())
	if length > len(d.raw)-d.pos {
		return nil, fmt.Errorf("result too short: array of %d with %d felts left", length, len(d.raw)-d.pos)
	}

	if elem == FeltType {
		out := make([]*big.Int, length)
		for i := range out {
			if out[i], err = d.felt(); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	if d.abi == nil {
		return nil, fmt.Errorf("unknown type %q", elem)
	}
	s, ok := d.abi.structs[elem]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", elem)
	}
	out := make([]map[string]any, length)
	for i := range out {
		if out[i], err = d.structValue(s); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// DecodeFelts parses felts as returned on the wire (hex or decimal strings).
func DecodeFelts(raw []string) ([]*big.Int, error) {
	out, err := domain.ParseFelts(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecoding, err)
	}
	return out, nil
}
