// Package abi parses contract ABI documents and translates between typed
// call arguments and flat felt calldata.
//
// Supported type tags:
//   - felt: one field element
//   - felt*: an array, sent length-prefixed
//   - <Struct>: a struct declared in the same ABI, flattened member by member
//   - <Struct>*: an array of structs
//
// A felt input named "<x>_len" directly followed by an array input "<x>" is
// the array's length. It is derived from the array argument and takes no
// argument of its own.
package abi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vietddude/seqgate/internal/core/domain"
)

// Entry types found in a compiled contract ABI.
const (
	EntryFunction    = "function"
	EntryConstructor = "constructor"
	EntryL1Handler   = "l1_handler"
	EntryEvent       = "event"
	EntryStruct      = "struct"
)

// FeltType is the scalar type tag.
const FeltType = "felt"

// Param is a named, typed input or output.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Member is a struct field. Offset is the felt offset inside the struct.
type Member struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset int    `json:"offset"`
}

// Struct describes a struct declared in the ABI.
type Struct struct {
	Name    string   `json:"name"`
	Size    int      `json:"size"`
	Members []Member `json:"members"`
}

// Entry describes one callable: a function, constructor or L1 handler.
type Entry struct {
	Type            string  `json:"type"`
	Name            string  `json:"name"`
	Inputs          []Param `json:"inputs"`
	Outputs         []Param `json:"outputs"`
	StateMutability string  `json:"stateMutability,omitempty"`
}

// IsView reports whether the entry only reads state.
func (e *Entry) IsView() bool {
	return e.StateMutability == "view"
}

// Event describes an event declared in the ABI.
type Event struct {
	Name string  `json:"name"`
	Keys []Param `json:"keys"`
	Data []Param `json:"data"`
}

// rawEntry is the union of every ABI entry shape.
type rawEntry struct {
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	Inputs          []Param  `json:"inputs"`
	Outputs         []Param  `json:"outputs"`
	StateMutability string   `json:"stateMutability"`
	Size            int      `json:"size"`
	Members         []Member `json:"members"`
	Keys            []Param  `json:"keys"`
	Data            []Param  `json:"data"`
}

// ABI is a parsed contract ABI. It is never mutated after Parse.
type ABI struct {
	functions   map[string]*Entry
	order       []string
	constructor *Entry
	structs     map[string]*Struct
	events      map[string]*Event
}

// Parse reads a JSON ABI array.
func Parse(data []byte) (*ABI, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty abi", domain.ErrConfiguration)
	}

	var entries []rawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse abi: %v", domain.ErrConfiguration, err)
	}

	a := &ABI{
		functions: make(map[string]*Entry),
		structs:   make(map[string]*Struct),
		events:    make(map[string]*Event),
	}

	for i, raw := range entries {
		switch raw.Type {
		case EntryFunction, EntryL1Handler, EntryConstructor:
			if raw.Name == "" {
				return nil, fmt.Errorf("%w: abi entry %d has no name", domain.ErrConfiguration, i)
			}
			e := &Entry{
				Type:            raw.Type,
				Name:            raw.Name,
				Inputs:          raw.Inputs,
				Outputs:         raw.Outputs,
				StateMutability: raw.StateMutability,
			}
			if raw.Type == EntryConstructor {
				a.constructor = e
				continue
			}
			if _, dup := a.functions[raw.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate function %q", domain.ErrConfiguration, raw.Name)
			}
			a.functions[raw.Name] = e
			a.order = append(a.order, raw.Name)
		case EntryStruct:
			if raw.Name == "" {
				return nil, fmt.Errorf("%w: abi struct %d has no name", domain.ErrConfiguration, i)
			}
			a.structs[raw.Name] = &Struct{Name: raw.Name, Size: raw.Size, Members: raw.Members}
		case EntryEvent:
			a.events[raw.Name] = &Event{Name: raw.Name, Keys: raw.Keys, Data: raw.Data}
		default:
			return nil, fmt.Errorf("%w: unknown abi entry type %q", domain.ErrConfiguration, raw.Type)
		}
	}

	if len(a.functions) == 0 {
		return nil, fmt.Errorf("%w: abi declares no functions", domain.ErrConfiguration)
	}

	if err := a.validateTypes(); err != nil {
		return nil, err
	}
	return a, nil
}

// validateTypes checks every referenced type resolves and structs are not recursive.
func (a *ABI) validateTypes() error {
	for _, name := range a.order {
		e := a.functions[name]
		for _, p := range append(append([]Param{}, e.Inputs...), e.Outputs...) {
			if _, err := a.sizeOf(p.Type, 0); err != nil {
				return fmt.Errorf("%w: function %s: %v", domain.ErrConfiguration, name, err)
			}
		}
	}
	for name, s := range a.structs {
		if _, err := a.sizeOf(name, 0); err != nil {
			return fmt.Errorf("%w: struct %s: %v", domain.ErrConfiguration, s.Name, err)
		}
	}
	return nil
}

// Function returns the function entry with the given name.
func (a *ABI) Function(name string) (*Entry, bool) {
	e, ok := a.functions[name]
	return e, ok
}

// Functions returns the function names in declaration order.
func (a *ABI) Functions() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Constructor returns the constructor entry, or nil.
func (a *ABI) Constructor() *Entry {
	return a.constructor
}

// Struct returns the struct declaration with the given name.
func (a *ABI) Struct(name string) (*Struct, bool) {
	s, ok := a.structs[name]
	return s, ok
}

// Event returns the event declaration with the given name.
func (a *ABI) Event(name string) (*Event, bool) {
	e, ok := a.events[name]
	return e, ok
}

// maxStructDepth bounds struct nesting; deeper nesting means a cycle.
const maxStructDepth = 32

// sizeOf returns the number of felts a non-array value of typ occupies.
// Arrays report 0 because their size depends on the value.
func (a *ABI) sizeOf(typ string, depth int) (int, error) {
	if depth > maxStructDepth {
		return 0, fmt.Errorf("struct nesting too deep at %q", typ)
	}
	switch {
	case typ == FeltType:
		return 1, nil
	case isArray(typ):
		if _, err := a.sizeOf(elemType(typ), depth+1); err != nil {
			return 0, err
		}
		return 0, nil
	}
	s, ok := a.structs[typ]
	if !ok {
		return 0, fmt.Errorf("unknown type %q", typ)
	}
	size := 0
	for _, m := range s.Members {
		if isArray(m.Type) {
			return 0, fmt.Errorf("struct %s member %s: arrays are not allowed in structs", s.Name, m.Name)
		}
		n, err := a.sizeOf(m.Type, depth+1)
		if err != nil {
			return 0, err
		}
		size += n
	}
	return size, nil
}

func isArray(typ string) bool {
	return strings.HasSuffix(typ, "*")
}

func elemType(typ string) string {
	return strings.TrimSuffix(typ, "*")
}

// lengthOf reports whether params[i] is the length input of params[i+1].
func lengthOf(params []Param, i int) bool {
	if i+1 >= len(params) || params[i].Type != FeltType || !isArray(params[i+1].Type) {
		return false
	}
	return params[i].Name == params[i+1].Name+"_len"
}
