package network

import (
	"encoding/json"
	"fmt"

	"github.com/vietddude/seqgate/internal/core/domain"
)

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func getStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case json.Number:
			out = append(out, x.String())
		}
	}
	return out
}

func getRaw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func asObject(result any, op string) (map[string]any, error) {
	m, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected response %T", op, result)
	}
	return m, nil
}

func parseFailureReason(v any) *domain.FailureReason {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	r := &domain.FailureReason{
		Code:         getString(m["code"]),
		ErrorMessage: getString(m["error_message"]),
	}
	if r.Code == "" && r.ErrorMessage == "" {
		return nil
	}
	return r
}

func parseTrace(m map[string]any) *domain.Trace {
	sig := getStrings(m["signature"])
	if sig == nil {
		sig = []string{}
	}
	return &domain.Trace{
		Signature:          sig,
		FunctionInvocation: getRaw(m["function_invocation"]),
	}
}
