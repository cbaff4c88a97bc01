package search

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind classifies a search outcome. Every kind is terminal for the request.
type Kind string

const (
	KindParsed    Kind = "parsed"    // model reply was valid JSON
	KindFallback  Kind = "fallback"  // model reply was not JSON; raw text returned with a warning
	KindCapacity  Kind = "capacity"  // dataset above MaxRows, no call made
	KindTransport Kind = "transport" // completion API unreachable
	KindUpstream  Kind = "upstream"  // non-200 status or unusable body
)

// Messages carried in result bodies.
const (
	msgTransport      = "Failed to call LLM API"
	msgNoChoices      = "No choices returned from API"
	msgInvalidBody    = "Invalid JSON returned from API"
	msgCapacityFmt    = "Too many rows in database (%d). Please filter or reduce dataset size."
	msgCapacityDetail = "Sending all rows to the LLM is not practical."
	// FallbackWarning accompanies raw model text that did not parse.
	FallbackWarning = "Model response was not valid JSON. Returned raw text instead."
)

// Result is the JSON value handed back to the caller plus its Kind.
type Result struct {
	Kind  Kind
	Value json.RawMessage
}

// MarshalJSON emits Value unchanged.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.Value) == 0 {
		return []byte("null"), nil
	}
	return r.Value, nil
}

// IsError reports whether the result is one of the error objects.
func (r Result) IsError() bool {
	switch r.Kind {
	case KindCapacity, KindTransport, KindUpstream:
		return true
	}
	return false
}

// ErrorObject is the {error, details} shape.
type ErrorObject struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// NoChoicesObject is the {error, raw_response} shape.
type NoChoicesObject struct {
	Error       string          `json:"error"`
	RawResponse json.RawMessage `json:"raw_response"`
}

// FallbackObject is the {result, warning} shape.
type FallbackObject struct {
	Result  string `json:"result"`
	Warning string `json:"warning"`
}

func newResult(kind Kind, v any) Result {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// The shapes above only hold strings and already-valid JSON.
		panic(fmt.Sprintf("search: encode %s result: %v", kind, err))
	}
	return Result{Kind: kind, Value: bytes.TrimRight(buf.Bytes(), "\n")}
}

func capacityResult(total int) Result {
	return newResult(KindCapacity, ErrorObject{
		Error:   fmt.Sprintf(msgCapacityFmt, total),
		Details: msgCapacityDetail,
	})
}

func transportResult(err error) Result {
	return newResult(KindTransport, ErrorObject{Error: msgTransport, Details: err.Error()})
}

func statusResult(code int, body []byte) Result {
	return newResult(KindUpstream, ErrorObject{
		Error:   fmt.Sprintf("API returned status %d", code),
		Details: string(body),
	})
}

func invalidBodyResult(body []byte) Result {
	return newResult(KindUpstream, ErrorObject{Error: msgInvalidBody, Details: string(body)})
}

// noChoicesResult embeds the upstream body, which the caller has already
// checked to be valid JSON.
func noChoicesResult(body []byte) Result {
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return invalidBodyResult(body)
	}
	return newResult(KindUpstream, NoChoicesObject{Error: msgNoChoices, RawResponse: compact.Bytes()})
}
