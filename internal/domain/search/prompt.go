package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/llm"
)

// MaxRows is the largest dataset sent to the model in one prompt.
const MaxRows = 3000

// SystemMessage is the fixed system-role turn of every search.
const SystemMessage = "You are an expert boat search assistant. Always return strictly valid JSON."

// ResponseFormat is the output hint carried in every payload.
const ResponseFormat = "Return JSON only. Include all fields that are relevant to the " +
	"user's query, but avoid irrelevant columns to minimize tokens."

var directives = []string{
	"Read the user's query and semantically search the provided data for all relevant matches.",
	"Decide which subset of columns is most relevant to the user's query.",
	"Return a concise JSON response using ONLY those relevant columns and real data.",
	"Do not include unnecessary columns or verbose text. Use as few tokens as possible while still answering the query helpfully.",
	"If the user specifies a number of results or if 'top_k' is provided, respect that as the maximum number of items to include.",
	"The final answer MUST be valid JSON and nothing else (no prose).",
	"If the data does not contain a match, return an empty list.",
}

// Payload is the structured user-turn content. Field order is the wire order.
type Payload struct {
	Instructions   string        `json:"instructions"`
	Header         []string      `json:"header"`
	Rows           []dataset.Row `json:"rows"`
	UserQuery      string        `json:"user_query"`
	TopK           *int          `json:"top_k"`
	ResponseFormat string        `json:"response_format"`
}

// BuildPayload assembles the payload for one query. A nil header or row set
// is encoded as an empty list.
func BuildPayload(query string, topK *int, header []string, rows []dataset.Row) (Payload, error) {
	if header == nil {
		header = []string{}
	}
	if rows == nil {
		rows = []dataset.Row{}
	}
	instructions, err := buildInstructions(header, rows)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Instructions:   instructions,
		Header:         header,
		Rows:           rows,
		UserQuery:      query,
		TopK:           topK,
		ResponseFormat: ResponseFormat,
	}, nil
}

// Messages encodes p as the two-turn conversation sent upstream.
func (p Payload) Messages() ([]llm.Message, error) {
	user, err := encodeJSON(p)
	if err != nil {
		return nil, fmt.Errorf("encode prompt payload: %w", err)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemMessage},
		{Role: llm.RoleUser, Content: string(user)},
	}, nil
}

func buildInstructions(header []string, rows []dataset.Row) (string, error) {
	h, err := encodeJSON(header)
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	r, err := encodeJSON(rows)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a boat search assistant. The user may ask queries about boats, ")
	b.WriteString("their specifications, pricing, and other attributes.\n\n")
	b.WriteString("You have access to a dataset with the following column names:\n")
	b.Write(h)
	b.WriteString("\n\nHere is the full data (each item is a row):\n")
	b.Write(r)
	b.WriteString("\n\nYour job:")
	for i, d := range directives {
		fmt.Fprintf(&b, "\n%d. %s", i+1, d)
	}
	return b.String(), nil
}

// encodeJSON marshals v without HTML escaping so non-ASCII and markup in
// cell values reach the model unchanged.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
