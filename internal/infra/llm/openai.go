// OpenAI-compatible chat-completions adapter. Works against api.openai.com
// and any server exposing the same POST /v1/chat/completions contract
// (Ollama, vLLM, llama.cpp).

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	mimeJSON            = "application/json"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"

	// DefaultOpenAIURL is the public chat-completions endpoint.
	DefaultOpenAIURL = "https://api.openai.com/v1/chat/completions"
)

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	Provider    string // label reported by ModelInfo; default "openai"
	URL         string // full chat-completions URL
	APIKey      string // sent as Bearer token; omitted when empty
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // 0 disables the client timeout
}

// OpenAIProvider implements Completer over HTTP.
type OpenAIProvider struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAIProvider. URL defaults to DefaultOpenAIURL.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.URL == "" {
		cfg.URL = DefaultOpenAIURL
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ─── wire types ──────────────────────────────────────────────────────────────

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// ChatCompletionResponse is the subset of the reply body the pipeline reads.
type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
}

// Choice is one generated alternative.
type Choice struct {
	Message struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// ErrInvalidBody is returned by ParseChatCompletion when the reply is not JSON.
var ErrInvalidBody = errors.New("reply body is not valid JSON")

// ParseChatCompletion decodes a chat-completions reply body. Only a body that
// is not JSON is an error. Any other shape is read tolerantly: a missing or
// non-array "choices" yields no choices, and decoding stops at the first
// element that is not a choice object.
func ParseChatCompletion(body []byte) (*ChatCompletionResponse, error) {
	if !json.Valid(body) {
		return nil, ErrInvalidBody
	}

	var out ChatCompletionResponse
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return &out, nil //nolint:nilerr
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(top["choices"], &raw); err != nil {
		return &out, nil //nolint:nilerr
	}
	for _, r := range raw {
		var c Choice
		if err := json.Unmarshal(r, &c); err != nil {
			break
		}
		out.Choices = append(out.Choices, c)
	}
	return &out, nil
}

// FirstContent returns the first choice's message text. ok is false when
// there are no choices; a choice without content yields "".
func (r *ChatCompletionResponse) FirstContent() (content string, ok bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	if c := r.Choices[0].Message.Content; c != nil {
		return *c, true
	}
	return "", true
}

// ─── Completer implementation ───────────────────────────────────────────────

// Complete POSTs the request and reads the full body regardless of status.
// Request-level Model/Temperature/MaxTokens override the configured defaults
// when non-zero.
func (p *OpenAIProvider) Complete(ctx context.Context, req ChatRequest) (*Completion, error) {
	body, err := json.Marshal(p.wireRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", p.cfg.Provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", p.cfg.Provider, err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	if p.cfg.APIKey != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Completion{StatusCode: resp.StatusCode, Body: raw}, nil
}

func (p *OpenAIProvider) wireRequest(req ChatRequest) chatCompletionRequest {
	out := chatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    req.Messages,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
	if req.Model != "" {
		out.Model = req.Model
	}
	if req.Temperature != 0 {
		out.Temperature = req.Temperature
	}
	if req.MaxTokens != 0 {
		out.MaxTokens = req.MaxTokens
	}
	return out
}

// ModelInfo returns the configured model parameters.
func (p *OpenAIProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.cfg.Model,
		Provider:  p.cfg.Provider,
		MaxTokens: p.cfg.MaxTokens,
		Temp:      p.cfg.Temperature,
	}
}
