// Adapters implement Completer so the search pipeline is never coupled
// to a specific vendor or transport.

package llm

import "context"

// Completer sends one chat-completion request and returns the raw reply.
//
// A non-nil error means the request never produced an HTTP response
// (connection refused, DNS, TLS, timeout). Non-2xx statuses are not errors.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (*Completion, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta
}
