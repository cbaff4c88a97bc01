// Router resolves the Completer named by configuration (LLM_PROVIDER).

package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrProviderNotRegistered is returned by Route for an unknown provider key.
var ErrProviderNotRegistered = errors.New("llm router: provider not registered")

// Router holds the available providers keyed by name.
type Router struct {
	providers       map[string]Completer
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]Completer, defaultProvider string) *Router {
	// copy so the caller cannot mutate the internal map.
	ps := make(map[string]Completer, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Register adds (or replaces) a provider under the given key.
func (r *Router) Register(key string, p Completer) {
	r.providers[key] = p
}

// Route returns the default provider.
func (r *Router) Route() (Completer, error) {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrProviderNotRegistered, r.defaultProvider, strings.Join(r.keys(), ", "))
	}
	return p, nil
}

// keys returns the registered provider names, sorted for stable messages.
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
