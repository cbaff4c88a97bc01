// Package search answers natural-language queries over the boat dataset by
// handing the whole table to a chat-completion model.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/llm"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/logging"
)

// Request is one search call.
type Request struct {
	Query string `json:"query"`
	// TopK is an advisory result-count hint forwarded to the model.
	TopK *int `json:"top_k,omitempty"`
}

// Service composes the dataset store and a Completer into Search.
type Service struct {
	store   dataset.Store
	llm     llm.Completer
	logger  *slog.Logger
	maxRows int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxRows overrides the MaxRows ceiling. Values <= 0 are ignored.
func WithMaxRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// NewService builds a Service over store and completer. MaxRows applies
// unless WithMaxRows overrides it.
func NewService(store dataset.Store, completer llm.Completer, opts ...Option) *Service {
	s := &Service{store: store, llm: completer, logger: logging.Discard(), maxRows: MaxRows}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("component", "search")
	return s
}

// Search runs one query. Every capacity, transport, upstream and parse
// outcome is returned as a Result; the error return is reserved for store
// and encoding failures.
//
// The completion call does not inherit ctx's cancellation, so a caller that
// goes away does not abort an in-flight upstream request.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	total, err := s.store.RowCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count rows: %w", err)
	}
	if total > s.maxRows {
		s.logger.WarnContext(ctx, "dataset over row ceiling", "rows", total, "max_rows", s.maxRows)
		return capacityResult(total), nil
	}

	rows, err := s.store.FetchAll(ctx, s.maxRows)
	if err != nil {
		return Result{}, fmt.Errorf("fetch rows: %w", err)
	}

	payload, err := BuildPayload(req.Query, req.TopK, s.store.Header(), rows)
	if err != nil {
		return Result{}, err
	}
	msgs, err := payload.Messages()
	if err != nil {
		return Result{}, err
	}

	meta := s.llm.ModelInfo()
	start := time.Now()
	resp, err := s.llm.Complete(context.WithoutCancel(ctx), llm.ChatRequest{Messages: msgs})
	elapsed := time.Since(start)
	if err != nil {
		s.logger.ErrorContext(ctx, "completion call failed",
			"provider", meta.Provider, "model", meta.ID, "elapsed", elapsed, "error", err)
		return transportResult(err), nil
	}

	res := interpret(resp)
	s.logger.InfoContext(ctx, "search completed",
		"provider", meta.Provider,
		"model", meta.ID,
		"rows", len(rows),
		"status", resp.StatusCode,
		"outcome", string(res.Kind),
		"elapsed", elapsed,
	)
	return res, nil
}

// interpret maps an upstream reply onto a Result.
func interpret(resp *llm.Completion) Result {
	if !resp.OK() {
		return statusResult(resp.StatusCode, resp.Body)
	}
	parsed, err := llm.ParseChatCompletion(resp.Body)
	if err != nil {
		return invalidBodyResult(resp.Body)
	}
	content, ok := parsed.FirstContent()
	if !ok {
		return noChoicesResult(resp.Body)
	}
	return Reconcile(content)
}
