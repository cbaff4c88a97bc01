package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
)

// Searcher runs one search. search.Service satisfies this interface.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Result, error)
}

// SearchHandler serves POST /api/v1/search.
type SearchHandler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchHandler serves searches through s.
func NewSearchHandler(s Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: s, logger: logger}
}

// SearchRequest is the request body. TopK is forwarded unvalidated.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

// SearchResponse echoes the query next to whatever the search produced.
type SearchResponse struct {
	Query   string        `json:"query"`
	Results search.Result `json:"results"`
}

// Search handles POST /api/v1/search.
//
// Response codes:
//   - 200 OK: every search outcome, including error objects in results
//   - 400 Bad Request: body is not a JSON object
//   - 500 Internal Server Error: the dataset store failed
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.searcher.Search(r.Context(), search.Request{Query: req.Query, TopK: req.TopK})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "search failed", "error", err, "client_id", clientID(r))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: res})
}
