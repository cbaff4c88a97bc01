package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
)

// boatSearch handles boat_search tool calls. Capacity, transport and
// upstream outcomes are still JSON and come back as text; only a store
// failure is a tool error.
func (h *handlers) boatSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil //nolint:nilerr
	}

	sreq := search.Request{Query: query}
	k, ok, err := getInt(req, "top_k")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil //nolint:nilerr
	}
	if ok {
		sreq.TopK = &k
	}

	res, err := h.search.Search(ctx, sreq)
	if err != nil {
		h.logger.ErrorContext(ctx, "boat_search failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.logger.InfoContext(ctx, "boat_search", "outcome", string(res.Kind))

	if res.IsError() {
		r := mcp.NewToolResultText(string(res.Value))
		r.IsError = true
		return r, nil
	}
	return mcp.NewToolResultText(string(res.Value)), nil
}

// datasetInfo handles dataset_info tool calls.
func (h *handlers) datasetInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := h.dataset.Info(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

// getInt extracts an optional integer argument. JSON numbers decode as
// float64; an absent or null argument is not an error, anything other than
// a whole number in int32 range is.
func getInt(req mcp.CallToolRequest, name string) (int, bool, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false, nil
	}
	raw, present := args[name]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, ok := raw.(float64)
	if !ok || v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false, fmt.Errorf("%s must be a whole number", name)
	}
	return int(v), true, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
