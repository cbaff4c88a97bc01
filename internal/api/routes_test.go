// Wiring tests for NewRouter against a real search.Service, an in-memory
// dataset, and a stub completion upstream.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/llm"
	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

type replyStub struct{ content string }

func (s replyStub) Complete(context.Context, llm.ChatRequest) (*llm.Completion, error) {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": s.content}}},
	})
	return &llm.Completion{StatusCode: http.StatusOK, Body: body}, nil
}

func (replyStub) ModelInfo() llm.ModelMeta { return llm.ModelMeta{ID: "stub", Provider: "stub"} }

func testStore() *dataset.MemoryStore {
	return dataset.NewMemoryStore("boats.csv", &dataset.Table{
		Columns: []string{"Make", "Length"},
		Rows: [][]dataset.Value{
			{dataset.String("Azimut"), dataset.Number(24)},
			{dataset.String("Beneteau"), dataset.Number(12)},
		},
	})
}

func testDeps(reply string) Deps {
	store := testStore()
	return Deps{
		Search:  search.NewService(store, replyStub{content: reply}),
		Dataset: store,
	}
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewRouter_Root(t *testing.T) {
	t.Parallel()

	rr := do(t, NewRouter(testDeps("[]")), http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Welcome to the AI Search Bot API"}`, rr.Body.String())
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	t.Parallel()

	rr := do(t, NewRouter(testDeps("[]")), http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestNewRouter_SearchOpenWithoutAuth(t *testing.T) {
	t.Parallel()

	r := NewRouter(testDeps("```json\n[{\"Make\":\"Azimut\"}]\n```"))
	rr := do(t, r, http.MethodPost, "/api/v1/search", `{"query":"longest boat"}`, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"query":"longest boat","results":[{"Make":"Azimut"}]}`, rr.Body.String())
}

func TestNewRouter_SearchFallbackIs200(t *testing.T) {
	t.Parallel()

	rr := do(t, NewRouter(testDeps("Sorry, no idea.")), http.MethodPost, "/api/v1/search", `{"query":"q"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"query":"q","results":{"result":"Sorry, no idea.","warning":"Model response was not valid JSON. Returned raw text instead."}}`, rr.Body.String())
}

func TestNewRouter_Dataset(t *testing.T) {
	t.Parallel()

	rr := do(t, NewRouter(testDeps("[]")), http.MethodGet, "/api/v1/dataset", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var info dataset.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "memory", info.Backend)
	assert.Equal(t, 2, info.RowCount)
	assert.Equal(t, []string{"Make", "Length"}, info.Columns)
}

func TestNewRouter_TokenRouteAbsentWithoutAuth(t *testing.T) {
	t.Parallel()

	rr := do(t, NewRouter(testDeps("[]")), http.MethodPost, "/auth/token", `{}`, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewRouter_AuthFlow(t *testing.T) {
	t.Parallel()

	issuer, err := pkgauth.NewTokenIssuer("test-secret-key-32-chars-min!!!", time.Hour)
	require.NoError(t, err)
	hash, err := pkgauth.HashSecret("s3cret")
	require.NoError(t, err)

	d := testDeps(`[]`)
	d.Tokens = issuer
	d.Credentials = pkgauth.Credentials{ClientID: "dashboard", SecretHash: hash}
	r := NewRouter(d)

	// Protected without a token.
	rr := do(t, r, http.MethodPost, "/api/v1/search", `{"query":"q"}`, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = do(t, r, http.MethodGet, "/api/v1/dataset", "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Public routes stay public.
	rr = do(t, r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	// Exchange credentials.
	rr = do(t, r, http.MethodPost, "/auth/token", `{"client_id":"dashboard","client_secret":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&tok))
	require.NotEmpty(t, tok.Token)

	rr = do(t, r, http.MethodPost, "/api/v1/search", `{"query":"q"}`, tok.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"query":"q","results":[]}`, rr.Body.String())
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	t.Parallel()

	d := testDeps("[]")
	d.Search = panicSearcher{}
	rr := do(t, NewRouter(d), http.MethodPost, "/api/v1/search", `{"query":"q"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

type panicSearcher struct{}

func (panicSearcher) Search(context.Context, search.Request) (search.Result, error) {
	panic("boom")
}
