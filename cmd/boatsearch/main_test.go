package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

const boatsCSV = `Make,Model,Year,Length (ft),Price
Azimut,S7,2019,68,2500000
Beneteau,Oceanis 46.1,2021,46,
Sea Ray,Sundancer 320,2016,32,149000
`

// env sets a clean configuration for one test. Tests that use it cannot run
// in parallel.
func env(t *testing.T, overrides map[string]string) {
	t.Helper()
	base := map[string]string{
		"CONFIG_FILE": "", "LLM_PROVIDER": "", "OPENAI_API_KEY": "", "OPENAI_URL": "",
		"OLLAMA_BASE_URL": "", "LLM_MODEL": "", "LLM_MAX_TOKENS": "", "LLM_TEMPERATURE": "",
		"LLM_TIMEOUT": "", "CSV_PATH": "", "SQLITE_PATH": "", "DATASET_BACKEND": "",
		"HTTP_HOST": "", "HTTP_PORT": "", "JWT_SECRET": "", "JWT_EXPIRY": "",
		"AUTH_CLIENT_ID": "", "AUTH_CLIENT_SECRET_HASH": "", "LOG_LEVEL": "error", "LOG_FORMAT": "",
	}
	for k, v := range overrides {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(boatsCSV), 0o600))
	return path
}

// upstream is a fake chat-completions server replying with content.
type upstream struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
	rows  []int
}

func newUpstream(t *testing.T, content string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &req)
		var payload struct {
			Rows []json.RawMessage `json:"rows"`
		}
		if len(req.Messages) == 2 {
			_ = json.Unmarshal([]byte(req.Messages[1].Content), &payload)
		}
		u.mu.Lock()
		u.paths = append(u.paths, r.URL.Path)
		u.rows = append(u.rows, len(payload.Rows))
		u.mu.Unlock()

		reply, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(reply)
	}))
	t.Cleanup(u.Close)
	return u
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "boatsearch version")

	code, out, _ = runCLI("--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "boatsearch version")
}

func TestRun_NoArgs_PrintsUsage(t *testing.T) {
	code, out, _ := runCLI()
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"serve", "load", "search", "mcp", "token", "hash-secret", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCLI("frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error:")
}

func TestRun_InvalidConfig(t *testing.T) {
	env(t, map[string]string{"LLM_MAX_TOKENS": "lots"})

	code, _, errOut := runCLI("load")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "LLM_MAX_TOKENS")
}

func TestRun_HashSecret(t *testing.T) {
	code, out, _ := runCLI("hash-secret", "s3cret")
	require.Equal(t, 0, code)
	assert.True(t, pkgauth.VerifySecret(strings.TrimSpace(out), "s3cret"))
}

func TestRun_Token(t *testing.T) {
	env(t, nil)
	code, _, errOut := runCLI("token", "dashboard")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "JWT_SECRET")

	env(t, map[string]string{"JWT_SECRET": "test-secret-key-32-chars-min!!!"})
	code, out, _ := runCLI("token", "dashboard")
	require.Equal(t, 0, code)

	iss, err := pkgauth.NewTokenIssuer("test-secret-key-32-chars-min!!!", 0)
	require.NoError(t, err)
	claims, err := iss.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.ClientID)
}

func TestRun_Load_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "Data.db")
	env(t, map[string]string{"CSV_PATH": writeCSV(t), "SQLITE_PATH": dbPath})

	code, out, errOut := runCLI("load")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "created "+dbPath)

	before, err := os.ReadFile(dbPath)
	require.NoError(t, err)

	code, out, _ = runCLI("load")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "already exists")

	after, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_Load_MemoryBackend(t *testing.T) {
	env(t, map[string]string{"CSV_PATH": writeCSV(t), "DATASET_BACKEND": "memory"})

	code, out, _ := runCLI("load")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "3 rows")
}

func TestRun_Search(t *testing.T) {
	for _, backend := range []string{"sqlite", "memory"} {
		t.Run(backend, func(t *testing.T) {
			up := newUpstream(t, "```json\n[{\"Make\":\"Azimut\"}]\n```")
			env(t, map[string]string{
				"CSV_PATH":        writeCSV(t),
				"SQLITE_PATH":     filepath.Join(t.TempDir(), "Data.db"),
				"DATASET_BACKEND": backend,
				"OPENAI_URL":      up.URL + "/v1/chat/completions",
				"OPENAI_API_KEY":  "sk-test",
			})

			code, out, errOut := runCLI("search", "biggest yacht", "--top-k", "1")
			require.Equal(t, 0, code, errOut)
			assert.JSONEq(t, `[{"Make":"Azimut"}]`, out)
			assert.Equal(t, []int{3}, up.rows, "every row goes to the model")
		})
	}
}

func TestRun_Search_OllamaProvider(t *testing.T) {
	up := newUpstream(t, `{"count": 3}`)
	env(t, map[string]string{
		"CSV_PATH":        writeCSV(t),
		"DATASET_BACKEND": "memory",
		"LLM_PROVIDER":    "ollama",
		"OLLAMA_BASE_URL": up.URL + "/",
		"LLM_MODEL":       "llama3.2:3b",
	})

	code, out, errOut := runCLI("search", "how many boats")
	require.Equal(t, 0, code, errOut)
	assert.JSONEq(t, `{"count":3}`, out)
	assert.Equal(t, []string{"/v1/chat/completions"}, up.paths)
}

func TestRun_Search_RequiresQuery(t *testing.T) {
	env(t, nil)
	code, _, errOut := runCLI("search")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "arg")
}

func TestBuildHandler_ServesAPI(t *testing.T) {
	up := newUpstream(t, "not json")
	env(t, map[string]string{
		"CSV_PATH":        writeCSV(t),
		"DATASET_BACKEND": "memory",
		"OPENAI_URL":      up.URL,
	})

	c := &cli{out: io.Discard, errOut: io.Discard}
	require.NoError(t, c.init())
	h, closeFn, err := c.buildHandler(context.Background())
	require.NoError(t, err)
	defer closeFn()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"q"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"query":"q","results":{"result":"not json","warning":"Model response was not valid JSON. Returned raw text instead."}}`, rr.Body.String())
}

func TestBuildHandler_AuthEnabled(t *testing.T) {
	hash, err := pkgauth.HashSecret("s3cret")
	require.NoError(t, err)
	env(t, map[string]string{
		"CSV_PATH":                writeCSV(t),
		"DATASET_BACKEND":         "memory",
		"JWT_SECRET":              "test-secret-key-32-chars-min!!!",
		"AUTH_CLIENT_ID":          "dashboard",
		"AUTH_CLIENT_SECRET_HASH": hash,
	})

	c := &cli{out: io.Discard, errOut: io.Discard}
	require.NoError(t, c.init())
	h, closeFn, err := c.buildHandler(context.Background())
	require.NoError(t, err)
	defer closeFn()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dataset", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"client_id":"dashboard","client_secret":"s3cret"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBuildHandler_MissingCSV(t *testing.T) {
	env(t, map[string]string{
		"CSV_PATH":    filepath.Join(t.TempDir(), "missing.csv"),
		"SQLITE_PATH": filepath.Join(t.TempDir(), "Data.db"),
	})

	c := &cli{out: io.Discard, errOut: io.Discard}
	require.NoError(t, c.init())
	_, _, err := c.buildHandler(context.Background())
	assert.Error(t, err)
}
