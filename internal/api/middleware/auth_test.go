// Covers: token absent, malformed scheme, invalid, expired, valid, and context injection.
package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/boatsearch/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/boatsearch/internal/api/middleware"
	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

const testSecret = "test-secret-key-32-chars-min!!!"

// ===== HELPERS =====

func mustIssuer(t *testing.T) *pkgauth.TokenIssuer {
	t.Helper()
	iss, err := pkgauth.NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return iss
}

// recordingHandler records whether it ran and the client id it saw.
type recordingHandler struct {
	called   bool
	clientID string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.clientID, _ = ctxkeys.String(r.Context(), ctxkeys.ClientID)
	w.WriteHeader(http.StatusOK)
}

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, *recordingHandler) {
	t.Helper()
	next := &recordingHandler{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	middleware.Auth(mustIssuer(t))(next).ServeHTTP(rr, req)
	return rr, next
}

// ===== TESTS =====

func TestAuth_ValidToken_InjectsClientID(t *testing.T) {
	t.Parallel()

	token, _, err := mustIssuer(t).Generate("dashboard")
	require.NoError(t, err)

	rr, next := serve(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, next.called)
	assert.Equal(t, "dashboard", next.clientID)
}

func TestAuth_Rejects(t *testing.T) {
	t.Parallel()

	valid, _, err := mustIssuer(t).Generate("dashboard")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &pkgauth.Claims{
		ClientID: "dashboard",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    pkgauth.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]struct {
		header  string
		message string
	}{
		"no header":        {"", "missing or invalid Authorization header"},
		"basic scheme":     {"Basic ZGFzaGJvYXJkOnMzY3JldA==", "missing or invalid Authorization header"},
		"lowercase bearer": {"bearer " + valid, "missing or invalid Authorization header"},
		"empty token":      {"Bearer   ", "missing or invalid Authorization header"},
		"garbage":          {"Bearer not.a.jwt", "invalid or expired token"},
		"expired":          {"Bearer " + expired, "invalid or expired token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rr, next := serve(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.False(t, next.called)
			assert.JSONEq(t, `{"error":"`+tc.message+`"}`, rr.Body.String())
			assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}
