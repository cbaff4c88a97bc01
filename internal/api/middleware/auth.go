// Bearer token middleware for /api/v1/*.
// Reads Authorization: Bearer <token>, validates it, injects client_id into context.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/boatsearch/internal/api/ctxkeys"
	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

// TokenParser validates bearer tokens. pkgauth.TokenIssuer satisfies it.
type TokenParser interface {
	Parse(token string) (*pkgauth.Claims, error)
}

// Auth rejects requests without a valid bearer token.
//
// Flow:
//  1. Read "Authorization: Bearer <token>" header
//  2. Reject if missing or not Bearer scheme → 401
//  3. Parse + validate JWT → 401 on invalid/expired
//  4. Inject ctxkeys.ClientID into context
//  5. Call next handler
func Auth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			noteClient(r.Context(), claims.ClientID)
			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.ClientID, claims.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>",
// or "" if the header is missing, uses another scheme, or is empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 7235)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 JSON response in the handlers' error shape.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="boatsearch"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
