// HTTP handler for the client-credentials token exchange. Public endpoint.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

// TokenGenerator signs tokens. pkgauth.TokenIssuer satisfies this interface.
type TokenGenerator interface {
	Generate(clientID string) (string, time.Time, error)
}

// AuthHandler exchanges client credentials for a bearer token.
type AuthHandler struct {
	creds  pkgauth.Credentials
	tokens TokenGenerator
	logger *slog.Logger
}

// NewAuthHandler checks client credentials against creds and signs tokens with tokens.
func NewAuthHandler(creds pkgauth.Credentials, tokens TokenGenerator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{creds: creds, tokens: tokens, logger: logger}
}

// TokenRequest is the request body for POST /auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse is returned after a successful exchange.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token handles POST /auth/token.
//
// Response codes:
//   - 200 OK: credentials accepted
//   - 400 Bad Request: invalid JSON or missing fields
//   - 401 Unauthorized: unknown client or wrong secret
//   - 500 Internal Server Error: signing failed
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		writeError(w, http.StatusBadRequest, "client_id and client_secret are required")
		return
	}

	if !h.creds.Verify(req.ClientID, req.ClientSecret) {
		h.logger.WarnContext(r.Context(), "token request rejected", "client_id", req.ClientID)
		writeError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}

	token, expiresAt, err := h.tokens.Generate(req.ClientID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token signing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt.UTC()})
}
