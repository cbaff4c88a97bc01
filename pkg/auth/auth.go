// Package auth issues and verifies the bearer tokens that guard the search
// API, and hashes the client secret they are exchanged for.
// This is a leaf package with no domain dependencies.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/matiasleandrokruk/boatsearch/pkg/uuid"
)

// ===== CONSTANTS =====

// BCryptCost is the work factor for client secret hashes.
const BCryptCost = 12

// DefaultExpiry is the token lifetime when none is configured.
const DefaultExpiry = 24 * time.Hour

// Issuer is the iss claim of every token.
const Issuer = "boatsearch"

var (
	// ErrEmptySecret is returned when a TokenIssuer is built without a key.
	ErrEmptySecret = errors.New("auth: signing secret is empty")
	// ErrInvalidToken covers malformed, expired, and badly signed tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// ===== BCRYPT FUNCTIONS =====

// HashSecret hashes a plaintext client secret with bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether secret matches hash. Malformed hashes
// report false rather than an error.
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// ===== CREDENTIALS =====

// Credentials is the single API client allowed to obtain tokens.
type Credentials struct {
	ClientID   string
	SecretHash string // bcrypt
}

// Verify checks a client_id/client_secret pair. The id comparison is
// constant-time; bcrypt runs even on an id mismatch so both paths cost the
// same.
func (c Credentials) Verify(clientID, secret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(c.ClientID), []byte(clientID)) == 1
	secretOK := VerifySecret(c.SecretHash, secret)
	return c.ClientID != "" && idOK && secretOK
}

// ===== JWT FUNCTIONS =====

// Claims are the token claims. ClientID duplicates sub for readability.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 tokens with one shared secret.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer. expiry <= 0 uses DefaultExpiry.
func NewTokenIssuer(secret string, expiry time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Expiry returns the configured token lifetime.
func (i *TokenIssuer) Expiry() time.Duration { return i.expiry }

// Generate returns a signed token for clientID and its expiry time.
func (i *TokenIssuer) Generate(clientID string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.expiry)

	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewV7().String(),
			Issuer:    Issuer,
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a token and returns its claims. All failures wrap
// ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client claims", ErrInvalidToken)
	}
	return claims, nil
}
