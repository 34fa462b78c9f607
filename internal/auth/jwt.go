package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrUnauthenticated is returned when a request carries no usable token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type contextKey string

// UserIDKey is the context key for the authenticated user id.
const UserIDKey = contextKey("userID")

// TokenIssuer signs and verifies session tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. A non-positive ttl issues tokens
// without an expiry.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a new JWT for a given user id.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses and validates a JWT string and returns the user id it carries.
func (i *TokenIssuer) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(ErrUnauthenticated, err)
	}
	if !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return "", ErrUnauthenticated
	}
	return claims.UserID, nil
}

// Authenticate extracts the token from an Authorization header value and
// verifies it. Both "Bearer <token>" and a bare token are accepted.
func (i *TokenIssuer) Authenticate(header string) (string, error) {
	tokenStr, err := tokenFromHeader(header)
	if err != nil {
		return "", err
	}
	return i.Verify(tokenStr)
}

func tokenFromHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrUnauthenticated
	}

	parts := strings.Fields(header)
	switch {
	case len(parts) == 1 && !strings.EqualFold(parts[0], "Bearer"):
		return parts[0], nil
	case len(parts) == 2 && strings.EqualFold(parts[0], "Bearer"):
		return parts[1], nil
	}
	return "", ErrUnauthenticated
}

// JWTMiddleware creates a middleware for protecting routes.
func JWTMiddleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := issuer.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the user id stored by JWTMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
