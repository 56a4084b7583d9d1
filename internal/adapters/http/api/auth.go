// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the identity data carried in dashboard tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator verifies Bearer tokens on gated endpoints and enforces the
// allowed email domain. A zero-secret authenticator passes every request
// through, which keeps local development and tests unblocked.
type Authenticator struct {
	secret []byte
	domain string
}

// NewAuthenticator creates an Authenticator for the given shared secret and
// allowed email domain (e.g. "iwdagency.com").
func NewAuthenticator(secret, domain string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		domain: strings.ToLower(strings.TrimSpace(domain)),
	}
}

// Require wraps a handler with token verification.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	if a == nil || len(a.secret) == 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrMissingToken)
			return
		}

		claims, err := a.verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrInvalidToken)
			return
		}

		if !a.allowed(claims.Email) {
			writeError(w, http.StatusForbidden, "forbidden", ErrWrongDomain)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (a *Authenticator) verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *Authenticator) allowed(email string) bool {
	if a.domain == "" {
		return true
	}
	_, dom, ok := strings.Cut(strings.ToLower(email), "@")
	return ok && dom == a.domain
}
