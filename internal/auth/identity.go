// Package auth resolves the caller's identity from a bearer token issued by the backend's auth service.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("you must be logged in and have a username")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the current caller. The zero value is an anonymous caller.
type Identity struct {
	UserID string
	Name   string
}

// Authenticated reports whether both the user id and display name are known
func (i Identity) Authenticated() bool {
	return i.UserID != "" && i.Name != ""
}

// Require returns ErrUnauthorized for anonymous callers
func (i Identity) Require() error {
	if !i.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

type claims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	UserMetadata struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// Verifier checks HS256 access tokens signed with the backend's JWT secret
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Identify parses token and returns the identity it carries.
// The subject must be a UUID; the display name comes from user_metadata.
func (v *Verifier) Identify(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if _, err := uuid.Parse(c.Subject); err != nil {
		return Identity{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	name := c.UserMetadata.Name
	if name == "" {
		name = c.UserMetadata.FullName
	}
	return Identity{UserID: c.Subject, Name: name}, nil
}

// BearerToken extracts the token from the Authorization header, "" when absent
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
