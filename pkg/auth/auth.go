// Package auth resolves the caller of an admin request from a bearer token.
//
// Tokens are issued elsewhere. This package only verifies HS256 JWTs signed
// with a shared secret and reads the subject, email and roles claims.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a bearer token is present but cannot
	// be verified.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoSecret is returned by NewJWT when the signing secret is empty.
	ErrNoSecret = errors.New("jwt secret is required")
)

// Identity is an authenticated caller.
type Identity struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role string) bool {
	return i != nil && slices.Contains(i.Roles, role)
}

// Authenticator resolves the current user of a request. A nil identity with
// a nil error means the request is anonymous.
type Authenticator interface {
	CurrentUser(r *http.Request) (*Identity, error)
}

// Claims is the token payload.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies HS256 bearer tokens.
type JWT struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// JWTOption configures a JWT authenticator.
type JWTOption func(*JWT)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) JWTOption {
	return func(j *JWT) { j.issuer = issuer }
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) JWTOption {
	return func(j *JWT) { j.leeway = d }
}

func NewJWT(secret string, opts ...JWTOption) (*JWT, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	j := &JWT{secret: []byte(secret)}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

func (j *JWT) CurrentUser(r *http.Request) (*Identity, error) {
	token := tokenFromHeader(r)
	if token == "" {
		return nil, nil
	}
	return j.Verify(token)
}

// Verify parses and validates a raw token.
func (j *JWT) Verify(token string) (*Identity, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.leeway),
	}
	if j.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email, Roles: claims.Roles}, nil
}

// tokenFromHeader extracts the token from the Authorization header.
func tokenFromHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const bearerPrefix = "bearer "
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return header
}
