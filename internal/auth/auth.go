// Package auth issues and verifies admin bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

var (
	// ErrDisabled is returned when no admin password is configured.
	ErrDisabled = errors.New("admin authentication disabled")
	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a missing, malformed or expired token.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the JWT body of an admin token.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// Authenticator checks the admin password and signs HS256 tokens.
type Authenticator struct {
	secret       []byte
	ttl          time.Duration
	passwordHash []byte
	now          func() time.Time
}

// New creates an authenticator. An empty passwordHash disables authentication.
func New(secret string, ttl time.Duration, passwordHash string) *Authenticator {
	return &Authenticator{
		secret:       []byte(secret),
		ttl:          ttl,
		passwordHash: []byte(passwordHash),
		now:          time.Now,
	}
}

// Enabled reports whether mutating endpoints require a token.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.passwordHash) > 0
}

// IssueToken checks password against the bcrypt hash and returns a signed token.
func (a *Authenticator) IssueToken(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := Claims{
		Role: adminSubject,
		StandardClaims: jwt.StandardClaims{
			Subject:   adminSubject,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify parses a token and checks its signature, expiry and role.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != adminSubject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
