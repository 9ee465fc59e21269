// Package token issues and validates the JWT credential carried by both REST
// requests and websocket upgrades. The same Manager backs the HTTP middleware
// and the socket authenticator, so the two call sites can never diverge.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the http-only cookie the credential rides in.
const CookieName = "jwt"

// TTL is the credential lifetime.
const TTL = 30 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	UserID int `json:"userId"`
	jwt.RegisteredClaims
}

// Manager signs and parses credentials with a shared HMAC secret.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue signs a credential for the user.
func (m *Manager) Issue(userID int) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	})
	return tok.SignedString(m.secret)
}

// Parse validates signature and expiry and returns the embedded user id.
// Every failure mode collapses to ErrInvalidToken; callers only need to know
// the credential is unusable.
func (m *Manager) Parse(raw string) (int, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid || c.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return c.UserID, nil
}
