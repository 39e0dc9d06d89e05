// Package auth is a placeholder admin gate: one configured username and
// password, checked against a bcrypt hash, with the result kept as a token
// in the client's session. It is not a security boundary.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionKey is where the auth token lives in the session.
const SessionKey = "exotic_pet_store_auth"

type Gate struct {
	username string
	hash     []byte
}

// NewGate hashes the configured password once at startup.
func NewGate(username, password string) (*Gate, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, errors.New("auth: admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Gate{username: username, hash: hash}, nil
}

// Login stores a fresh token in s when both values match exactly. A mismatch
// is (false, nil); the error only reports a session write failure.
func (g *Gate) Login(s Session, username, password string) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
	if !userOK || !passOK {
		return false, nil
	}
	if err := s.Set(SessionKey, uuid.NewString()); err != nil {
		return false, err
	}
	return true, nil
}

// Logout removes the token. Logging out twice is fine.
func (g *Gate) Logout(s Session) error {
	if _, ok := s.Get(SessionKey); !ok {
		return nil
	}
	return s.Delete(SessionKey)
}

// IsAuthenticated reports whether s carries a token.
func (g *Gate) IsAuthenticated(s Session) bool {
	if s == nil {
		return false
	}
	v, ok := s.Get(SessionKey)
	return ok && v != ""
}
