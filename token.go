package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	// DefaultCookieName is the session cookie used by the HTTP adapters.
	DefaultCookieName = "session_id"
	// DefaultSessionDuration is the session lifetime in hours.
	DefaultSessionDuration = 12
	// DefaultTokenExpiry is how long a verification token stays valid.
	DefaultTokenExpiry = time.Hour

	tokenByteSize = 32
)

// NewVerificationToken returns a hex encoded random token for email
// verification links.
func NewVerificationToken() (string, error) {
	return randomHex(tokenByteSize)
}

// NewSessionID returns a hex encoded random session identifier. Session ids
// carry no user information; the store is the only way to resolve them.
func NewSessionID() (string, error) {
	return randomHex(tokenByteSize)
}

func randomHex(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
