package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Clock provides the current time. Expiry checks go through this seam so
// tests can drive token and session lifetimes deterministically.
type Clock interface {
	Now() time.Time
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*SessionObject, error)
	CheckSession(ctx context.Context, sessionID string) (*SessionObject, error)
	SignOut(ctx context.Context, sessionID string) error
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

type HTTPAuthenticator interface {
	Middleware
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context) error
	Session(c router.Context) (*SessionObject, error)
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
	GetRedirectOrDefault(c router.Context) string
	MakeClientRouteAuthErrorHandler(optionalAuth bool) func(c router.Context, err error) error
}

// SessionStore persists server side session records keyed by an opaque id.
// Records are immutable once created; Delete is idempotent.
type SessionStore interface {
	Create(ctx context.Context, session *SessionObject) error
	Get(ctx context.Context, sessionID string) (*SessionObject, error)
	Delete(ctx context.Context, sessionID string) error
}

// Mailer is the email dispatch capability. Implementations report delivery
// errors to the caller; they do not retry.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// MailMessage is a single outbound email with text and optional HTML bodies.
type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Config holds auth options
type Config interface {
	GetSessionDuration() int
	GetCookieName() string
	GetSecureCookies() bool
	GetSiteURL() string
	GetContextKey() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SimpleConfig is a plain value implementation of Config for deployments
// that do not bring their own configuration container.
type SimpleConfig struct {
	SessionDuration      int
	CookieName           string
	SecureCookies        bool
	SiteURL              string
	ContextKey           string
	RejectedRouteKey     string
	RejectedRouteDefault string
}

func (c SimpleConfig) GetSessionDuration() int {
	if c.SessionDuration <= 0 {
		return DefaultSessionDuration
	}
	return c.SessionDuration
}

func (c SimpleConfig) GetCookieName() string {
	if c.CookieName == "" {
		return DefaultCookieName
	}
	return c.CookieName
}

func (c SimpleConfig) GetSecureCookies() bool { return c.SecureCookies }

func (c SimpleConfig) GetSiteURL() string { return c.SiteURL }

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "session"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return c.RejectedRouteKey
}

func (c SimpleConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}
