package auth

import (
	"time"

	"github.com/goliatone/go-router"
)

// CookieCodec translates between session records and the HTTP cookie that
// carries the session id. Cookies are always HttpOnly with SameSite Lax;
// Secure follows configuration so local development over plain HTTP works.
type CookieCodec struct {
	name   string
	secure bool
}

func NewCookieCodec(cfg Config) *CookieCodec {
	name := DefaultCookieName
	secure := true

	if cfg != nil {
		if cfg.GetCookieName() != "" {
			name = cfg.GetCookieName()
		}
		secure = cfg.GetSecureCookies()
	}

	return &CookieCodec{
		name:   name,
		secure: secure,
	}
}

func (c *CookieCodec) Name() string {
	return c.name
}

// Encode builds the cookie for a freshly created session. The cookie expiry
// matches the record's expiry so browser and store agree on the lifetime.
func (c *CookieCodec) Encode(session *SessionObject) *router.Cookie {
	expires := time.Now().Add(time.Duration(DefaultSessionDuration) * time.Hour)
	if session.ExpiresAt != nil {
		expires = *session.ExpiresAt
	}

	return &router.Cookie{
		Name:     c.name,
		Value:    session.ID,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: "Lax",
	}
}

// EncodeExpired builds the deletion cookie used on sign out.
func (c *CookieCodec) EncodeExpired() *router.Cookie {
	return &router.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: "Lax",
	}
}

// Decode extracts the session id from the request. A missing or empty
// cookie is ErrUnableToFindSession.
func (c *CookieCodec) Decode(ctx router.Context) (string, error) {
	id := ctx.Cookies(c.name)
	if id == "" {
		return "", ErrUnableToFindSession
	}
	return id, nil
}
