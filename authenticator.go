package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
)

var _ Authenticator = &Auther{}

// Auther wires the credential store, password hasher, and session store
// into the login lifecycle. A login failure never tells the caller whether
// the email was unknown, unverified, or the password wrong; the detail only
// goes to the logger.
type Auther struct {
	repo            RepositoryManager
	sessions        SessionStore
	logger          Logger
	clock           Clock
	sessionDuration int
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, sessions SessionStore, opts Config) *Auther {
	duration := DefaultSessionDuration
	if opts != nil && opts.GetSessionDuration() > 0 {
		duration = opts.GetSessionDuration()
	}

	return &Auther{
		repo:            repo,
		sessions:        sessions,
		logger:          defLogger{},
		clock:           systemClock{},
		sessionDuration: duration,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// SessionDuration is the configured session lifetime.
func (s *Auther) SessionDuration() time.Duration {
	return time.Duration(s.sessionDuration) * time.Hour
}

// Login authenticates credentials and creates a server side session. The
// returned session carries the cookie-ready id and expiry.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*SessionObject, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("Login no account for identifier %q", identifier)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login user lookup error: %v", err)
		return nil, err
	}

	if !user.IsVerified() {
		s.logger.Debug("Login blocked, email not verified: %s", user.Email)
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("Login password mismatch for user %s", user.ID)
		return nil, ErrInvalidCredentials
	}

	id, err := NewSessionID()
	if err != nil {
		s.logger.Error("Login session id generation error: %v", err)
		return nil, err
	}

	session := sessionFromUser(id, user, s.clock.Now(), s.SessionDuration())

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("Login session create error: %v", err)
		return nil, err
	}

	return session, nil
}

// CheckSession resolves a session id against the store. Unknown and expired
// ids both come back as ErrSessionNotFound.
func (s *Auther) CheckSession(ctx context.Context, sessionID string) (*SessionObject, error) {
	if sessionID == "" {
		return nil, ErrUnableToFindSession
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !IsSessionNotFound(err) {
			s.logger.Error("CheckSession store error: %v", err)
		}
		return nil, err
	}

	return session, nil
}

// SignOut destroys the session. Signing out an unknown or already destroyed
// session succeeds.
func (s *Auther) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error("SignOut session delete error: %v", err)
		return err
	}

	return nil
}

// IdentityFromSession loads the current user record behind a session. Use it
// when a handler needs fresh profile fields instead of the login snapshot.
func (s *Auther) IdentityFromSession(ctx context.Context, session *SessionObject) (*User, error) {
	if session == nil {
		return nil, ErrUnableToFindSession
	}

	user, err := s.repo.Users().GetByIdentifier(ctx, session.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("IdentityFromSession lookup error: %v", err)
		return nil, err
	}

	return user, nil
}
