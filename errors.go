package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeSessionNotFound    = "SESSION_NOT_FOUND"
	TextCodeSessionUnavailable = "SESSION_STORE_UNAVAILABLE"
	TextCodeDataParseError     = "DATA_PARSE_ERROR"
	TextCodeUserExists         = "USER_EXISTS"
	TextCodeTokenNotFound      = "TOKEN_NOT_FOUND"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeMailDispatch       = "MAIL_DISPATCH_FAILED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password does not match
// its stored hash. Callers surface it as a generic credentials failure.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials covers every login failure a client may learn
// about: unknown email, unverified email, or wrong password.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password cannot be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request has no session cookie
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionNotFound is the error for session ids the store does not know,
// including records that have already expired
var ErrSessionNotFound = goerrors.New("session not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionStoreUnavailable wraps transport failures talking to the store
var ErrSessionStoreUnavailable = goerrors.New("session store unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeSessionUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrUnableToParseData parse error
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(goerrors.CodeBadRequest)

// ErrUserExists signals a registration against an email that already
// belongs to a verified account. Maps to a 400 response.
var ErrUserExists = goerrors.New("account already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenNotFound signals a verification token that matches no pending
// registration, including tokens that were already consumed. Maps to a
// 400 response.
var ErrTokenNotFound = goerrors.New("verification token not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired signals a verification token past its expiry window.
var ErrTokenExpired = goerrors.New("verification token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMailDispatch wraps email delivery failures during registration.
var ErrMailDispatch = goerrors.New("unable to dispatch email", goerrors.CategoryOperation).
	WithTextCode(TextCodeMailDispatch).
	WithCode(goerrors.CodeInternal)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsTokenExpiredError will check for expired verification tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsSessionNotFound reports whether err means the session id is unknown
// or expired, as opposed to the store being unreachable.
func IsSessionNotFound(err error) bool {
	return hasTextCode(err, TextCodeSessionNotFound)
}
