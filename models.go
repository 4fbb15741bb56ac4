package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username          string     `bun:"username,notnull" json:"username,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"password_hash,omitempty"`
	EmailVerifiedAt   *time.Time `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	VerifyToken       string     `bun:"verify_token,nullzero" json:"-"`
	VerifyTokenExpiry *time.Time `bun:"verify_token_expiry,nullzero" json:"-"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsVerified reports whether the account completed email verification.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// TokenExpired checks the verification token window against the given time.
// A user without a token counts as expired, and so does a token whose expiry
// is not strictly in the future.
func (u *User) TokenExpired(now time.Time) bool {
	if u.VerifyTokenExpiry == nil {
		return true
	}
	return !u.VerifyTokenExpiry.After(now)
}
