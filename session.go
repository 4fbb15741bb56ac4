package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionObject is the server side session record. Data holds a snapshot
// of profile fields taken at login; it is never refreshed afterwards.
type SessionObject struct {
	ID        string         `json:"id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

func (s *SessionObject) GetSessionID() string {
	return s.ID
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

func (s *SessionObject) GetExpiresAt() *time.Time {
	return s.ExpiresAt
}

// Expired checks the record's own expiry against the given time. The store
// may keep the record around longer; the record is authoritative. A session
// is live only while its expiry is strictly in the future.
func (s *SessionObject) Expired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return true
	}
	return !s.ExpiresAt.After(now)
}

func (s SessionObject) String() string {
	expiresAt := "<nil>"
	if s.ExpiresAt != nil {
		expiresAt = s.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"session=%s user=%s exp=%s data=%v",
		s.ID,
		s.UserID,
		expiresAt,
		s.Data,
	)
}

// sessionFromUser builds the login time snapshot for a user. The snapshot
// carries only fields safe to echo back to clients.
func sessionFromUser(id string, user *User, issuedAt time.Time, ttl time.Duration) *SessionObject {
	expiresAt := issuedAt.Add(ttl)
	return &SessionObject{
		ID:     id,
		UserID: user.ID.String(),
		Data: map[string]any{
			"username": user.Username,
			"email":    user.Email,
		},
		CreatedAt: &issuedAt,
		ExpiresAt: &expiresAt,
	}
}
