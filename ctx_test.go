package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return user when present in context",
			setupCtx: func() context.Context {
				user := &User{
					ID:       uuid.New(),
					Username: "pepe.rone",
					Email:    "pepe.rone@example.com",
				}
				return WithContext(context.Background(), user)
			},
			wantOK: true,
		},
		{
			name: "should return false when no user in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			wantOK: false,
		},
		{
			name: "should return false when context has wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), userCtxKey, "not-a-user")
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := FromContext(tt.setupCtx())

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.NotNil(t, user)
				assert.Equal(t, "pepe.rone", user.Username)
			} else {
				assert.Nil(t, user)
			}
		})
	}
}

func TestSessionContext(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	session := &SessionObject{
		ID:        "abc123",
		UserID:    uuid.New().String(),
		ExpiresAt: &expires,
	}

	ctx := WithSessionContext(context.Background(), session)

	got, ok := SessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, session, got)

	_, ok = SessionFromContext(context.Background())
	assert.False(t, ok)

	wrong := context.WithValue(context.Background(), sessionCtxKey, "not-a-session")
	_, ok = SessionFromContext(wrong)
	assert.False(t, ok)
}
