package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ SessionStore = &RedisSessionStore{}

// RedisSessionStore keeps session records in Redis as JSON blobs with a TTL
// matching the record's expiry. The record's own ExpiresAt stays
// authoritative: a blob the TTL has not reaped yet is still rejected once
// the record says it expired.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	clock  Clock
}

type RedisSessionStoreOption func(*RedisSessionStore)

func WithSessionKeyPrefix(prefix string) RedisSessionStoreOption {
	return func(s *RedisSessionStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithSessionClock(clock Clock) RedisSessionStoreOption {
	return func(s *RedisSessionStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewRedisSessionStore(client redis.UniversalClient, opts ...RedisSessionStoreOption) *RedisSessionStore {
	store := &RedisSessionStore{
		client: client,
		prefix: "session",
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Create persists the record under its own id. The Redis TTL is derived
// from the record's expiry so abandoned sessions get reaped.
func (s *RedisSessionStore) Create(ctx context.Context, session *SessionObject) error {
	if session == nil || session.ID == "" {
		return ErrUnableToParseData
	}

	if session.ExpiresAt == nil {
		return ErrUnableToParseData
	}

	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return ErrUnableToParseData
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(session.ID), data, ttl).Err(); err != nil {
		return storeUnavailable(err)
	}

	return nil
}

// Get resolves a session id to its record. Unknown ids and expired records
// both come back as ErrSessionNotFound; expired records are reaped on read.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*SessionObject, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, storeUnavailable(err)
	}

	session := &SessionObject{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, ErrUnableToParseData
	}

	if session.Expired(s.clock.Now()) {
		if err := s.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Delete removes the record. Deleting an unknown id is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return storeUnavailable(err)
	}

	return nil
}

// Ping reports Redis availability and round trip latency.
func (s *RedisSessionStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return 0, storeUnavailable(err)
	}
	return time.Since(start), nil
}

func storeUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
}
