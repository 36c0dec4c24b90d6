package redis

import (
	"context"
	"fmt"
	"time"

	"eventplanner/internal/domain"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type sessionStore struct {
	rdb *redis.Client
}

// NewSessionStore returns a domain.SessionStore that keeps one key per live session.
// Keys expire with the token, so a lapsed session needs no cleanup.
func NewSessionStore(rdb *redis.Client) domain.SessionStore {
	return &sessionStore{rdb: rdb}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *sessionStore) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionKey(sessionID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *sessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
