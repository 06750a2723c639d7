package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound covers both unknown and expired session ids.
var ErrSessionNotFound = errors.New("session not found")

type sessionRecord struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"isadmin"`
}

// SessionStore keeps active sessions in Redis under a TTL. This replaces
// the legacy design where a per-row "isconnected" flag in the users table
// acted as a single global logged-in pointer.
type SessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{Client: client, TTL: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, userID int64, isAdmin bool) error {
	payload, err := json.Marshal(sessionRecord{UserID: userID, IsAdmin: isAdmin})
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, sessionKey(sessionID), payload, s.TTL).Err()
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (int64, bool, error) {
	val, err := s.Client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return 0, false, ErrSessionNotFound
	}
	if err != nil {
		return 0, false, err
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return 0, false, err
	}
	return rec.UserID, rec.IsAdmin, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, sessionKey(sessionID)).Err()
}
