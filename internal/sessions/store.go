package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Session is the server-side record an HTTP-only cookie points at. Sessions
// are immutable once created; the TTL is fixed from creation, not sliding.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store resolves opaque session identifiers to authenticated user identities.
// It is injected into the auth gate so a different distributed backend can be
// swapped in without touching the request path.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID uuid.UUID) string {
	return "user_sessions:" + userID.String()
}

func (s *RedisStore) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	sessionID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := &Session{
		ID:        sessionID.String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), session.ID)
	pipe.Expire(ctx, userSessionsKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return session, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// Redis evicts expired keys on its own schedule; enforce the expiry
	// explicitly so a stale key never authenticates a request.
	if session.Expired() {
		_ = s.client.Del(ctx, sessionKey(sessionID)).Err()
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return s.client.Del(ctx, sessionKey(sessionID)).Err()
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(session.UserID), sessionID)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteAllForUser invalidates every live session of a user. Used when the
// account itself is deleted.
func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	return s.client.Del(ctx, keys...).Err()
}
