package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// SessionRepository stores signed-in sessions as JSON blobs with a TTL.
// Key format: session:<session_id>
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a SessionRepository wrapping the given client.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save writes the session, replacing any previous value. The key expires
// after ttl.
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session save: encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Find loads a session. Unknown or expired ids yield domain.ErrNoSession.
func (r *SessionRepository) Find(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("session find: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session find: decode: %w", err)
	}
	return &s, nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (r *SessionRepository) key(id string) string {
	return "session:" + id
}
