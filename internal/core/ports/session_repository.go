package ports

import (
	"context"
	"time"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// SessionRepository persists signed-in sessions across process restarts.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	// Find returns domain.ErrNoSession when id is unknown or expired.
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
