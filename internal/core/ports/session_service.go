package ports

import (
	"context"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// SessionService defines the sign-in lifecycle of a browser session.
type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, in SignUpInput) (*domain.Session, error)
	// Current returns domain.ErrNoSession when the id is unknown or expired.
	Current(ctx context.Context, id string) (*domain.Session, error)
	SignOut(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, current, next string) (*domain.Session, error)
	// Expire drops a session whose token the API has stopped accepting.
	Expire(ctx context.Context, id string)
}
