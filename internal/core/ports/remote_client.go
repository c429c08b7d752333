package ports

import (
	"context"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// ResourceClient performs list/create/update/delete calls for one record type.
// Every method issues exactly one request; there is no retry.
type ResourceClient[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, fields T) (T, error)
	Update(ctx context.Context, id string, fields T) (T, error)
	Remove(ctx context.Context, id string) (T, error)
}

// ProfileClient manages the profile and its progress log. Log mutations
// return the whole updated profile.
type ProfileClient interface {
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	CreateLog(ctx context.Context, profileID string, log domain.Log) (*domain.Profile, error)
	DeleteLog(ctx context.Context, profileID, logID string) (*domain.Profile, error)
}

// SignUpInput carries the fields of the sign-up form.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// AuthClient exchanges credentials for a bearer token.
type AuthClient interface {
	SignUp(ctx context.Context, in SignUpInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	ChangePassword(ctx context.Context, token, current, next string) (string, error)
}

// APIClients bundles the per-type clients bound to a single bearer token.
type APIClients struct {
	Events    ResourceClient[domain.Event]
	Jobs      ResourceClient[domain.Job]
	Resources ResourceClient[domain.Resource]
	Profiles  ProfileClient
}

// ClientFactory builds API clients that authenticate with token.
type ClientFactory interface {
	ForToken(token string) APIClients
}
