package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
)

var errUnexpectedCall = errors.New("unexpected call")

type stubClient[T domain.Record] struct {
	listFn   func(ctx context.Context) ([]T, error)
	createFn func(ctx context.Context, in T) (T, error)
	updateFn func(ctx context.Context, id string, in T) (T, error)
	removeFn func(ctx context.Context, id string) (T, error)

	lists atomic.Int32
}

func (s *stubClient[T]) List(ctx context.Context) ([]T, error) {
	s.lists.Add(1)
	if s.listFn == nil {
		return []T{}, nil
	}
	return s.listFn(ctx)
}

func (s *stubClient[T]) Create(ctx context.Context, in T) (T, error) {
	if s.createFn == nil {
		var zero T
		return zero, errUnexpectedCall
	}
	return s.createFn(ctx, in)
}

func (s *stubClient[T]) Update(ctx context.Context, id string, in T) (T, error) {
	if s.updateFn == nil {
		var zero T
		return zero, errUnexpectedCall
	}
	return s.updateFn(ctx, id, in)
}

func (s *stubClient[T]) Remove(ctx context.Context, id string) (T, error) {
	if s.removeFn == nil {
		var zero T
		return zero, errUnexpectedCall
	}
	return s.removeFn(ctx, id)
}

type stubProfiles struct {
	getFn func(ctx context.Context, profileID string) (*domain.Profile, error)
}

func (s *stubProfiles) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	if s.getFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getFn(ctx, profileID)
}

func (s *stubProfiles) CreateLog(context.Context, string, domain.Log) (*domain.Profile, error) {
	return nil, errUnexpectedCall
}

func (s *stubProfiles) DeleteLog(context.Context, string, string) (*domain.Profile, error) {
	return nil, errUnexpectedCall
}

// stubAPI hands out the same stub clients for every token and records which
// tokens were requested.
type stubAPI struct {
	events    *stubClient[domain.Event]
	jobs      *stubClient[domain.Job]
	resources *stubClient[domain.Resource]
	profiles  *stubProfiles

	mu     sync.Mutex
	tokens []string
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		events:    &stubClient[domain.Event]{},
		jobs:      &stubClient[domain.Job]{},
		resources: &stubClient[domain.Resource]{},
		profiles:  &stubProfiles{},
	}
}

func (s *stubAPI) ForToken(token string) ports.APIClients {
	s.mu.Lock()
	s.tokens = append(s.tokens, token)
	s.mu.Unlock()
	return ports.APIClients{Events: s.events, Jobs: s.jobs, Resources: s.resources, Profiles: s.profiles}
}

func (s *stubAPI) lastToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) == 0 {
		return ""
	}
	return s.tokens[len(s.tokens)-1]
}

type stubAuth struct {
	signUpFn         func(ctx context.Context, in ports.SignUpInput) (string, error)
	loginFn          func(ctx context.Context, email, password string) (string, error)
	changePasswordFn func(ctx context.Context, token, current, next string) (string, error)
}

func (s *stubAuth) SignUp(ctx context.Context, in ports.SignUpInput) (string, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuth) ChangePassword(ctx context.Context, token, current, next string) (string, error) {
	return s.changePasswordFn(ctx, token, current, next)
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	ttls     map[string]time.Duration
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]domain.Session), ttls: make(map[string]time.Duration)}
}

func (r *memSessionRepo) Save(_ context.Context, s *domain.Session, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	r.ttls[s.ID] = ttl
	return nil
}

func (r *memSessionRepo) Find(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNoSession
	}
	return &s, nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// signToken builds an API-style token for user that expires at exp.
func signToken(t *testing.T, user domain.User, exp time.Time) string {
	t.Helper()
	claims := tokenClaims{User: user}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("api-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}
