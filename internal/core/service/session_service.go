package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/metrics"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// SessionService signs users in and out and resolves the current user of a
// browser session.
type SessionService struct {
	auth       ports.AuthClient
	repo       ports.SessionRepository
	workspaces *WorkspaceRegistry
	ttl        time.Duration
	clock      clockwork.Clock
	log        zerolog.Logger
}

func NewSessionService(
	auth ports.AuthClient,
	repo ports.SessionRepository,
	workspaces *WorkspaceRegistry,
	ttl time.Duration,
	clock clockwork.Clock,
	log zerolog.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{auth: auth, repo: repo, workspaces: workspaces, ttl: ttl, clock: clock, log: log}
}

// SignIn exchanges credentials for a token and opens a new session.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, token, "signin")
}

// SignUp creates an account and opens a session for it.
func (s *SessionService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Session, error) {
	token, err := s.auth.SignUp(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, token, "signup")
}

// Current returns the signed-in session for id, or domain.ErrNoSession.
func (s *SessionService) Current(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrNoSession
	}
	sess, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.clock.Now()) {
		metrics.SessionEventsTotal.WithLabelValues("expired").Inc()
		s.discard(ctx, id)
		return nil, domain.ErrNoSession
	}
	return sess, nil
}

// SignOut forgets the session. Signing out an unknown session is not an error.
func (s *SessionService) SignOut(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	s.workspaces.Drop(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("signout").Inc()
	return nil
}

// ChangePassword changes the password and stores the token the API issues in
// return. The session id, and so the browser cookie, stays the same.
func (s *SessionService) ChangePassword(ctx context.Context, id, current, next string) (*domain.Session, error) {
	sess, err := s.Current(ctx, id)
	if err != nil {
		return nil, err
	}
	token, err := s.auth.ChangePassword(ctx, sess.Token, current, next)
	if err != nil {
		return nil, err
	}
	user, exp, err := decodeToken(token, s.clock.Now())
	if err != nil {
		return nil, err
	}

	sess.Token, sess.User, sess.ExpiresAt = token, user, exp
	if err := s.repo.Save(ctx, sess, s.ttlFor(exp)); err != nil {
		return nil, err
	}
	s.workspaces.Rebind(id, token)
	metrics.SessionEventsTotal.WithLabelValues("password_changed").Inc()
	return sess, nil
}

// Expire drops a session whose token the API no longer accepts.
func (s *SessionService) Expire(ctx context.Context, id string) {
	metrics.SessionEventsTotal.WithLabelValues("expired").Inc()
	s.discard(ctx, id)
}

func (s *SessionService) open(ctx context.Context, token, event string) (*domain.Session, error) {
	user, exp, err := decodeToken(token, s.clock.Now())
	if err != nil {
		return nil, err
	}
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{ID: id, Token: token, User: user, ExpiresAt: exp}
	if err := s.repo.Save(ctx, sess, s.ttlFor(exp)); err != nil {
		return nil, err
	}
	metrics.SessionEventsTotal.WithLabelValues(event).Inc()
	s.log.Info().Str("user_id", user.ID).Str("event", event).Msg("session opened")
	return sess, nil
}

func (s *SessionService) discard(ctx context.Context, id string) {
	s.workspaces.Drop(id)
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNoSession) {
		s.log.Warn().Err(err).Msg("failed to delete session")
	}
}

// ttlFor keeps the stored session no longer than the token is valid.
func (s *SessionService) ttlFor(exp time.Time) time.Duration {
	if exp.IsZero() {
		return s.ttl
	}
	if left := exp.Sub(s.clock.Now()); left < s.ttl {
		return left
	}
	return s.ttl
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
