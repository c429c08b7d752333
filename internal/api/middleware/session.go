package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/core/domain"
)

// SessionKey is the echo context key holding the *domain.Session of a
// signed-in request.
const SessionKey = "session"

// SessionResolver returns the signed-in session for an id, or
// domain.ErrNoSession.
type SessionResolver interface {
	Current(ctx context.Context, id string) (*domain.Session, error)
}

// RequireSession guards a route: without a signed-in user the browser is sent
// to /login, otherwise the session is put on the context and next runs. The
// check is made on every request.
func RequireSession(resolver SessionResolver, cookies *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := resolver.Current(c.Request().Context(), cookies.ID(c))
			if errors.Is(err, domain.ErrNoSession) {
				_ = cookies.End(c, &session.Flash{Kind: session.FlashInfo, Message: "Please sign in to continue."})
				return c.Redirect(http.StatusFound, "/login")
			}
			if err != nil {
				return err
			}

			c.Set(SessionKey, sess)
			return next(c)
		}
	}
}

// OptionalSession puts the session on the context when there is one and
// always calls next. Public pages use it to render the signed-in navigation.
func OptionalSession(resolver SessionResolver, cookies *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := cookies.ID(c); id != "" {
				if sess, err := resolver.Current(c.Request().Context(), id); err == nil {
					c.Set(SessionKey, sess)
				}
			}
			return next(c)
		}
	}
}

// GuestOnly sends signed-in users away from pages meant for guests, such as
// the sign-in form. It must run after OptionalSession.
func GuestOnly(redirectTo string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(SessionKey).(*domain.Session); ok {
				return c.Redirect(http.StatusFound, redirectTo)
			}
			return next(c)
		}
	}
}
