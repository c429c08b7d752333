package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/metrics"
	"github.com/hardwerkerz/werk/internal/api/middleware"
	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/form"
	"github.com/hardwerkerz/werk/internal/core/ports"
	"github.com/hardwerkerz/werk/internal/core/service"
	"github.com/hardwerkerz/werk/internal/infrastructure/remote"
)

// Workspaces opens the in-memory workspace of a signed-in session, loading
// its collections on first use.
type Workspaces interface {
	Open(ctx context.Context, s *domain.Session) (*service.Workspace, error)
}

// Base holds what every page handler needs: the session service, the
// workspace registry and the session cookie.
type Base struct {
	sessions   ports.SessionService
	workspaces Workspaces
	cookies    *session.Store
	log        zerolog.Logger
}

func NewBase(sessions ports.SessionService, workspaces Workspaces, cookies *session.Store, log zerolog.Logger) *Base {
	return &Base{sessions: sessions, workspaces: workspaces, cookies: cookies, log: log}
}

// render executes page inside the layout with the request's user, CSRF token
// and pending flashes.
func (b *Base) render(c echo.Context, status int, page, title string, body any) error {
	p := view.Page{
		Title:   title,
		CSRF:    csrfToken(c),
		Flashes: b.cookies.Flashes(c),
		Body:    body,
	}
	if sess, ok := c.Get(middleware.SessionKey).(*domain.Session); ok {
		u := sess.User
		p.User = &u
	}
	return c.Render(status, page, p)
}

// redirect answers a form post with 303 See Other, queueing msg for the next
// page when it is not empty.
func (b *Base) redirect(c echo.Context, to string, kind session.FlashKind, msg string) error {
	if msg != "" {
		if err := b.cookies.AddFlash(c, kind, msg); err != nil {
			b.log.Warn().Err(err).Str("path", c.Path()).Msg("could not queue flash")
		}
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// workspace opens the workspace of the signed-in request.
func (b *Base) workspace(c echo.Context) (*service.Workspace, error) {
	sess, err := ctxSession(c)
	if err != nil {
		return nil, err
	}
	return b.workspaces.Open(c.Request().Context(), sess)
}

// failure tells fail how to surface an API error on the current page.
type failure struct {
	// list is the collection view to return to, empty when there is none.
	list string
	// form re-renders the submitted form with status and msg. Nil when the
	// request did not come from a form page.
	form func(status int, msg string) error
}

// fail applies the error policy shared by every page:
//   - ErrAuth: the session is destroyed and the browser sent to /login.
//   - ErrNotFound: back to the list, which the workspace already refreshed.
//   - ErrValidation: the form is shown again with the server's message.
//   - ErrNetwork: the form is shown again so the user can resubmit.
//
// Anything else goes to the central error handler.
func (b *Base) fail(c echo.Context, err error, f failure) error {
	msg := remote.UserMessage(err)
	switch {
	case errors.Is(err, domain.ErrAuth):
		if sess, serr := ctxSession(c); serr == nil {
			b.sessions.Expire(c.Request().Context(), sess.ID)
		}
		if cerr := b.cookies.End(c, &session.Flash{Kind: session.FlashError, Message: msg}); cerr != nil {
			b.log.Warn().Err(cerr).Msg("could not clear session cookie")
		}
		return c.Redirect(http.StatusFound, "/login")

	case errors.Is(err, domain.ErrNotFound):
		if f.list != "" {
			return b.redirect(c, f.list, session.FlashError, msg)
		}
		return echo.NewHTTPError(http.StatusNotFound, msg)

	case errors.Is(err, domain.ErrValidation):
		if f.form != nil {
			return f.form(http.StatusUnprocessableEntity, msg)
		}
		if f.list != "" {
			return b.redirect(c, f.list, session.FlashError, msg)
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)

	case errors.Is(err, domain.ErrNetwork):
		b.log.Warn().Err(err).Str("path", c.Path()).Msg("api unreachable")
		if f.form != nil {
			return f.form(http.StatusServiceUnavailable, msg)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, msg)
	}
	return err
}

// rejected re-renders a form that failed local validation. The API is never
// called for an invalid form.
func (b *Base) rejected(f *form.Form, show func(status int, msg string) error) error {
	metrics.FormRejectionsTotal.WithLabelValues(f.Schema().Name).Inc()
	return show(http.StatusUnprocessableEntity, "Please fix the highlighted fields.")
}

// formValues returns the posted values of the schema's fields. Fields missing
// from the request are left out so edits keep their seeded value.
func formValues(c echo.Context, schema form.Schema) (map[string]string, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form payload")
	}
	out := make(map[string]string, len(schema.Fields))
	for _, fd := range schema.Fields {
		if vs, ok := params[fd.Name]; ok && len(vs) > 0 {
			out[fd.Name] = vs[0]
		}
	}
	return out, nil
}
