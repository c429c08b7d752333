package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/api/middleware"
	"github.com/hardwerkerz/werk/internal/core/domain"
)

// ctxSession returns the session injected by middleware.RequireSession.
// A missing session means the route was registered without the guard.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, ok := c.Get(middleware.SessionKey).(*domain.Session)
	if !ok || sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sess, nil
}

// recordParam is the :id segment of record routes. Identifiers are opaque
// server-assigned strings.
type recordParam struct {
	ID string `param:"id" validate:"required,printascii,max=128"`
}

// recordID binds and validates the :id path parameter.
func recordID(c echo.Context) (string, error) {
	var p recordParam
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &p); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := c.Validate(&p); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return p.ID, nil
}

// csrfToken returns the token set by echo's CSRF middleware, if any.
func csrfToken(c echo.Context) string {
	tok, _ := c.Get("csrf").(string)
	return tok
}
