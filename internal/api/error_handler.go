package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/infrastructure/remote"
)

// errorResponse is the JSON error envelope used by the validation endpoint
// and the health probes.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Sends requests without a usable session back to /login.
//   - Maps the domain error taxonomy to HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the HTML error page, or {"error": "<message>"} for JSON callers.
func NewHTTPErrorHandler(log zerolog.Logger, cookies *session.Store) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if errors.Is(err, domain.ErrNoSession) || errors.Is(err, domain.ErrAuth) {
			_ = cookies.End(c, &session.Flash{Kind: session.FlashInfo, Message: "Please sign in to continue."})
			_ = c.Redirect(http.StatusFound, "/login")
			return
		}

		code, msg := resolveError(err, log, c)
		switch {
		case c.Request().Method == http.MethodHead:
			_ = c.NoContent(code)
		case wantsJSON(c):
			_ = c.JSON(code, errorResponse{Error: msg})
		default:
			csrf, _ := c.Get("csrf").(string)
			page := view.Page{
				Title: http.StatusText(code),
				CSRF:  csrf,
				Body:  view.ErrorBody{Status: code, Message: msg},
			}
			if rerr := c.Render(code, "error", page); rerr != nil {
				log.Error().Err(rerr).Msg("render error page")
				_ = c.String(code, msg)
			}
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, CSRF, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, remote.UserMessage(err)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, remote.UserMessage(err)
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusServiceUnavailable, remote.UserMessage(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Something went wrong. Please try again."
}

func wantsJSON(c echo.Context) bool {
	if strings.HasPrefix(c.Request().URL.Path, "/forms/") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
