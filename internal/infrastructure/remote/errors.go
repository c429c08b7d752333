package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// CallError describes a failed API call. It unwraps to one of the domain
// sentinels (ErrAuth, ErrValidation, ErrNotFound, ErrNetwork) and, for
// transport failures, to the underlying error as well.
type CallError struct {
	Op         string
	StatusCode int    // 0 for transport failures
	Message    string // server-provided message, if any
	Kind       error
	Err        error
}

func (e *CallError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *CallError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// UserMessage returns text that is safe to show on a page.
func UserMessage(err error) string {
	var ce *CallError
	if errors.As(err, &ce) && ce.Message != "" && errors.Is(ce.Kind, domain.ErrValidation) {
		return ce.Message
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "The server rejected some of the fields. Please check them and try again."
	case errors.Is(err, domain.ErrNotFound):
		return "That record no longer exists."
	case errors.Is(err, domain.ErrAuth):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, domain.ErrNetwork):
		return "We could not reach the server. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// classify maps an HTTP status onto the domain error taxonomy.
//   - 401, 403          → ErrAuth
//   - 400, 409, 422     → ErrValidation
//   - 404, 410          → ErrNotFound
//   - 408, 429, 5xx, …  → ErrNetwork (transient; the user may retry)
func classify(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuth
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case http.StatusNotFound, http.StatusGone:
		return domain.ErrNotFound
	default:
		return domain.ErrNetwork
	}
}

// outcome is the metric label for a call result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "network"
	}
}
