package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/form"
	"github.com/hardwerkerz/werk/internal/core/ports"
	"github.com/hardwerkerz/werk/internal/infrastructure/remote"
)

// AuthHandler serves the landing page and the sign-up, sign-in, sign-out and
// change-password flows.
type AuthHandler struct {
	*Base
}

func NewAuthHandler(base *Base) *AuthHandler {
	return &AuthHandler{Base: base}
}

var (
	signupBody = view.FormBody{Heading: "Sign Up", Action: "/signup", Submit: "Sign Up"}
	loginBody  = view.FormBody{Heading: "Log In", Action: "/login", Submit: "Log In"}
	changeBody = view.FormBody{Heading: "Change Password", Action: "/change-password", Submit: "Change Password", Cancel: "/profile"}
)

// Home handles GET /.
func (h *AuthHandler) Home(c echo.Context) error {
	return h.render(c, http.StatusOK, "home", "WERK.", nil)
}

// SignupPage handles GET /signup.
func (h *AuthHandler) SignupPage(c echo.Context) error {
	return h.showForm(c, http.StatusOK, signupBody, form.New(form.SignupSchema, nil))
}

// Signup handles POST /signup: the account is created, the browser signed in
// and sent to the landing page.
func (h *AuthHandler) Signup(c echo.Context) error {
	return h.submit(c, signupBody, form.SignupSchema, func(v map[string]string) (*domain.Session, error) {
		return h.sessions.SignUp(c.Request().Context(), ports.SignUpInput{
			Name:     v["name"],
			Email:    v["email"],
			Password: v["password"],
		})
	})
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return h.showForm(c, http.StatusOK, loginBody, form.New(form.LoginSchema, nil))
}

// Login handles POST /login.
func (h *AuthHandler) Login(c echo.Context) error {
	return h.submit(c, loginBody, form.LoginSchema, func(v map[string]string) (*domain.Session, error) {
		return h.sessions.SignIn(c.Request().Context(), v["email"], v["pw"])
	})
}

// Logout handles POST /logout. It always clears the cookie, even when the
// server-side session could not be removed.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context(), h.cookies.ID(c)); err != nil {
		h.log.Warn().Err(err).Msg("sign out: could not remove session")
	}
	if err := h.cookies.End(c, &session.Flash{Kind: session.FlashInfo, Message: "You have been signed out."}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// ChangePasswordPage handles GET /change-password.
func (h *AuthHandler) ChangePasswordPage(c echo.Context) error {
	return h.showForm(c, http.StatusOK, changeBody, form.New(form.ChangePasswordSchema, nil))
}

// ChangePassword handles POST /change-password. The session keeps its id and
// switches to the token the API returns.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	posted, err := formValues(c, form.ChangePasswordSchema)
	if err != nil {
		return err
	}

	f := form.New(form.ChangePasswordSchema, posted)
	show := func(status int, msg string) error {
		f.Fail(msg)
		return h.showForm(c, status, changeBody, f)
	}

	err = f.Submit(func(v map[string]string) error {
		_, err := h.sessions.ChangePassword(c.Request().Context(), sess.ID, v["pw"], v["newPw"])
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		return h.rejected(f, show)
	case errors.Is(err, domain.ErrAuth):
		// The API answers 401 for a wrong current password.
		return show(http.StatusUnprocessableEntity, "Current password is incorrect.")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNetwork):
		return h.fail(c, err, failure{form: show})
	case err != nil:
		return err
	}
	return h.redirect(c, "/", session.FlashInfo, "Password changed.")
}

// submit runs a sign-in style form: on success the new session id is bound to
// the browser.
func (h *AuthHandler) submit(c echo.Context, body view.FormBody, schema form.Schema, open func(map[string]string) (*domain.Session, error)) error {
	posted, err := formValues(c, schema)
	if err != nil {
		return err
	}

	f := form.New(schema, posted)
	show := func(status int, msg string) error {
		f.Fail(msg)
		return h.showForm(c, status, body, f)
	}

	var sess *domain.Session
	err = f.Submit(func(v map[string]string) error {
		var err error
		sess, err = open(v)
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		return h.rejected(f, show)
	case errors.Is(err, domain.ErrAuth):
		return show(http.StatusUnprocessableEntity, "Invalid email or password.")
	case errors.Is(err, domain.ErrValidation):
		return show(http.StatusUnprocessableEntity, remote.UserMessage(err))
	case errors.Is(err, domain.ErrNetwork):
		return show(http.StatusServiceUnavailable, remote.UserMessage(err))
	case err != nil:
		return err
	}

	if err := h.cookies.Begin(c, sess.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) showForm(c echo.Context, status int, body view.FormBody, f *form.Form) error {
	f.ClearSecrets()
	body.Form = f
	return h.render(c, status, "form", body.Heading, body)
}
