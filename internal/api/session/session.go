// Package session binds a browser to a signed-in werk session.
//
// The cookie is signed by gorilla/sessions and carries only the session id
// and pending flash messages. The API token itself stays server-side.
package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "werk-session"

	keyID = "sid"
)

// FlashKind selects how a flash message is shown.
type FlashKind string

const (
	FlashInfo  FlashKind = "info"
	FlashError FlashKind = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Store reads and writes the session cookie.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a cookie store signed with secret. secure marks the cookie
// Secure, which production deployments behind TLS must do.
func NewStore(secret string, maxAge time.Duration, secure bool) *Store {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// ID returns the session id bound to the request, or "" when there is none.
// A cookie that fails signature checks counts as none.
func (s *Store) ID(c echo.Context) string {
	sess, err := s.cookies.Get(c.Request(), CookieName)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[keyID].(string)
	return id
}

// Begin binds id to the browser, replacing any previous id.
func (s *Store) Begin(c echo.Context, id string) error {
	sess := s.get(c)
	sess.Values[keyID] = id
	return sess.Save(c.Request(), c.Response())
}

// End unbinds the session id and queues an optional flash in the same write.
func (s *Store) End(c echo.Context, flash *Flash) error {
	sess := s.get(c)
	delete(sess.Values, keyID)
	if flash != nil {
		sess.AddFlash(flash.Message, flashKey(flash.Kind))
	}
	return sess.Save(c.Request(), c.Response())
}

// AddFlash queues a message for the next rendered page.
func (s *Store) AddFlash(c echo.Context, kind FlashKind, msg string) error {
	sess := s.get(c)
	sess.AddFlash(msg, flashKey(kind))
	return sess.Save(c.Request(), c.Response())
}

// Flashes pops every pending message, errors first.
func (s *Store) Flashes(c echo.Context) []Flash {
	sess := s.get(c)

	var out []Flash
	for _, kind := range []FlashKind{FlashError, FlashInfo} {
		for _, v := range sess.Flashes(flashKey(kind)) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		_ = sess.Save(c.Request(), c.Response())
	}
	return out
}

// get returns the request's session, starting a fresh one when the cookie is
// missing or was not signed by us.
func (s *Store) get(c echo.Context) *sessions.Session {
	sess, err := s.cookies.Get(c.Request(), CookieName)
	if err != nil {
		sess, _ = s.cookies.New(c.Request(), CookieName)
	}
	return sess
}

func flashKey(kind FlashKind) string { return "_flash_" + string(kind) }
