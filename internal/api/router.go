package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/handler"
	"github.com/hardwerkerz/werk/internal/api/middleware"
	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/form"
	"github.com/hardwerkerz/werk/internal/core/ports"
	"github.com/hardwerkerz/werk/internal/core/service"
)

// Deps are the collaborators NewRouter wires into the handlers.
type Deps struct {
	Log        zerolog.Logger
	Sessions   ports.SessionService
	Workspaces handler.Workspaces
	Cookies    *session.Store
	Renderer   echo.Renderer
	// Checks back the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check
	// Registerer and Gatherer back the HTTP metrics and /metrics. Tests pass
	// a fresh prometheus.NewRegistry() for both.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Renderer = d.Renderer
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Cookies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"img-src 'self' https: data:; " +
			"frame-ancestors 'none'",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "werk",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper:    opsPath,
	}))
	e.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   d.SecureCookies,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper:        opsPath,
	}))

	// --- Dependencies ---
	base := handler.NewBase(d.Sessions, d.Workspaces, d.Cookies, d.Log)
	authHandler := handler.NewAuthHandler(base)
	profileHandler := handler.NewProfileHandler(base)
	formHandler := handler.NewFormHandler(form.Schemas)
	healthHandler := handler.NewHealthHandler(d.Checks)

	optional := middleware.OptionalSession(d.Sessions, d.Cookies)
	guest := middleware.GuestOnly("/")
	guard := middleware.RequireSession(d.Sessions, d.Cookies)

	// --- Public pages ---
	e.GET("/", authHandler.Home, optional)
	e.GET("/signup", authHandler.SignupPage, optional, guest)
	e.POST("/signup", authHandler.Signup, optional, guest)
	e.GET("/login", authHandler.LoginPage, optional, guest)
	e.POST("/login", authHandler.Login, optional, guest)
	e.POST("/logout", authHandler.Logout)
	e.POST("/forms/:schema/validate", formHandler.Validate)

	// --- Signed-in pages ---
	e.GET("/change-password", authHandler.ChangePasswordPage, guard)
	e.POST("/change-password", authHandler.ChangePassword, guard)
	e.GET("/profile", profileHandler.Show, guard)
	e.POST("/profile/logs", profileHandler.AddLog, guard)
	e.POST("/profile/logs/:id/delete", profileHandler.DeleteLog, guard)

	handler.NewResource(base, handler.ResourceConfig[domain.Job]{
		Noun:     "Job",
		Plural:   "Job Board",
		ListPath: "/jobs",
		NewPath:  "/addjob",
		NewLabel: "Add A Job",
		Empty:    "No jobs yet. Add the first listing you are tracking.",
		Detail:   true,
		Binding:  form.JobBinding,
		Records:  func(ws *service.Workspace) *service.Records[domain.Job] { return ws.Jobs },
	}).Routes(e, guard)

	handler.NewResource(base, handler.ResourceConfig[domain.Resource]{
		Noun:     "Resource",
		Plural:   "Resources",
		ListPath: "/resources",
		NewPath:  "/addresource",
		NewLabel: "Add A Resource",
		Empty:    "No resources yet.",
		Detail:   true,
		Binding:  form.ResourceBinding,
		Records:  func(ws *service.Workspace) *service.Records[domain.Resource] { return ws.Resources },
	}).Routes(e, guard)

	handler.NewResource(base, handler.ResourceConfig[domain.Event]{
		Noun:     "Event",
		Plural:   "Events",
		ListPath: "/events",
		NewPath:  "/events/new",
		NewLabel: "Add An Event",
		Empty:    "No events yet.",
		Binding:  form.EventBinding,
		Records:  func(ws *service.Workspace) *service.Records[domain.Event] { return ws.Events },
	}).Routes(e, guard)

	// --- Health probes and metrics (no session required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))

	return e
}

// opsPath skips probes and metrics scraping.
func opsPath(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/health")
}
