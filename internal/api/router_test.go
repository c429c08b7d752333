package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/handler"
	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/service"
	"github.com/hardwerkerz/werk/internal/infrastructure/remote"
)

const (
	testPassword     = "secret1"
	testCookieSecret = "0123456789abcdef0123456789abcdef"
)

// fakeAPI is an in-memory werk REST API.
type fakeAPI struct {
	mu      sync.Mutex
	events  []domain.Event
	jobs    []domain.Job
	profile domain.Profile
	nextID  int
	// fail forces a status for a route pattern, e.g. "DELETE /api/jobs/{id}".
	fail    map[string]int
	created []domain.Event
	deleted []string
	lists   map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		profile: domain.Profile{ID: "p1", Name: "Ada", Logs: []domain.Log{}},
		fail:    make(map[string]int),
		lists:   make(map[string]int),
	}
}

func (f *fakeAPI) failWith(pattern string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[pattern] = status
}

func (f *fakeAPI) clearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[string]int)
}

func (f *fakeAPI) listCalls(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[resource]
}

// calls returns the records the API was asked to create and the ids it
// deleted.
func (f *fakeAPI) calls() ([]domain.Event, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.created...), append([]string(nil), f.deleted...)
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	token := apiToken(t)
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			status, forced := f.fail[pattern]
			f.mu.Unlock()
			if forced {
				writeJSON(w, status, map[string]string{"err": "forced failure"})
				return
			}
			h(w, r)
		})
	}

	handle("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email string `json:"email"`
			Pw    string `json:"pw"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Pw != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"err": "bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	})

	handle("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lists["events"]++
		writeJSON(w, http.StatusOK, f.events)
	})
	handle("POST /api/events", func(w http.ResponseWriter, r *http.Request) {
		var in domain.Event
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"err": err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.created = append(f.created, in)
		f.nextID++
		in.ID = "evt-" + strconv.Itoa(f.nextID)
		in.Owner = "u1"
		f.events = append([]domain.Event{in}, f.events...)
		writeJSON(w, http.StatusOK, in)
	})
	handle("PUT /api/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in domain.Event
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, e := range f.events {
			if e.ID == r.PathValue("id") {
				in.ID, in.Owner = e.ID, e.Owner
				f.events[i] = in
				writeJSON(w, http.StatusOK, in)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"err": "no such event"})
	})

	handle("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lists["jobs"]++
		writeJSON(w, http.StatusOK, f.jobs)
	})
	handle("DELETE /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		for i, j := range f.jobs {
			if j.ID == id {
				f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
				f.deleted = append(f.deleted, id)
				writeJSON(w, http.StatusOK, j)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"err": "no such job"})
	})

	handle("GET /api/resources", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Resource{})
	})
	handle("GET /api/profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.profile)
	})
	handle("POST /api/profiles/{id}/logs", func(w http.ResponseWriter, r *http.Request) {
		var in domain.Log
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		in.ID = "log-1"
		f.profile.Logs = append(f.profile.Logs, in)
		writeJSON(w, http.StatusOK, f.profile)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiToken mimics the token the API issues for Ada.
func apiToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": map[string]string{"_id": "u1", "name": "Ada", "email": "ada@example.com", "profile": "p1"},
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("api-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// memSessions is an in-memory ports.SessionRepository.
type memSessions struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func (m *memSessions) Save(_ context.Context, s *domain.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = *s
	return nil
}

func (m *memSessions) Find(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNoSession
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// browser drives the web client over real HTTP with a cookie jar and without
// following redirects.
type browser struct {
	t      *testing.T
	api    *fakeAPI
	base   *url.URL
	client *http.Client
}

func newBrowser(t *testing.T, api *fakeAPI) *browser {
	t.Helper()
	apiSrv := httptest.NewServer(api.handler(t))
	t.Cleanup(apiSrv.Close)

	log := zerolog.Nop()
	client, err := remote.New(apiSrv.URL, log, remote.WithHTTPTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	clock := clockwork.NewRealClock()
	workspaces := service.NewWorkspaceRegistry(client, clock, time.Hour, log)
	sessions := service.NewSessionService(client, &memSessions{items: make(map[string]domain.Session)}, workspaces, time.Hour, clock, log)
	renderer, err := view.New()
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}

	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Log:        log,
		Sessions:   sessions,
		Workspaces: workspaces,
		Cookies:    session.NewStore(testCookieSecret, time.Hour, false),
		Renderer:   renderer,
		Checks: map[string]handler.Check{
			"api": client.Ping,
		},
		Registerer: reg,
		Gatherer:   reg,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	base, _ := url.Parse(srv.URL)
	return &browser{
		t:    t,
		api:  api,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(raw)}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, b.base.String()+path, nil)
	return b.do(req)
}

// csrf returns the token echo's CSRF middleware handed to this browser.
func (b *browser) csrf() string {
	for _, c := range b.client.Jar.Cookies(b.base) {
		if c.Name == "csrf_token" {
			return c.Value
		}
	}
	b.t.Fatalf("no csrf cookie; GET a page first")
	return ""
}

func (b *browser) post(path string, form url.Values) page {
	b.t.Helper()
	form.Set("csrf_token", b.csrf())
	req, _ := http.NewRequest(http.MethodPost, b.base.String()+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) signIn() {
	b.t.Helper()
	b.get("/login")
	p := b.post("/login", url.Values{"email": {"ada@example.com"}, "pw": {testPassword}})
	if p.status != http.StatusSeeOther || p.location != "/" {
		b.t.Fatalf("sign in: expected 303 to /, got %d %q\n%s", p.status, p.location, p.body)
	}
}

func meetupForm() url.Values {
	return url.Values{
		"name":        {"Meetup"},
		"date":        {"2024-05-01"},
		"time":        {"18:00"},
		"location":    {"HQ"},
		"description": {"Networking"},
	}
}

func TestEventCreate_AppearsFirstWithServerID(t *testing.T) {
	api := newFakeAPI()
	api.events = []domain.Event{{ID: "evt-old", Name: "Career Fair", Date: "2024-04-01", Time: "10:00", Location: "Campus", Description: "Booths"}}
	b := newBrowser(t, api)
	b.signIn()

	if p := b.get("/events/new"); p.status != http.StatusOK || !strings.Contains(p.body, `<button type="submit" disabled>`) {
		t.Fatalf("expected empty form with disabled submit, got %d", p.status)
	}

	p := b.post("/events/new", meetupForm())
	if p.status != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d\n%s", p.status, p.body)
	}
	if p.location != "/events" {
		t.Fatalf("expected redirect to /events, got %q", p.location)
	}

	if created, _ := api.calls(); len(created) != 1 || created[0].ID != "" || created[0].Name != "Meetup" {
		t.Fatalf("unexpected create payload: %+v", created)
	}

	list := b.get("/events")
	if list.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", list.status)
	}
	first, old := strings.Index(list.body, `id="record-evt-1"`), strings.Index(list.body, `id="record-evt-old"`)
	if first < 0 || old < 0 || first > old {
		t.Fatalf("expected the new event first with its server id:\n%s", list.body)
	}
	if !strings.Contains(list.body, "Meetup") || !strings.Contains(list.body, "Event added.") {
		t.Fatalf("expected the event and a confirmation on the list")
	}
	if n := api.listCalls("events"); n != 1 {
		t.Fatalf("expected the store to be updated in place, list called %d times", n)
	}
}

func TestJobDelete_RemovesExactlyThatEntry(t *testing.T) {
	api := newFakeAPI()
	api.jobs = []domain.Job{
		{ID: "xyz789", Title: "SRE", Company: "Acme", Status: domain.JobApplied},
		{ID: "abc123", Title: "Backend", Company: "Globex", Status: domain.JobInterested},
		{ID: "def456", Title: "Platform", Company: "Initech", Status: domain.JobOffer},
	}
	b := newBrowser(t, api)
	b.signIn()
	b.get("/jobs")

	p := b.post("/jobs/abc123/delete", url.Values{})
	if p.status != http.StatusSeeOther || p.location != "/jobs" {
		t.Fatalf("expected 303 to /jobs, got %d %q", p.status, p.location)
	}
	if _, deleted := api.calls(); len(deleted) != 1 || deleted[0] != "abc123" {
		t.Fatalf("expected exactly abc123 deleted, got %v", deleted)
	}

	list := b.get("/jobs").body
	if strings.Contains(list, "record-abc123") {
		t.Fatalf("deleted job still listed")
	}
	xyz, def := strings.Index(list, "record-xyz789"), strings.Index(list, "record-def456")
	if xyz < 0 || def < 0 || xyz > def {
		t.Fatalf("expected the other jobs kept in order:\n%s", list)
	}
}

func TestGuard_RedirectsGuestsToLogin(t *testing.T) {
	b := newBrowser(t, newFakeAPI())

	guarded := []string{
		"/profile", "/change-password",
		"/jobs", "/addjob", "/jobs/abc123", "/jobs/abc123/edit",
		"/resources", "/addresource", "/resources/r1", "/resources/r1/edit",
		"/events", "/events/new", "/events/evt-1/edit",
	}
	for _, path := range guarded {
		p := b.get(path)
		if p.status != http.StatusFound || p.location != "/login" {
			t.Fatalf("%s: expected 302 to /login, got %d %q", path, p.status, p.location)
		}
	}
	for _, path := range []string{"/", "/login", "/signup", "/health"} {
		if p := b.get(path); p.status != http.StatusOK {
			t.Fatalf("%s: expected 200 for a guest, got %d", path, p.status)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	b := newBrowser(t, newFakeAPI())
	b.get("/login")

	p := b.post("/login", url.Values{"email": {"ada@example.com"}, "pw": {"nope"}})
	if p.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", p.status)
	}
	if !strings.Contains(p.body, "Invalid email or password.") {
		t.Fatalf("expected the failure to be shown:\n%s", p.body)
	}
	if !strings.Contains(p.body, `value="ada@example.com"`) {
		t.Fatalf("expected the email to be kept")
	}
}

func TestPost_WithoutCSRFTokenRejected(t *testing.T) {
	b := newBrowser(t, newFakeAPI())
	req, _ := http.NewRequest(http.MethodPost, b.base.String()+"/login", strings.NewReader("email=ada%40example.com&pw=secret1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if p := b.do(req); p.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", p.status)
	}
}

func TestCreate_InvalidFormNeverReachesAPI(t *testing.T) {
	api := newFakeAPI()
	b := newBrowser(t, api)
	b.signIn()
	b.get("/events/new")

	form := meetupForm()
	form.Set("date", "tomorrow")
	p := b.post("/events/new", form)
	if p.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", p.status)
	}
	if !strings.Contains(p.body, "Event Date must be a date (YYYY-MM-DD)") {
		t.Fatalf("expected field error:\n%s", p.body)
	}
	if created, _ := api.calls(); len(created) != 0 {
		t.Fatalf("invalid form reached the API")
	}
}

func TestCreate_APIFailuresKeepTheForm(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   int
		msg    string
	}{
		{"validation", http.StatusBadRequest, http.StatusUnprocessableEntity, "forced failure"},
		{"network", http.StatusBadGateway, http.StatusServiceUnavailable, "We could not reach the server. Please try again."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI()
			b := newBrowser(t, api)
			b.signIn()
			b.get("/events/new")
			api.failWith("POST /api/events", tc.status)

			p := b.post("/events/new", meetupForm())
			if p.status != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, p.status)
			}
			if !strings.Contains(p.body, tc.msg) {
				t.Fatalf("expected %q on the page:\n%s", tc.msg, p.body)
			}
			if !strings.Contains(p.body, `value="Meetup"`) {
				t.Fatalf("expected the typed values to be kept")
			}
		})
	}
}

func TestAuthFailure_EndsSession(t *testing.T) {
	api := newFakeAPI()
	b := newBrowser(t, api)
	b.signIn()
	api.failWith("GET /api/jobs", http.StatusUnauthorized)

	p := b.get("/jobs")
	if p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("expected 302 to /login, got %d %q", p.status, p.location)
	}

	api.clearFailures()
	if p := b.get("/jobs"); p.status != http.StatusFound || p.location != "/login" {
		t.Fatalf("expected the session to be gone, got %d %q", p.status, p.location)
	}
	if login := b.get("/login"); !strings.Contains(login.body, "Your session has expired.") {
		t.Fatalf("expected the reason on the sign-in page:\n%s", login.body)
	}
}

func TestDelete_NotFoundReturnsToListWithMessage(t *testing.T) {
	api := newFakeAPI()
	api.jobs = []domain.Job{{ID: "abc123", Title: "Backend", Company: "Globex", Status: domain.JobApplied}}
	b := newBrowser(t, api)
	b.signIn()
	b.get("/jobs")
	api.failWith("DELETE /api/jobs/{id}", http.StatusNotFound)

	p := b.post("/jobs/abc123/delete", url.Values{})
	if p.status != http.StatusSeeOther || p.location != "/jobs" {
		t.Fatalf("expected 303 to /jobs, got %d %q", p.status, p.location)
	}
	if n := api.listCalls("jobs"); n != 2 {
		t.Fatalf("expected the collection to be refreshed, list called %d times", n)
	}
	if list := b.get("/jobs"); !strings.Contains(list.body, "That record no longer exists.") {
		t.Fatalf("expected a not-found flash:\n%s", list.body)
	}
}

func TestEventUpdate_ReplacesInPlace(t *testing.T) {
	api := newFakeAPI()
	api.events = []domain.Event{
		{ID: "e1", Name: "Meetup", Date: "2024-05-01", Time: "18:00", Location: "HQ", Description: "Networking"},
		{ID: "e2", Name: "Fair", Date: "2024-06-01", Time: "09:00", Location: "Campus", Description: "Booths"},
	}
	b := newBrowser(t, api)
	b.signIn()

	if p := b.get("/events/e1/edit"); !strings.Contains(p.body, `value="HQ"`) {
		t.Fatalf("expected the edit form seeded from the store:\n%s", p.body)
	}
	form := meetupForm()
	form.Set("location", "Online")
	p := b.post("/events/e1/edit", form)
	if p.status != http.StatusSeeOther || p.location != "/events" {
		t.Fatalf("expected 303 to /events, got %d %q", p.status, p.location)
	}

	list := b.get("/events").body
	if !strings.Contains(list, "Online") || strings.Index(list, "record-e1") > strings.Index(list, "record-e2") {
		t.Fatalf("expected e1 updated in place:\n%s", list)
	}
}

func TestJobShow_UnknownIDRefreshesThenRedirects(t *testing.T) {
	api := newFakeAPI()
	b := newBrowser(t, api)
	b.signIn()

	p := b.get("/jobs/missing")
	if p.status != http.StatusSeeOther || p.location != "/jobs" {
		t.Fatalf("expected 303 to /jobs, got %d %q", p.status, p.location)
	}
	if n := api.listCalls("jobs"); n != 2 {
		t.Fatalf("expected one refresh, list called %d times", n)
	}
}

func TestProfile_AddLog(t *testing.T) {
	api := newFakeAPI()
	b := newBrowser(t, api)
	b.signIn()

	if p := b.get("/profile"); !strings.Contains(p.body, "Welcome, Ada") {
		t.Fatalf("expected the profile page:\n%s", p.body)
	}
	p := b.post("/profile/logs", url.Values{"date": {"2024-05-02"}, "logEntry": {"Applied to Globex"}})
	if p.status != http.StatusSeeOther || p.location != "/profile" {
		t.Fatalf("expected 303 to /profile, got %d %q", p.status, p.location)
	}
	if page := b.get("/profile"); !strings.Contains(page.body, "Applied to Globex") {
		t.Fatalf("expected the new log:\n%s", page.body)
	}
}

func TestLogout(t *testing.T) {
	b := newBrowser(t, newFakeAPI())
	b.signIn()

	p := b.post("/logout", url.Values{})
	if p.status != http.StatusSeeOther || p.location != "/" {
		t.Fatalf("expected 303 to /, got %d %q", p.status, p.location)
	}
	if p := b.get("/jobs"); p.status != http.StatusFound {
		t.Fatalf("expected the guard after sign out, got %d", p.status)
	}
}

func TestValidateEndpoint(t *testing.T) {
	b := newBrowser(t, newFakeAPI())
	b.get("/")

	call := func(path string, form url.Values) (*http.Response, validateResult) {
		req, _ := http.NewRequest(http.MethodPost, b.base.String()+path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-CSRF-Token", b.csrf())
		resp, err := b.client.Do(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		defer resp.Body.Close()
		var out validateResult
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	form := meetupForm()
	form.Set("time", "6pm")
	resp, out := call("/forms/event/validate", form)
	if resp.StatusCode != http.StatusOK || out.Valid || out.Errors["time"] == "" {
		t.Fatalf("expected invalid time, got %d %+v", resp.StatusCode, out)
	}

	resp, out = call("/forms/event/validate", meetupForm())
	if !out.Valid || len(out.Errors) != 0 {
		t.Fatalf("expected a valid form, got %+v", out)
	}

	if resp, _ = call("/forms/nope/validate", url.Values{}); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown form, got %d", resp.StatusCode)
	}
}

type validateResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}
