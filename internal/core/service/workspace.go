package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hardwerkerz/werk/internal/api/metrics"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
	"github.com/hardwerkerz/werk/internal/core/store"
)

// Workspace is the application state of one signed-in browser session: the
// user, the three record collections and the API clients bound to the
// session's token. Handlers receive it from the WorkspaceRegistry.
type Workspace struct {
	Events    *Records[domain.Event]
	Jobs      *Records[domain.Job]
	Resources *Records[domain.Resource]

	user domain.User
	log  zerolog.Logger

	mu       sync.RWMutex
	profiles ports.ProfileClient
	loaded   bool
	lastSeen time.Time

	cancels []func()
}

func newWorkspace(user domain.User, clients ports.APIClients, log zerolog.Logger) *Workspace {
	log = log.With().Str("user_id", user.ID).Logger()
	w := &Workspace{
		Events:    newRecords(domain.KindEvents, clients.Events, log),
		Jobs:      newRecords(domain.KindJobs, clients.Jobs, log),
		Resources: newRecords(domain.KindResources, clients.Resources, log),
		user:      user,
		log:       log,
		profiles:  clients.Profiles,
	}
	w.cancels = []func(){
		w.Events.Store().Subscribe(w.observe(domain.KindEvents)),
		w.Jobs.Store().Subscribe(w.observe(domain.KindJobs)),
		w.Resources.Store().Subscribe(w.observe(domain.KindResources)),
	}
	return w
}

// User returns the signed-in user.
func (w *Workspace) User() domain.User { return w.user }

// Loaded reports whether the initial refresh has completed.
func (w *Workspace) Loaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// Load fetches all three collections. Together they make up the single
// refresh that follows sign-in.
func (w *Workspace) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Events.Refresh(gctx) })
	g.Go(func() error { return w.Jobs.Refresh(gctx) })
	g.Go(func() error { return w.Resources.Refresh(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	w.loaded = true
	w.mu.Unlock()
	w.log.Debug().
		Int("events", w.Events.Store().Len()).
		Int("jobs", w.Jobs.Store().Len()).
		Int("resources", w.Resources.Store().Len()).
		Msg("workspace loaded")
	return nil
}

// Profile fetches the user's profile with its progress log.
func (w *Workspace) Profile(ctx context.Context) (*domain.Profile, error) {
	return w.profileAPI().Get(ctx, w.user.Profile)
}

// AddLog appends an entry to the progress log and returns the updated profile.
func (w *Workspace) AddLog(ctx context.Context, entry domain.Log) (*domain.Profile, error) {
	return w.profileAPI().CreateLog(ctx, w.user.Profile, entry)
}

// DeleteLog removes an entry from the progress log and returns the updated
// profile.
func (w *Workspace) DeleteLog(ctx context.Context, logID string) (*domain.Profile, error) {
	return w.profileAPI().DeleteLog(ctx, w.user.Profile, logID)
}

// rebind swaps every API client for ones carrying a new token. The cached
// collections stay as they are.
func (w *Workspace) rebind(clients ports.APIClients) {
	w.Events.rebind(clients.Events)
	w.Jobs.rebind(clients.Jobs)
	w.Resources.rebind(clients.Resources)

	w.mu.Lock()
	w.profiles = clients.Profiles
	w.mu.Unlock()
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSeen
}

func (w *Workspace) close() {
	for _, cancel := range w.cancels {
		cancel()
	}
}

func (w *Workspace) profileAPI() ports.ProfileClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.profiles
}

func (w *Workspace) observe(kind domain.Kind) func(store.Change) {
	return func(ch store.Change) {
		metrics.StoreMutationsTotal.WithLabelValues(string(kind), string(ch.Op)).Inc()
		w.log.Debug().
			Str("kind", string(kind)).
			Str("op", string(ch.Op)).
			Str("id", ch.ID).
			Int("len", ch.Len).
			Msg("store changed")
	}
}
