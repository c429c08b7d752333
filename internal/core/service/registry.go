package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/hardwerkerz/werk/internal/api/metrics"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
)

const (
	defaultIdleTimeout = 2 * time.Hour
	// loadTimeout bounds the shared initial load, which outlives the request
	// that started it.
	loadTimeout = 30 * time.Second
)

// WorkspaceRegistry owns the in-memory workspaces, one per session id.
// A workspace is built and loaded the first time a session is seen; later
// requests reuse it until sign-out or idle eviction.
type WorkspaceRegistry struct {
	factory ports.ClientFactory
	clock   clockwork.Clock
	idle    time.Duration
	log     zerolog.Logger

	mu    sync.Mutex
	items map[string]*Workspace

	loadGroup singleflight.Group
}

// NewWorkspaceRegistry creates a registry. idle <= 0 selects the default.
func NewWorkspaceRegistry(factory ports.ClientFactory, clock clockwork.Clock, idle time.Duration, log zerolog.Logger) *WorkspaceRegistry {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &WorkspaceRegistry{
		factory: factory,
		clock:   clock,
		idle:    idle,
		log:     log,
		items:   make(map[string]*Workspace),
	}
}

// Open returns the loaded workspace for s, creating and loading it on first
// use. Concurrent first requests for the same session share one load, which
// keeps running if the request that started it is cancelled. A failed load
// leaves the workspace unloaded so the next request retries.
func (r *WorkspaceRegistry) Open(ctx context.Context, s *domain.Session) (*Workspace, error) {
	ws := r.getOrCreate(s)
	ws.touch(r.clock.Now())
	if ws.Loaded() {
		return ws, nil
	}

	_, err, _ := r.loadGroup.Do(s.ID, func() (any, error) {
		if ws.Loaded() {
			return nil, nil
		}
		// Other requests may be waiting on this load, so it must not end
		// when the first caller goes away.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return nil, ws.Load(loadCtx)
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Rebind points an existing workspace at a new token. Unknown ids are ignored.
func (r *WorkspaceRegistry) Rebind(sessionID, token string) {
	r.mu.Lock()
	ws, ok := r.items[sessionID]
	r.mu.Unlock()
	if ok {
		ws.rebind(r.factory.ForToken(token))
	}
}

// Drop discards the workspace of a session.
func (r *WorkspaceRegistry) Drop(sessionID string) {
	r.mu.Lock()
	ws, ok := r.items[sessionID]
	delete(r.items, sessionID)
	n := len(r.items)
	r.mu.Unlock()

	if ok {
		ws.close()
		metrics.ActiveWorkspaces.Set(float64(n))
	}
}

// Len returns the number of live workspaces.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep drops workspaces that have not been opened within the idle timeout
// and returns how many were dropped.
func (r *WorkspaceRegistry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.idle)

	r.mu.Lock()
	var stale []*Workspace
	for id, ws := range r.items {
		if ws.idleSince().Before(cutoff) {
			stale = append(stale, ws)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, ws := range stale {
		ws.close()
	}
	if len(stale) > 0 {
		metrics.ActiveWorkspaces.Set(float64(n))
		r.log.Info().Int("evicted", len(stale)).Int("remaining", n).Msg("idle workspaces evicted")
	}
	return len(stale)
}

// Run sweeps idle workspaces every interval until ctx is cancelled.
func (r *WorkspaceRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Sweep()
		}
	}
}

func (r *WorkspaceRegistry) getOrCreate(s *domain.Session) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.items[s.ID]; ok {
		return ws
	}
	ws := newWorkspace(s.User, r.factory.ForToken(s.Token), r.log)
	r.items[s.ID] = ws
	metrics.ActiveWorkspaces.Set(float64(len(r.items)))
	return ws
}
