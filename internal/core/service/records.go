package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/metrics"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
	"github.com/hardwerkerz/werk/internal/core/store"
)

// Records pairs one collection store with the API client for the same type.
// Every mutation goes to the API first; the store is changed only after the
// API accepted it.
type Records[T domain.Record] struct {
	kind  domain.Kind
	store *store.Collection[T]
	log   zerolog.Logger

	mu     sync.RWMutex
	client ports.ResourceClient[T]
}

func newRecords[T domain.Record](kind domain.Kind, client ports.ResourceClient[T], log zerolog.Logger) *Records[T] {
	return &Records[T]{
		kind:   kind,
		store:  store.NewCollection[T](),
		client: client,
		log:    log.With().Str("kind", string(kind)).Logger(),
	}
}

// Kind names the record type, e.g. "jobs".
func (r *Records[T]) Kind() domain.Kind { return r.kind }

// Store exposes the underlying collection for reads and subscriptions.
func (r *Records[T]) Store() *store.Collection[T] { return r.store }

// Items returns the cached records in display order.
func (r *Records[T]) Items() []T { return r.store.Items() }

// Get returns the cached record with the given id.
func (r *Records[T]) Get(id string) (T, bool) { return r.store.Get(id) }

// Refresh reloads the whole collection from the API.
func (r *Records[T]) Refresh(ctx context.Context) error {
	items, err := r.api().List(ctx)
	if err != nil {
		return err
	}
	r.store.Refresh(items)
	return nil
}

// Create stores fields on the server and prepends the stored record. A
// record without a server-assigned id is never stored.
func (r *Records[T]) Create(ctx context.Context, fields T) (T, error) {
	created, err := r.api().Create(ctx, fields)
	if err != nil {
		var zero T
		return zero, err
	}
	if created.RecordID() == "" {
		var zero T
		return zero, fmt.Errorf("%s create: stored record has no id: %w", r.kind, domain.ErrNetwork)
	}
	r.store.ApplyCreate(created)
	return created, nil
}

// Update replaces the record on the server, then in the store. A store miss
// after a successful update, or a not-found from the API, means the cache is
// stale and triggers a full refresh.
func (r *Records[T]) Update(ctx context.Context, id string, fields T) (T, error) {
	updated, err := r.api().Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.fallback(ctx, "not_found")
		}
		var zero T
		return zero, err
	}
	if !r.store.ApplyUpdate(updated) {
		r.fallback(ctx, "update_miss")
	}
	return updated, nil
}

// Delete removes the record on the server, then from the store. When the API
// reports the record already gone it is dropped locally, the collection is
// refreshed and the not-found error is still returned.
func (r *Records[T]) Delete(ctx context.Context, id string) error {
	if _, err := r.api().Remove(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.store.ApplyDelete(id)
			r.fallback(ctx, "not_found")
		}
		return err
	}
	r.store.ApplyDelete(id)
	return nil
}

func (r *Records[T]) fallback(ctx context.Context, reason string) {
	metrics.StoreRefreshFallbacksTotal.WithLabelValues(string(r.kind), reason).Inc()
	if err := r.Refresh(ctx); err != nil {
		r.log.Warn().Err(err).Str("reason", reason).Msg("fallback refresh failed")
	}
}

func (r *Records[T]) api() ports.ResourceClient[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

func (r *Records[T]) rebind(client ports.ResourceClient[T]) {
	r.mu.Lock()
	r.client = client
	r.mu.Unlock()
}
