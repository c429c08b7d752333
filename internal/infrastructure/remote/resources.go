package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hardwerkerz/werk/internal/core/domain"
)

// resourceClient serves /api/{resource} for one record type.
type resourceClient[T domain.Record] struct {
	c        *Client
	resource string
}

func (r *resourceClient[T]) base() string { return "/api/" + r.resource }

func (r *resourceClient[T]) item(id string) string { return r.base() + "/" + url.PathEscape(id) }

// List fetches every record owned by the signed-in user, in server order.
func (r *resourceClient[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.c.do(ctx, call{resource: r.resource, op: "list", method: http.MethodGet, path: r.base(), out: &out})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Create submits a new record and returns the stored form with its id.
func (r *resourceClient[T]) Create(ctx context.Context, fields T) (T, error) {
	var out T
	if err := r.c.do(ctx, call{resource: r.resource, op: "create", method: http.MethodPost, path: r.base(), body: fields, out: &out}); err != nil {
		return out, err
	}
	if out.RecordID() == "" {
		var zero T
		return zero, missingID(r.resource + " create")
	}
	return out, nil
}

// Update sends the full replacement fields of record id, cleared ones
// included, and returns the stored record.
func (r *resourceClient[T]) Update(ctx context.Context, id string, fields T) (T, error) {
	var out T
	if err := r.c.do(ctx, call{resource: r.resource, op: "update", method: http.MethodPut, path: r.item(id), body: fields, out: &out}); err != nil {
		return out, err
	}
	if out.RecordID() == "" {
		var zero T
		return zero, missingID(r.resource + " update")
	}
	return out, nil
}

// Remove deletes record id. The deleted record is returned when the API
// sends it back; a 204 yields the zero value.
func (r *resourceClient[T]) Remove(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.do(ctx, call{resource: r.resource, op: "remove", method: http.MethodDelete, path: r.item(id), out: &out})
	return out, err
}
