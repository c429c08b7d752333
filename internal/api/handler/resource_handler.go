package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/form"
	"github.com/hardwerkerz/werk/internal/core/service"
)

// ResourceConfig describes one record type served by a Resource handler.
type ResourceConfig[T domain.Record] struct {
	Noun     string // "Job"
	Plural   string // "Job Board"
	ListPath string // "/jobs"
	NewPath  string // "/addjob"
	NewLabel string
	Empty    string
	// Detail adds a read-only page at ListPath/:id. Without it records are
	// edited and deleted from the list.
	Detail  bool
	Binding form.Binding[T]
	Records func(*service.Workspace) *service.Records[T]
}

// Resource serves the list, detail, create, edit and delete pages of one
// record type.
type Resource[T domain.Record] struct {
	*Base
	cfg ResourceConfig[T]
}

func NewResource[T domain.Record](base *Base, cfg ResourceConfig[T]) *Resource[T] {
	return &Resource[T]{Base: base, cfg: cfg}
}

// Routes registers the pages of the record type behind mw.
func (h *Resource[T]) Routes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET(h.cfg.ListPath, h.List, mw...)
	e.GET(h.cfg.NewPath, h.New, mw...)
	e.POST(h.cfg.NewPath, h.Create, mw...)
	if h.cfg.Detail {
		e.GET(h.cfg.ListPath+"/:id", h.Show, mw...)
	}
	e.GET(h.cfg.ListPath+"/:id/edit", h.Edit, mw...)
	e.POST(h.cfg.ListPath+"/:id/edit", h.Update, mw...)
	e.POST(h.cfg.ListPath+"/:id/delete", h.Delete, mw...)
}

// List handles GET ListPath and renders the store in order.
func (h *Resource[T]) List(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}

	items := h.cfg.Records(ws).Items()
	rows := make([]view.Row, 0, len(items))
	for _, rec := range items {
		rows = append(rows, h.row(rec))
	}
	return h.render(c, http.StatusOK, "list", h.cfg.Plural, view.ListBody{
		Heading:      h.cfg.Plural,
		NewHref:      h.cfg.NewPath,
		NewLabel:     h.cfg.NewLabel,
		Empty:        h.cfg.Empty,
		Rows:         rows,
		InlineDelete: !h.cfg.Detail,
	})
}

// Show handles GET ListPath/:id.
func (h *Resource[T]) Show(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	rec, err := h.lookup(c.Request().Context(), h.cfg.Records(ws), id)
	if err != nil {
		return h.fail(c, err, failure{list: h.cfg.ListPath})
	}
	return h.render(c, http.StatusOK, "detail", h.cfg.Noun, view.DetailBody{
		Heading: h.cfg.Noun,
		Back:    h.cfg.ListPath,
		Row:     h.row(rec),
	})
}

// New handles GET NewPath with an empty form.
func (h *Resource[T]) New(c echo.Context) error {
	return h.showForm(c, http.StatusOK, h.newBody(h.cfg.Binding.Empty()))
}

// Create handles POST NewPath. The created record is prepended to the store
// with the id the API assigned.
func (h *Resource[T]) Create(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	posted, err := formValues(c, h.cfg.Binding.Schema)
	if err != nil {
		return err
	}

	f := h.cfg.Binding.Empty()
	f.ChangeAll(posted)
	show := h.formPage(c, h.newBody(f))

	err = f.Submit(func(v map[string]string) error {
		_, err := h.cfg.Records(ws).Create(c.Request().Context(), h.cfg.Binding.Record(v))
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		return h.rejected(f, show)
	case err != nil:
		return h.fail(c, err, failure{list: h.cfg.ListPath, form: show})
	}
	return h.redirect(c, h.cfg.ListPath, session.FlashInfo, h.cfg.Noun+" added.")
}

// Edit handles GET ListPath/:id/edit with a form seeded from the stored record.
func (h *Resource[T]) Edit(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	rec, err := h.lookup(c.Request().Context(), h.cfg.Records(ws), id)
	if err != nil {
		return h.fail(c, err, failure{list: h.cfg.ListPath})
	}
	return h.showForm(c, http.StatusOK, h.editBody(id, h.cfg.Binding.Seed(rec)))
}

// Update handles POST ListPath/:id/edit.
func (h *Resource[T]) Update(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	records := h.cfg.Records(ws)
	rec, err := h.lookup(c.Request().Context(), records, id)
	if err != nil {
		return h.fail(c, err, failure{list: h.cfg.ListPath})
	}
	posted, err := formValues(c, h.cfg.Binding.Schema)
	if err != nil {
		return err
	}

	f := h.cfg.Binding.Seed(rec)
	f.ChangeAll(posted)
	show := h.formPage(c, h.editBody(id, f))

	err = f.Submit(func(v map[string]string) error {
		_, err := records.Update(c.Request().Context(), id, h.cfg.Binding.Record(v))
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		return h.rejected(f, show)
	case err != nil:
		return h.fail(c, err, failure{list: h.cfg.ListPath, form: show})
	}
	return h.redirect(c, h.cfg.ListPath, session.FlashInfo, h.cfg.Noun+" updated.")
}

// Delete handles POST ListPath/:id/delete and returns to the list.
func (h *Resource[T]) Delete(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	if err := h.cfg.Records(ws).Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err, failure{list: h.cfg.ListPath})
	}
	return h.redirect(c, h.cfg.ListPath, session.FlashInfo, h.cfg.Noun+" deleted.")
}

// lookup finds id in the store. A miss refreshes the collection once before
// reporting ErrNotFound, since another tab may have created the record.
func (h *Resource[T]) lookup(ctx context.Context, records *service.Records[T], id string) (T, error) {
	if rec, ok := records.Get(id); ok {
		return rec, nil
	}
	var zero T
	if err := records.Refresh(ctx); err != nil {
		return zero, err
	}
	if rec, ok := records.Get(id); ok {
		return rec, nil
	}
	return zero, fmt.Errorf("%s %q: %w", records.Kind(), id, domain.ErrNotFound)
}

func (h *Resource[T]) row(rec T) view.Row {
	id := rec.RecordID()
	base := h.cfg.ListPath + "/" + url.PathEscape(id)
	r := view.Row{ID: id, Edit: base + "/edit", Delete: base + "/delete"}
	if h.cfg.Detail {
		r.Href = base
	}

	values := h.cfg.Binding.Values(rec)
	for _, fd := range h.cfg.Binding.Schema.Fields {
		r.Cells = append(r.Cells, view.Cell{Label: fd.Label, Value: values[fd.Name], Kind: fd.Kind})
	}
	return r
}

func (h *Resource[T]) newBody(f *form.Form) view.FormBody {
	return view.FormBody{
		Heading: "New " + h.cfg.Noun,
		Action:  h.cfg.NewPath,
		Submit:  "Submit",
		Cancel:  h.cfg.ListPath,
		Form:    f,
	}
}

func (h *Resource[T]) editBody(id string, f *form.Form) view.FormBody {
	return view.FormBody{
		Heading: "Edit " + h.cfg.Noun,
		Action:  h.cfg.ListPath + "/" + url.PathEscape(id) + "/edit",
		Submit:  "Save",
		Cancel:  h.cfg.ListPath,
		Form:    f,
	}
}

func (h *Resource[T]) showForm(c echo.Context, status int, body view.FormBody) error {
	return h.render(c, status, "form", body.Heading, body)
}

// formPage returns a callback that shows body again with a form-level message.
func (h *Resource[T]) formPage(c echo.Context, body view.FormBody) func(int, string) error {
	return func(status int, msg string) error {
		body.Form.Fail(msg)
		return h.showForm(c, status, body)
	}
}
