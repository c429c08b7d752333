package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/api/view"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/form"
	"github.com/hardwerkerz/werk/internal/core/service"
)

const profilePath = "/profile"

// ProfileHandler serves the profile page and its progress log.
type ProfileHandler struct {
	*Base
}

func NewProfileHandler(base *Base) *ProfileHandler {
	return &ProfileHandler{Base: base}
}

// Show handles GET /profile.
func (h *ProfileHandler) Show(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	return h.page(c, ws, http.StatusOK, form.LogBinding.Empty())
}

// AddLog handles POST /profile/logs.
func (h *ProfileHandler) AddLog(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	posted, err := formValues(c, form.LogBinding.Schema)
	if err != nil {
		return err
	}

	f := form.LogBinding.Empty()
	f.ChangeAll(posted)
	show := func(status int, msg string) error {
		f.Fail(msg)
		return h.page(c, ws, status, f)
	}

	err = f.Submit(func(v map[string]string) error {
		_, err := ws.AddLog(c.Request().Context(), form.LogBinding.Record(v))
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		return h.rejected(f, show)
	case err != nil:
		return h.fail(c, err, failure{list: profilePath, form: show})
	}
	return h.redirect(c, profilePath, session.FlashInfo, "Log added.")
}

// DeleteLog handles POST /profile/logs/:id/delete.
func (h *ProfileHandler) DeleteLog(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return h.fail(c, err, failure{})
	}
	if _, err := ws.DeleteLog(c.Request().Context(), id); err != nil {
		return h.fail(c, err, failure{list: profilePath})
	}
	return h.redirect(c, profilePath, session.FlashInfo, "Log deleted.")
}

// page fetches the profile and renders it with the add-log form f.
func (h *ProfileHandler) page(c echo.Context, ws *service.Workspace, status int, f *form.Form) error {
	p, err := ws.Profile(c.Request().Context())
	if err != nil {
		return h.fail(c, err, failure{})
	}

	name := p.Name
	if name == "" {
		name = ws.User().Name
	}
	body := view.ProfileBody{
		Name:  name,
		Photo: p.Photo,
		Logs:  make([]view.Row, 0, len(p.Logs)),
		AddLog: view.FormBody{
			Action: profilePath + "/logs",
			Submit: "Add Log",
			Form:   f,
		},
	}
	for _, l := range p.Logs {
		body.Logs = append(body.Logs, logRow(l))
	}
	return h.render(c, status, "profile", "Profile", body)
}

func logRow(l domain.Log) view.Row {
	r := view.Row{ID: l.ID, Delete: profilePath + "/logs/" + url.PathEscape(l.ID) + "/delete"}
	values := form.LogBinding.Values(l)
	for _, fd := range form.LogBinding.Schema.Fields {
		r.Cells = append(r.Cells, view.Cell{Label: fd.Label, Value: values[fd.Name], Kind: fd.Kind})
	}
	return r
}
