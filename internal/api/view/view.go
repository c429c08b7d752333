// Package view renders the HTML pages of the werk web client.
//
// Templates are embedded in the binary. Every page is parsed together with
// templates/layout.html and executed through the "layout" template, which
// calls the page's "content" block.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/api/session"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/form"
)

//go:embed templates/*.html
var files embed.FS

// Pages lists every page template.
var Pages = []string{"home", "form", "list", "detail", "profile", "error"}

// Page is the data every template receives.
type Page struct {
	Title   string
	User    *domain.User
	CSRF    string
	Flashes []session.Flash
	Body    any
}

// FormBody renders a form page or an embedded form.
type FormBody struct {
	Heading string
	Action  string
	Submit  string
	Cancel  string
	Form    *form.Form
}

// Row is one record rendered from its form schema.
type Row struct {
	ID     string
	Href   string // detail page, empty when the type has none
	Edit   string
	Delete string
	Cells  []Cell
}

// Cell is one labelled value of a Row.
type Cell struct {
	Label string
	Value string
	Kind  form.Kind
}

// ListBody renders a record list.
type ListBody struct {
	Heading  string
	NewHref  string
	NewLabel string
	Empty    string
	Rows     []Row
	// InlineDelete renders a delete button on each row.
	InlineDelete bool
}

// DetailBody renders a single record.
type DetailBody struct {
	Heading string
	Back    string
	Row     Row
}

// ProfileBody renders the profile page.
type ProfileBody struct {
	Name   string
	Photo  string
	Logs   []Row
	AddLog FormBody
}

// ErrorBody renders the error page.
type ErrorBody struct {
	Status  int
	Message string
}

// Renderer implements echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

// formView is what the "formbody" template receives.
type formView struct {
	CSRF string
	FormBody
}

var funcs = template.FuncMap{
	"withCSRF": func(csrf string, body FormBody) formView {
		return formView{CSRF: csrf, FormBody: body}
	},
	"nl2br": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
	},
}

// New parses every page once.
func New() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}
	for _, name := range Pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(files, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the page into a buffer first so a failing template never
// sends half a page.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
