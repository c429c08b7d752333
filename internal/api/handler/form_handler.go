package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hardwerkerz/werk/internal/core/form"
)

// FormHandler re-validates a form while the user types so the page can
// toggle its submit control.
type FormHandler struct {
	schemas map[string]form.Schema
}

func NewFormHandler(schemas map[string]form.Schema) *FormHandler {
	return &FormHandler{schemas: schemas}
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Validate handles POST /forms/:schema/validate.
func (h *FormHandler) Validate(c echo.Context) error {
	schema, ok := h.schemas[c.Param("schema")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown form")
	}
	posted, err := formValues(c, schema)
	if err != nil {
		return err
	}

	f := form.New(schema, posted)
	return c.JSON(http.StatusOK, validateResponse{Valid: f.Valid(), Errors: f.Errors()})
}
