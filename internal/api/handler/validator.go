package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hardwerkerz/werk/internal/core/form"
)

// requestValidator lets echo validate bound request structs such as path
// parameters. Messages match the ones shown next to form fields.
type requestValidator struct {
	v *validator.Validate
}

func NewValidator() *requestValidator {
	return &requestValidator{v: validator.New()}
}

// Validate satisfies echo.Validator. All failing fields are reported, joined
// with "; ".
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, form.Message(strings.ToLower(fe.Field()), fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}
