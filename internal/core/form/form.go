// Package form implements the editable-record state machine shared by every
// create and edit page: {fields, valid}, re-validated after each change.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is returned by Submit when at least one field fails validation.
var ErrInvalid = errors.New("form is not valid")

// validate is shared; validator.Validate caches rules and is safe for
// concurrent use.
var validate = validator.New()

// Form holds the current field values of one record being edited.
type Form struct {
	schema  Schema
	values  map[string]string
	errors  map[string]string
	valid   bool
	failure string
}

// New seeds a form from seed (an existing record for edits, nil for creates)
// and validates it once, the same way a freshly mounted page does.
func New(schema Schema, seed map[string]string) *Form {
	f := &Form{
		schema: schema,
		values: make(map[string]string, len(schema.Fields)),
	}
	for _, fd := range schema.Fields {
		f.values[fd.Name] = seed[fd.Name]
	}
	f.Validate()
	return f
}

// Change merges a single field and re-validates. Unknown fields are ignored
// and reported as false.
func (f *Form) Change(name, value string) bool {
	if _, ok := f.schema.Field(name); !ok {
		return false
	}
	f.values[name] = value
	f.Validate()
	return true
}

// ChangeAll applies every schema field present in in, leaving the others
// untouched.
func (f *Form) ChangeAll(in map[string]string) {
	for _, fd := range f.schema.Fields {
		if v, ok := in[fd.Name]; ok {
			f.values[fd.Name] = v
		}
	}
	f.Validate()
}

// Validate recomputes validity from the declared field constraints.
func (f *Form) Validate() bool {
	f.errors = make(map[string]string)
	for _, fd := range f.schema.Fields {
		value := f.values[fd.Name]
		if fd.Kind != Password {
			value = strings.TrimSpace(value)
		}
		if err := validate.Var(value, fd.rules()); err != nil {
			f.errors[fd.Name] = fieldError(fd, err)
			continue
		}
		if fd.EqualTo != "" && f.values[fd.Name] != f.values[fd.EqualTo] {
			other, _ := f.schema.Field(fd.EqualTo)
			f.errors[fd.Name] = fd.Label + " must match " + other.Label
		}
	}
	f.valid = len(f.errors) == 0
	return f.valid
}

// Submit calls fn with the current values when the form is valid.
func (f *Form) Submit(fn func(values map[string]string) error) error {
	if !f.valid {
		return ErrInvalid
	}
	return fn(f.Values())
}

func (f *Form) Valid() bool { return f.valid }

func (f *Form) Schema() Schema { return f.schema }

// Value returns the trimmed value of a field. Passwords are returned as typed.
func (f *Form) Value(name string) string {
	fd, _ := f.schema.Field(name)
	if fd.Kind == Password {
		return f.values[name]
	}
	return strings.TrimSpace(f.values[name])
}

// Values returns a copy of all field values, trimmed like Value.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for name := range f.values {
		out[name] = f.Value(name)
	}
	return out
}

// Errors returns field name -> message for every failing field.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// ClearSecrets empties every password field and re-validates. Passwords are
// never echoed back, so a re-rendered form must not look submittable. A
// cleared field keeps the message it had before, not "is required".
func (f *Form) ClearSecrets() {
	before := f.errors
	var cleared []string
	for _, fd := range f.schema.Fields {
		if fd.Kind == Password && f.values[fd.Name] != "" {
			f.values[fd.Name] = ""
			cleared = append(cleared, fd.Name)
		}
	}
	if len(cleared) == 0 {
		return
	}
	f.Validate()
	for _, name := range cleared {
		if msg, ok := before[name]; ok {
			f.errors[name] = msg
		} else {
			delete(f.errors, name)
		}
	}
}

// Fail records a form-level message, such as a rejection from the API.
func (f *Form) Fail(msg string) { f.failure = msg }

func (f *Form) Failure() string { return f.failure }

// FieldState is the render model of one input.
type FieldState struct {
	Field
	Value string
	Error string
}

// Fields returns the render model in schema order.
func (f *Form) Fields() []FieldState {
	out := make([]FieldState, 0, len(f.schema.Fields))
	for _, fd := range f.schema.Fields {
		out = append(out, FieldState{Field: fd, Value: f.values[fd.Name], Error: f.errors[fd.Name]})
	}
	return out
}

// fieldError converts a validator failure into a human-readable message.
func fieldError(fd Field, err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return fd.Label + " is invalid"
	}
	fe := ve[0]
	if fe.Tag() == "datetime" {
		if fd.Kind == Time {
			return fd.Label + " must be a time (HH:MM)"
		}
		return fd.Label + " must be a date (YYYY-MM-DD)"
	}
	return Message(fd.Label, fe)
}

// Message describes a single validator failure of the field called label.
// It is shared by the form fields and echo request binding.
func Message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "printascii":
		return label + " must be printable ASCII"
	case "url":
		return label + " must be a valid URL"
	case "email":
		return label + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", label, fe.Tag())
	}
}
