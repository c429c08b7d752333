package form

import (
	"fmt"
	"strings"
)

// Kind is the declared input type of a field; it decides the typed check.
type Kind string

const (
	Text     Kind = "text"
	TextArea Kind = "textarea"
	Date     Kind = "date"
	Time     Kind = "time"
	URL      Kind = "url"
	Email    Kind = "email"
	Password Kind = "password"
	Select   Kind = "select"
)

// InputType is the HTML input type used to render the kind. TextArea and
// Select are rendered with their own elements and report "text".
func (k Kind) InputType() string {
	switch k {
	case Date, Time, URL, Email, Password:
		return string(k)
	default:
		return "text"
	}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Field declares one input of a schema.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Required    bool
	Placeholder string
	Options     []string // Select only
	MinLen      int
	MaxLen      int
	EqualTo     string // name of a field this one must repeat
}

// rules builds the validator tag for the field.
func (fd Field) rules() string {
	var tags []string
	if fd.Required {
		tags = append(tags, "required")
	} else {
		tags = append(tags, "omitempty")
	}
	switch fd.Kind {
	case Date:
		tags = append(tags, "datetime="+dateLayout)
	case Time:
		tags = append(tags, "datetime="+timeLayout)
	case URL:
		tags = append(tags, "url")
	case Email:
		tags = append(tags, "email")
	case Select:
		if len(fd.Options) > 0 {
			tags = append(tags, "oneof="+strings.Join(fd.Options, " "))
		}
	}
	if fd.MinLen > 0 {
		tags = append(tags, fmt.Sprintf("min=%d", fd.MinLen))
	}
	if fd.MaxLen > 0 {
		tags = append(tags, fmt.Sprintf("max=%d", fd.MaxLen))
	}
	return strings.Join(tags, ",")
}

// Schema is the ordered field list of one form.
type Schema struct {
	Name   string
	Fields []Field
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, fd := range s.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}
