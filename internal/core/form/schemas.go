package form

import "github.com/hardwerkerz/werk/internal/core/domain"

// Binding maps a record type to its schema in both directions.
type Binding[T domain.Record] struct {
	Schema Schema
	Values func(T) map[string]string
	Record func(values map[string]string) T
}

// Seed returns a form seeded from rec (edit).
func (b Binding[T]) Seed(rec T) *Form { return New(b.Schema, b.Values(rec)) }

// Empty returns a form with empty seed values (create).
func (b Binding[T]) Empty() *Form { return New(b.Schema, nil) }

func jobStatusOptions() []string {
	out := make([]string, 0, len(domain.JobStatuses))
	for _, s := range domain.JobStatuses {
		out = append(out, string(s))
	}
	return out
}

var EventBinding = Binding[domain.Event]{
	Schema: Schema{Name: "event", Fields: []Field{
		{Name: "name", Label: "Event Name", Kind: Text, Required: true, Placeholder: "Name", MaxLen: 200},
		{Name: "date", Label: "Event Date", Kind: Date, Required: true},
		{Name: "time", Label: "Event Time", Kind: Time, Required: true},
		{Name: "location", Label: "Location", Kind: Text, Required: true, Placeholder: "Location", MaxLen: 200},
		{Name: "description", Label: "Description", Kind: Text, Required: true, Placeholder: "Description", MaxLen: 2000},
	}},
	Values: func(e domain.Event) map[string]string {
		return map[string]string{
			"name":        e.Name,
			"date":        e.Date,
			"time":        e.Time,
			"location":    e.Location,
			"description": e.Description,
		}
	},
	Record: func(v map[string]string) domain.Event {
		return domain.Event{
			Name:        v["name"],
			Date:        v["date"],
			Time:        v["time"],
			Location:    v["location"],
			Description: v["description"],
		}
	},
}

var JobBinding = Binding[domain.Job]{
	Schema: Schema{Name: "job", Fields: []Field{
		{Name: "title", Label: "Job Title", Kind: Text, Required: true, Placeholder: "Title", MaxLen: 200},
		{Name: "company", Label: "Company", Kind: Text, Required: true, Placeholder: "Company", MaxLen: 200},
		{Name: "location", Label: "Location", Kind: Text, Placeholder: "Remote, NYC, ...", MaxLen: 200},
		{Name: "link", Label: "Listing URL", Kind: URL, Placeholder: "https://"},
		{Name: "status", Label: "Status", Kind: Select, Required: true, Options: jobStatusOptions()},
		{Name: "notes", Label: "Notes", Kind: TextArea, MaxLen: 5000},
	}},
	Values: func(j domain.Job) map[string]string {
		return map[string]string{
			"title":    j.Title,
			"company":  j.Company,
			"location": j.Location,
			"link":     j.Link,
			"status":   string(j.Status),
			"notes":    j.Notes,
		}
	},
	Record: func(v map[string]string) domain.Job {
		return domain.Job{
			Title:    v["title"],
			Company:  v["company"],
			Location: v["location"],
			Link:     v["link"],
			Status:   domain.JobStatus(v["status"]),
			Notes:    v["notes"],
		}
	},
}

var ResourceBinding = Binding[domain.Resource]{
	Schema: Schema{Name: "resource", Fields: []Field{
		{Name: "title", Label: "Title", Kind: Text, Required: true, Placeholder: "Title", MaxLen: 200},
		{Name: "link", Label: "Link", Kind: URL, Required: true, Placeholder: "https://"},
		{Name: "category", Label: "Category", Kind: Text, Placeholder: "Course, article, tool", MaxLen: 100},
		{Name: "description", Label: "Description", Kind: TextArea, Required: true, MaxLen: 2000},
	}},
	Values: func(r domain.Resource) map[string]string {
		return map[string]string{
			"title":       r.Title,
			"link":        r.Link,
			"category":    r.Category,
			"description": r.Description,
		}
	},
	Record: func(v map[string]string) domain.Resource {
		return domain.Resource{
			Title:       v["title"],
			Link:        v["link"],
			Category:    v["category"],
			Description: v["description"],
		}
	},
}

var LogBinding = Binding[domain.Log]{
	Schema: Schema{Name: "log", Fields: []Field{
		{Name: "date", Label: "Date", Kind: Date, Required: true},
		{Name: "logEntry", Label: "Log", Kind: TextArea, Required: true, Placeholder: "Add a Log", MaxLen: 5000},
		{Name: "skills", Label: "Skills", Kind: TextArea, Placeholder: "Skills", MaxLen: 1000},
	}},
	Values: func(l domain.Log) map[string]string {
		return map[string]string{"date": l.Date, "logEntry": l.Entry, "skills": l.Skills}
	},
	Record: func(v map[string]string) domain.Log {
		return domain.Log{Date: v["date"], Entry: v["logEntry"], Skills: v["skills"]}
	},
}

var (
	LoginSchema = Schema{Name: "login", Fields: []Field{
		{Name: "email", Label: "Email", Kind: Email, Required: true},
		{Name: "pw", Label: "Password", Kind: Password, Required: true},
	}}

	SignupSchema = Schema{Name: "signup", Fields: []Field{
		{Name: "name", Label: "Name", Kind: Text, Required: true, MaxLen: 100},
		{Name: "email", Label: "Email", Kind: Email, Required: true},
		{Name: "password", Label: "Password", Kind: Password, Required: true, MinLen: 6},
		{Name: "passwordConf", Label: "Confirm Password", Kind: Password, Required: true, EqualTo: "password"},
	}}

	ChangePasswordSchema = Schema{Name: "change-password", Fields: []Field{
		{Name: "pw", Label: "Current Password", Kind: Password, Required: true},
		{Name: "newPw", Label: "New Password", Kind: Password, Required: true, MinLen: 6},
		{Name: "newPwConf", Label: "Confirm New Password", Kind: Password, Required: true, EqualTo: "newPw"},
	}}
)

// Schemas indexes every schema by name for live validation.
var Schemas = map[string]Schema{
	EventBinding.Schema.Name:    EventBinding.Schema,
	JobBinding.Schema.Name:      JobBinding.Schema,
	ResourceBinding.Schema.Name: ResourceBinding.Schema,
	LogBinding.Schema.Name:      LogBinding.Schema,
	LoginSchema.Name:            LoginSchema,
	SignupSchema.Name:           SignupSchema,
	ChangePasswordSchema.Name:   ChangePasswordSchema,
}
