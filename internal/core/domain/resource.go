package domain

// Resource is a learning resource (course, article, tool) saved by the user.
type Resource struct {
	ID          string `json:"_id,omitempty"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
}

func (r Resource) RecordID() string { return r.ID }
