package domain

// Event is a networking event the user plans to attend.
type Event struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
}

func (e Event) RecordID() string { return e.ID }
