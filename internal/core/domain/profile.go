package domain

// Profile holds the user's photo and progress log.
type Profile struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
	Logs  []Log  `json:"myLogs"`
}

// Log is a single progress entry on a profile.
type Log struct {
	ID      string `json:"_id,omitempty"`
	Date    string `json:"date"`
	Entry   string `json:"logEntry"`
	Skills  string `json:"skills"`
	Profile string `json:"profile,omitempty"`
}

func (l Log) RecordID() string { return l.ID }
