package domain

// Record is implemented by every entity that lives in a collection store.
// Identifiers are assigned by the remote API and never generated here.
type Record interface {
	RecordID() string
}

// Kind names a collection held by a workspace.
type Kind string

const (
	KindEvents    Kind = "events"
	KindJobs      Kind = "jobs"
	KindResources Kind = "resources"
)
