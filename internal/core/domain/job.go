package domain

// JobStatus tracks where an application stands.
type JobStatus string

const (
	JobInterested   JobStatus = "interested"
	JobApplied      JobStatus = "applied"
	JobInterviewing JobStatus = "interviewing"
	JobOffer        JobStatus = "offer"
	JobRejected     JobStatus = "rejected"
)

// JobStatuses lists every status in pipeline order.
var JobStatuses = []JobStatus{JobInterested, JobApplied, JobInterviewing, JobOffer, JobRejected}

// Job is a listing the user is tracking.
type Job struct {
	ID       string    `json:"_id,omitempty"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location"`
	Link     string    `json:"link"`
	Status   JobStatus `json:"status"`
	Notes    string    `json:"notes"`
	Owner    string    `json:"owner,omitempty"`
}

func (j Job) RecordID() string { return j.ID }
