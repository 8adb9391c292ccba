package indexing

import "time"

// JobStatus is the lifecycle state of a bulk-index job.
type JobStatus string

// Job statuses.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one asynchronous bulk-index run.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Total     int       `json:"total"`
	Indexed   int       `json:"indexed"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func jobKey(id string) string {
	return "job:" + id
}
