package domain

import "time"

// IngestJob is one durable CSV load job. Payload holds the raw CSV text.
type IngestJob struct {
	ID          string
	Payload     string
	Status      IngestJobStatus
	Attempts    int
	Error       *string
	SubmittedAt time.Time
	UpdatedAt   time.Time
}
