package domain

type IngestJobStatus string

const (
	IngestJobStatusQueued     IngestJobStatus = "queued"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusDone       IngestJobStatus = "done"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)
