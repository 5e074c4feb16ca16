package jobModel

import (
	"context"
	"time"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "ERROR"

	StepQueued     InternalStatus = "Queued"
	StepExtracting InternalStatus = "ExtractingPages"
	StepPipeline   InternalStatus = "RunningPipeline"
	StepComplete   InternalStatus = "Complete"
	StepError      InternalStatus = "Error"

	JobTypeText     JobType = "Text"
	JobTypeDocument JobType = "Document"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Result      *JobResult     `json:"result,omitempty"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	SourceRef string `json:"source_ref,omitempty"`

	// text jobs carry their pages inline
	Pages []cards.PageText `json:"pages,omitempty"`

	// document jobs carry a temp upload on disk
	DocumentName string `json:"document_name,omitempty"`
	DocumentPath string `json:"document_path,omitempty"`
}

// JobResult is the pipeline output attached to a completed job.
type JobResult struct {
	Cards            []cards.Card             `json:"cards"`
	DetectedProblems []cards.CandidateProblem `json:"detected_problems"`
	TotalPages       int                      `json:"total_pages"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
