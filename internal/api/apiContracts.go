package api

import (
	"time"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code       int    `json:"code" example:"400"`
	Message    string `json:"message" example:"Job not found"`
	Retry      bool   `json:"can_retry" example:"false"`
	Suggestion string `json:"suggestion,omitempty"`
}

type Result struct {
	Status      string          `json:"status"`
	CurrentStep string          `json:"current_step,omitempty"`
	Pipeline    *PipelineResult `json:"pipeline_result,omitempty"`
}

// PipelineResult is the card pipeline's output for a finished job.
type PipelineResult struct {
	Cards            []cards.Card             `json:"cards"`
	DetectedProblems []cards.CandidateProblem `json:"detected_problems"`
	TotalPages       int                      `json:"total_pages"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type ProcessTextRequest struct {
	SourceRef string      `json:"source_ref" validate:"required"`
	Pages     []PageInput `json:"pages" validate:"required"`
}

type PageInput struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}

type BatchOCRRequest struct {
	SourceRef string       `json:"source_ref,omitempty"`
	Pages     []ImageInput `json:"pages" validate:"required"`
	BatchSize int          `json:"batchSize,omitempty"`
}

type ImageInput struct {
	PageNumber int    `json:"pageNumber"`
	ImageURL   string `json:"imageUrl"`
}

// responses---------------------

type BatchOCRResponse struct {
	Success        bool                  `json:"success"`
	ExtractedPages []cards.ExtractedPage `json:"extractedPages"`
	ProcessedCount int                   `json:"processedCount"`
	SkippedCount   int                   `json:"skippedCount"`
	Message        string                `json:"message,omitempty"`
}

type DualOCRResponse struct {
	Success          bool                 `json:"success"`
	Cards            []cards.Card         `json:"cards"`
	ExtractedText    []cards.AlignedEntry `json:"extractedText"`
	ProcessingTimeMs int64                `json:"processingTimeMs"`
	Message          string               `json:"message,omitempty"`
}

type QuotaResponse struct {
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}
