package job

import (
	"context"
	"net/http"
	"os"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/ingest"
	"github.com/ymatsuda/cardforge/internal/pipeline"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// Runner executes one job end to end: resolve pages, run the card
// pipeline, attach the result. It mutates and returns the job so the
// worker can persist each state transition.
type Runner struct {
	Pipeline  *pipeline.Service
	Extractor *ingest.Extractor
	Logger    *logger.Logger
}

func NewRunner(p *pipeline.Service, e *ingest.Extractor) *Runner {
	return &Runner{
		Pipeline:  p,
		Extractor: e,
		Logger:    logger.New("job-runner"),
	}
}

func (r *Runner) Run(ctx context.Context, j jobModel.Job) jobModel.Job {
	pages, j := r.resolvePages(ctx, j)
	if j.Status == jobModel.JobStatusError {
		return j
	}
	if len(pages) == 0 {
		return failJob(j, http.StatusBadRequest, "no extractable text in source", false)
	}

	j.CurrentStep = jobModel.StepPipeline
	result, err := r.Pipeline.ProcessPages(ctx, pages, j.JobPayload.SourceRef)
	if err != nil {
		r.Logger.Error("pipeline failed", "jobId", j.Id, "error", err)
		return failJob(j, http.StatusInternalServerError, "card extraction failed", true)
	}

	j.Result = &jobModel.JobResult{
		Cards:            result.Cards,
		DetectedProblems: result.DetectedProblems,
		TotalPages:       result.TotalPages,
		ProcessingTimeMs: result.ProcessingTimeMs,
	}
	j.Status = jobModel.JobStatusComplete
	j.CurrentStep = jobModel.StepComplete
	return j
}

func (r *Runner) resolvePages(_ context.Context, j jobModel.Job) ([]cards.PageText, jobModel.Job) {
	if j.JobType == jobModel.JobTypeText {
		return j.JobPayload.Pages, j
	}

	j.CurrentStep = jobModel.StepExtracting
	pages, err := r.Extractor.ExtractFile(j.JobPayload.DocumentPath)

	// the upload was staged to disk only for this job
	if rmErr := os.Remove(j.JobPayload.DocumentPath); rmErr != nil {
		r.Logger.Error("failed to remove temp upload", "path", j.JobPayload.DocumentPath, "error", rmErr)
	}

	if err != nil {
		r.Logger.Error("document extraction failed", "jobId", j.Id, "error", err)
		return nil, failJob(j, http.StatusUnprocessableEntity, "could not extract document text", false)
	}
	return pages, j
}

func failJob(j jobModel.Job, code int, message string, retry bool) jobModel.Job {
	j.Status = jobModel.JobStatusError
	j.CurrentStep = jobModel.StepError
	j.Error = jobModel.JobError{Code: code, Message: message, Retry: retry}
	return j
}
