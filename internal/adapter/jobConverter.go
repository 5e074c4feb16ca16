package adapter

import (
	"fmt"
	"time"

	"github.com/ymatsuda/cardforge/internal/api"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/quota"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("jobs/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		Pipeline:    toPipelineResult(job.Result),
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func toPipelineResult(r *jobModel.JobResult) *api.PipelineResult {
	if r == nil {
		return nil
	}
	return &api.PipelineResult{
		Cards:            r.Cards,
		DetectedProblems: r.DetectedProblems,
		TotalPages:       r.TotalPages,
		ProcessingTimeMs: r.ProcessingTimeMs,
	}
}

func ToQuotaResponse(s quota.Status) api.QuotaResponse {
	return api.QuotaResponse{
		Used:      s.Used,
		Remaining: s.Remaining,
		Limit:     s.Limit,
		ResetAt:   s.ResetAt,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

// QuotaDenied carries the gate's suggestion so callers know when to
// come back.
func QuotaDenied(decision quota.Decision, code int) api.JobResponse {
	return api.JobResponse{
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:       code,
			Message:    decision.Message,
			Retry:      true,
			Suggestion: decision.Suggestion,
		},
	}
}
