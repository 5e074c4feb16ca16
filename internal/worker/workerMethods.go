package worker

import (
	"context"
	"time"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/metrics"
)

// jobTimeout bounds a single job. Document extraction plus several LLM
// calls with retries can legitimately take minutes.
const jobTimeout = 5 * time.Minute

func (p *Pool) executeJob(j jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.ObserveJob(string(j.Status), time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TraceIDKey, j.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()

	p.logger.Debug("processing job", "jobId", j.Id, "traceId", j.TraceId)
	p.saveJobState(ctx, j, jobModel.JobStatusRunning)

	j = p.runner.Run(ctx, j)

	j.EndTime = time.Now()
	p.saveJobState(ctx, j, j.Status)
}

func (p *Pool) saveJobState(ctx context.Context, j jobModel.Job, status jobModel.JobStatus) {
	j.Status = status
	if err := p.jobService.JobStore.SaveJob(ctx, j); err != nil {
		p.logger.Error("failed to persist job state", "jobId", j.Id, "error", err)
	}
}
