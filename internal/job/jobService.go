package job

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/metrics"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// ErrQueueFull is returned when the job channel's buffer is exhausted.
var ErrQueueFull = errors.New("job queue is full")

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	Logger            *logger.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		Logger:            logger.New("job-service"),
	}
}

// Enqueue persists the job as queued and hands it to the worker pool.
// The channel send is non-blocking: a full buffer reports ErrQueueFull
// instead of stalling the request.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) error {
	j.Status = jobModel.JobStatusQueued
	j.CurrentStep = jobModel.StepQueued
	j.CreatedTime = time.Now()

	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		return err
	}

	select {
	case s.JobChannel <- j:
		metrics.IncrementJobsInQueue()
	default:
		return ErrQueueFull
	}

	// every N requests, and for every document job, signal the
	// dispatcher to consider growing the pool
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || j.JobType == jobModel.JobTypeDocument {
		select {
		case s.DispatcherChannel <- true:
		default:
		}
	}
	return nil
}
