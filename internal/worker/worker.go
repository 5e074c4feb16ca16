package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/job"
	"github.com/ymatsuda/cardforge/internal/metrics"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// JobRunner executes one job and returns it with status and result set.
type JobRunner interface {
	Run(ctx context.Context, j jobModel.Job) jobModel.Job
}

// Pool grows from one worker up to MaxWorkerCount on dispatcher
// signals and shrinks again as workers idle out.
type Pool struct {
	jobService *job.Service
	runner     JobRunner

	stopChannel chan bool
	waitGroup   *sync.WaitGroup

	currentWorkerCount int64
	logger             *logger.Logger
}

func NewPool(jobService *job.Service, runner JobRunner, stopChannel chan bool, waitGroup *sync.WaitGroup) *Pool {
	return &Pool{
		jobService:  jobService,
		runner:      runner,
		stopChannel: stopChannel,
		waitGroup:   waitGroup,
		logger:      logger.New("worker-pool"),
	}
}

// Start brings up the first worker and the dispatcher loop.
func (p *Pool) Start() {
	p.logger.Info("initializing worker pool")
	go p.dispatcher()
}

func (p *Pool) dispatcher() {
	p.createWorker()
	p.logger.Info("dispatcher started")
	for range p.jobService.DispatcherChannel {
		if atomic.LoadInt64(&p.currentWorkerCount) < config.MaxWorkerCount {
			p.logger.Info("creating new worker", "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
			p.createWorker()
		}
	}
}

func (p *Pool) createWorker() {
	p.waitGroup.Add(1)
	go p.worker()
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
}

func (p *Pool) worker() {
	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			p.executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-p.stopChannel:
			p.removeWorker("stop signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// idle workers retire, but never below the floor
			if atomic.LoadInt64(&p.currentWorkerCount) > config.MinWorkerCount {
				p.removeWorker("idle timeout")
				return
			}
		}
	}
}

func (p *Pool) removeWorker(reason string) {
	p.waitGroup.Done()
	atomic.AddInt64(&p.currentWorkerCount, -1)
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
}
