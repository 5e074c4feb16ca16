package store

import (
	"context"
	"encoding/json"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/data/redisStore"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// RedisJobStore persists jobs with a TTL so finished jobs age out on
// their own.
type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger.Logger
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger.New("job-store"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, job.Id, data, config.RedisJobStoreTTL)
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	val, err := s.store.Get(ctx, jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		s.logger.Error("failed to read job", "jobId", jobId, "error", err)
		return job, false
	}

	if err := json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.Error("stored job is corrupt", "jobId", jobId, "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobID); err != nil {
		s.logger.Error("failed to delete job", "jobId", jobID, "error", err)
	}
}
