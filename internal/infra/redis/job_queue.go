package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/logging"
	"ai-coach-chat/internal/infra/metrics"
)

var _ usecase.ChatJobDispatcher = (*JobQueue)(nil)

type JobQueueConfig struct {
	Key         string
	BlockFor    time.Duration
	PushTimeout time.Duration
}

// JobQueue hands chat jobs between replicas over a Redis list. Producers
// LPUSH, consumers BRPOP and pass each item to a local dispatcher.
type JobQueue struct {
	cli *redis.Client
	cfg JobQueueConfig
	log *zerolog.Logger
}

type queuedJob struct {
	JobID   string `json:"job_id"`
	UserID  string `json:"user_id"`
	TraceID string `json:"trace_id,omitempty"`
}

func NewJobQueue(c *Client, cfg JobQueueConfig, log *zerolog.Logger) *JobQueue {
	if cfg.Key == "" {
		cfg.Key = "chat_jobs:queue"
	}
	if cfg.BlockFor <= 0 {
		cfg.BlockFor = 5 * time.Second
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 2 * time.Second
	}
	l := log.With().Str("component", "job_queue").Logger()
	return &JobQueue{cli: c.cli, cfg: cfg, log: &l}
}

// Dispatch enqueues the job. It outlives the caller's cancellation; a failed
// push is logged and the job waits for the recovery sweeper.
func (q *JobQueue) Dispatch(ctx context.Context, jobID, userID string) {
	data, err := json.Marshal(queuedJob{JobID: jobID, UserID: userID, TraceID: logging.TraceIDFrom(ctx)})
	if err != nil {
		metrics.IncDispatch("redis", "error")
		return
	}
	pctx, cancel := context.WithTimeout(logging.Detach(ctx), q.cfg.PushTimeout)
	defer cancel()
	if err := q.cli.LPush(pctx, q.cfg.Key, data).Err(); err != nil {
		metrics.IncDispatch("redis", "error")
		logging.With(ctx, q.log).Warn().Err(err).Str("job_id", jobID).Msg("chat job enqueue failed")
		return
	}
	metrics.IncDispatch("redis", "queued")
}

// Consume runs n consumers until ctx is done, passing every dequeued job to
// local.
func (q *JobQueue) Consume(ctx context.Context, n int, local usecase.ChatJobDispatcher) {
	if n <= 0 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.consumeLoop(ctx, id, local)
		}(i)
	}
	wg.Wait()
}

func (q *JobQueue) consumeLoop(ctx context.Context, id int, local usecase.ChatJobDispatcher) {
	log := q.log.With().Int("consumer", id).Logger()
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := q.cli.BRPop(ctx, q.cfg.BlockFor, q.cfg.Key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		item, err := decodeQueuedJob(res[1])
		if err != nil {
			log.Error().Err(err).Msg("discarding malformed queue item")
			continue
		}
		jctx := ctx
		if item.TraceID != "" {
			jctx = logging.WithTraceID(ctx, item.TraceID)
		}
		local.Dispatch(jctx, item.JobID, item.UserID)
	}
}

func decodeQueuedJob(raw string) (queuedJob, error) {
	var item queuedJob
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return item, fmt.Errorf("decode queued job: %w", err)
	}
	if item.JobID == "" || item.UserID == "" {
		return item, fmt.Errorf("queued job missing ids: %q", raw)
	}
	return item, nil
}
