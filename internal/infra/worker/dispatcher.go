package worker

import (
	"context"

	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/logging"
	"ai-coach-chat/internal/infra/metrics"
)

var _ usecase.ChatJobDispatcher = (*PoolDispatcher)(nil)

// PoolDispatcher runs each dispatched job once on the worker pool.
type PoolDispatcher struct {
	pool      *Pool
	processor usecase.ChatJobProcessor
	dev       bool // log full user ids
	log       *zerolog.Logger
}

func NewPoolDispatcher(pool *Pool, processor usecase.ChatJobProcessor, dev bool, log *zerolog.Logger) *PoolDispatcher {
	l := log.With().Str("component", "dispatcher").Logger()
	return &PoolDispatcher{pool: pool, processor: processor, dev: dev, log: &l}
}

// Dispatch never blocks and never fails the caller. A saturated queue drops
// the job, which stays PENDING until the recovery sweeper re-dispatches it.
func (d *PoolDispatcher) Dispatch(ctx context.Context, jobID, userID string) {
	traceID := logging.TraceIDFrom(ctx)
	err := d.pool.Submit(func(ctx context.Context) error {
		if traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
		}
		ctx = logging.WithJobID(logging.WithUserID(ctx, logging.Redact(userID, d.dev)), jobID)
		return d.processor.Process(ctx, jobID, userID)
	})
	if err != nil {
		metrics.IncDispatch("pool", "dropped")
		logging.With(ctx, d.log).Warn().Err(err).Str("job_id", jobID).Msg("chat job dispatch dropped")
		return
	}
	metrics.IncDispatch("pool", "queued")
}
