package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/config"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/domain/ports/usecase"
	aiAdapters "ai-coach-chat/internal/infra/adapters/ai"
	pg "ai-coach-chat/internal/infra/db/postgres"
	red "ai-coach-chat/internal/infra/redis"
	"ai-coach-chat/internal/infra/worker"
	uc "ai-coach-chat/internal/usecase"
)

// app holds the wired components shared by the serve and jobs commands.
type app struct {
	cfg   *config.Config
	log   *zerolog.Logger
	pool  *pgxpool.Pool
	redis *red.Client // nil when redis.url is empty

	convs repository.ConversationRepository
	msgs  repository.ChatMessageRepository
	jobs  repository.ChatJobRepository
	tm    repository.TransactionManager
	cache repository.ChatJobStatusCache // nil without redis

	processor *worker.ChatJobProcessor
}

func newApp(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*app, error) {
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a := &app{
		cfg:   cfg,
		log:   log,
		pool:  pool,
		convs: pg.NewConversationRepo(pool),
		msgs:  pg.NewMessageRepo(pool),
		jobs:  pg.NewChatJobRepo(pool),
		tm:    pg.NewTxManager(pool),
	}

	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
		a.cache = red.NewJobStatusCache(rc, cfg.Redis.TTL)
	}

	counter, err := aiAdapters.NewTiktokenCounter("cl100k_base")
	if err != nil {
		log.Warn().Err(err).Msg("tiktoken encoding unavailable; counting runes")
	}
	gen, err := aiAdapters.NewFromConfig(ctx, cfg.AI, counter, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	prompts := uc.NewCoachPromptBuilder(uc.CoachPromptConfig{
		Weekdays:           cfg.Coach.Weekdays,
		NotProvided:        cfg.Coach.NotProvided,
		HistoryTokenBudget: cfg.Coach.HistoryTokenBudget,
	}, counter)
	stats := uc.NewStatsUseCase(pg.NewStatsRepo(pool), cfg.Coach.Weekdays, log)
	profiles := uc.NewUserUseCase(pg.NewProfileRepo(pool), log)

	a.processor = worker.NewChatJobProcessor(a.jobs, a.msgs, a.tm, stats, profiles, prompts, gen, worker.ProcessorConfig{
		GenerateTimeout:   cfg.AI.Timeout,
		ClaimLease:        cfg.Recovery.ClaimLease,
		ErrorMessageLimit: cfg.Coach.ErrorMessageLimit,
		FallbackError:     cfg.Coach.FallbackError,
		Location:          cfg.Coach.Location(),
	}, log)
	return a, nil
}

func (a *app) jobQueue() *red.JobQueue {
	return red.NewJobQueue(a.redis, red.JobQueueConfig{
		Key:         a.cfg.Dispatch.QueueKey,
		BlockFor:    a.cfg.Dispatch.BlockFor,
		PushTimeout: a.cfg.Dispatch.PushTimeout,
	}, a.log)
}

// recoveryLocker returns nil without redis; sweeps then run unserialised.
func (a *app) recoveryLocker() worker.Locker {
	if a.redis == nil {
		return nil
	}
	return red.NewLocker(a.redis)
}

func (a *app) sweeper(dispatcher usecase.ChatJobDispatcher) *worker.RecoverySweeper {
	rc := a.cfg.Recovery
	return worker.NewRecoverySweeper(a.jobs, dispatcher, a.recoveryLocker(), worker.RecoveryConfig{
		Schedule:   rc.Cron,
		StaleAfter: rc.StaleAfter,
		ClaimLease: rc.ClaimLease,
		BatchSize:  rc.BatchSize,
		LockKey:    rc.LockKey,
		LockTTL:    rc.LockTTL,
	}, a.log)
}

// ping reports whether the store and, when configured, redis answer.
func (a *app) ping(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.pool.Close()
}
