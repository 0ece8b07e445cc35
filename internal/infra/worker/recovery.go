package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/metrics"
)

// Locker serialises sweeps across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type RecoveryConfig struct {
	Schedule   string
	StaleAfter time.Duration
	ClaimLease time.Duration
	BatchSize  int
	LockKey    string
	LockTTL    time.Duration
}

// RecoverySweeper re-dispatches PENDING jobs whose dispatch was lost (crash
// after commit, dropped submission) or whose processor died mid-lease.
type RecoverySweeper struct {
	jobs       repository.ChatJobRepository
	dispatcher usecase.ChatJobDispatcher
	locker     Locker // optional
	cfg        RecoveryConfig
	now        func() time.Time
	log        *zerolog.Logger
	cron       *cron.Cron
}

func NewRecoverySweeper(jobs repository.ChatJobRepository, dispatcher usecase.ChatJobDispatcher, locker Locker, cfg RecoveryConfig, log *zerolog.Logger) *RecoverySweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	l := log.With().Str("component", "recovery_sweeper").Logger()
	return &RecoverySweeper{
		jobs:       jobs,
		dispatcher: dispatcher,
		locker:     locker,
		cfg:        cfg,
		now:        time.Now,
		log:        &l,
	}
}

// Sweep re-dispatches one batch of stale jobs and returns how many it sent.
func (s *RecoverySweeper) Sweep(ctx context.Context) (int, error) {
	if s.locker != nil {
		token, err := s.locker.TryLock(ctx, s.cfg.LockKey, s.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockNotAcquired) {
				s.log.Debug().Msg("another replica is sweeping")
				return 0, nil
			}
			return 0, fmt.Errorf("recovery lock: %w", err)
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), s.cfg.LockKey, token); err != nil {
				s.log.Warn().Err(err).Msg("recovery unlock failed")
			}
		}()
	}

	now := s.now()
	refs, err := s.jobs.ListStale(ctx, nil, now.Add(-s.cfg.StaleAfter), now.Add(-s.cfg.ClaimLease), s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale chat jobs: %w", err)
	}
	for _, ref := range refs {
		s.dispatcher.Dispatch(ctx, ref.JobID, ref.UserID)
	}
	if len(refs) > 0 {
		metrics.AddRecovered(len(refs))
		s.log.Info().Int("count", len(refs)).Msg("re-dispatched stale chat jobs")
	}
	return len(refs), nil
}

// Start schedules Sweep on the configured cron spec. Runs use ctx.
func (s *RecoverySweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error().Err(err).Msg("recovery sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("recovery schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron = c
	c.Start()
	s.log.Info().Str("schedule", s.cfg.Schedule).Msg("recovery sweeper started")
	return nil
}

// Stop halts scheduling and waits for a running sweep.
func (s *RecoverySweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
