package usecase

import (
	"context"
	"time"

	"ai-coach-chat/internal/domain/model"
)

// ChatJobDispatcher hands a committed job to the background path. It never
// blocks on processing and never reports processing errors.
type ChatJobDispatcher interface {
	Dispatch(ctx context.Context, jobID, userID string)
}

type ChatJobProcessor interface {
	Process(ctx context.Context, jobID, userID string) error
}

type WeeklyStatsProvider interface {
	WeeklyStats(ctx context.Context, userID string, anchor time.Time) (*model.WeeklyStats, error)
}

type HealthProfileProvider interface {
	HealthProfile(ctx context.Context, userID string) (*model.HealthProfile, error)
}
