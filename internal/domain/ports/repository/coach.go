package repository

import (
	"context"
	"time"

	"ai-coach-chat/internal/domain/model"
)

// WeeklyStatsRepository reads per-day diet and exercise totals. Days without
// records are simply absent from the result.
type WeeklyStatsRepository interface {
	DietTotals(ctx context.Context, tx Tx, userID string, from, to time.Time) ([]model.DietDailyStat, error)
	ExerciseTotals(ctx context.Context, tx Tx, userID string, from, to time.Time) ([]model.ExerciseDailyStat, error)
}

type HealthProfileRepository interface {
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.HealthProfile, error)
}
