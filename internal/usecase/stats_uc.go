package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/logging"
)

// Compile-time check
var _ usecase.WeeklyStatsProvider = (*statsUC)(nil)

type statsUC struct {
	stats    repository.WeeklyStatsRepository
	weekdays [7]string // Monday first
	log      *zerolog.Logger
}

func NewStatsUseCase(stats repository.WeeklyStatsRepository, weekdays [7]string, logger *zerolog.Logger) *statsUC {
	return &statsUC{stats: stats, weekdays: weekdays, log: logger}
}

// WeeklyStats returns Monday..Sunday of the week containing anchor, one entry
// per day, zero-filled where nothing was recorded.
func (s *statsUC) WeeklyStats(ctx context.Context, userID string, anchor time.Time) (*model.WeeklyStats, error) {
	defer logging.TraceDuration(s.log, "StatsUC.WeeklyStats")()

	start := WeekStart(anchor)
	end := start.AddDate(0, 0, 6)

	diet, err := s.stats.DietTotals(ctx, nil, userID, start, end)
	if err != nil {
		return nil, err
	}
	exercise, err := s.stats.ExerciseTotals(ctx, nil, userID, start, end)
	if err != nil {
		return nil, err
	}

	dietByDay := make(map[string]model.DietDailyStat, len(diet))
	for _, d := range diet {
		dietByDay[dayKey(d.Date)] = d
	}
	exByDay := make(map[string]model.ExerciseDailyStat, len(exercise))
	for _, e := range exercise {
		exByDay[dayKey(e.Date)] = e
	}

	out := &model.WeeklyStats{
		WeekStart:     start,
		WeekEnd:       end,
		DietStats:     make([]model.DietDailyStat, 0, 7),
		ExerciseStats: make([]model.ExerciseDailyStat, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		name := s.weekdays[i]

		d := dietByDay[dayKey(day)]
		d.Date, d.Weekday = day, name
		out.DietStats = append(out.DietStats, d)

		e := exByDay[dayKey(day)]
		e.Date, e.Weekday = day, name
		out.ExerciseStats = append(out.ExerciseStats, e)
	}
	return out, nil
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }
