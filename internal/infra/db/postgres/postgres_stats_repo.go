package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

var _ repository.WeeklyStatsRepository = (*statsRepo)(nil)

// statsRepo aggregates per-day diet and exercise totals. Dates are passed as
// calendar days; only the year, month and day of from/to matter.
type statsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *statsRepo {
	return &statsRepo{pool: pool}
}

func (r *statsRepo) DietTotals(ctx context.Context, tx repository.Tx, userID string, from, to time.Time) ([]model.DietDailyStat, error) {
	const q = `
SELECT eaten_on, SUM(carbs), SUM(protein), SUM(fat), SUM(calories)
FROM diet_records
WHERE user_id = $1 AND eaten_on BETWEEN $2 AND $3
GROUP BY eaten_on
ORDER BY eaten_on;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, calendarDay(from), calendarDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DietDailyStat
	for rows.Next() {
		var s model.DietDailyStat
		if err := rows.Scan(&s.Date, &s.Carbs, &s.Protein, &s.Fat, &s.Calories); err != nil {
			return nil, fmt.Errorf("scan diet totals: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *statsRepo) ExerciseTotals(ctx context.Context, tx repository.Tx, userID string, from, to time.Time) ([]model.ExerciseDailyStat, error) {
	const q = `
SELECT performed_on, SUM(minutes), SUM(calories)
FROM exercise_records
WHERE user_id = $1 AND performed_on BETWEEN $2 AND $3
GROUP BY performed_on
ORDER BY performed_on;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, calendarDay(from), calendarDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ExerciseDailyStat
	for rows.Next() {
		var s model.ExerciseDailyStat
		if err := rows.Scan(&s.Date, &s.Minutes, &s.Calories); err != nil {
			return nil, fmt.Errorf("scan exercise totals: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// calendarDay maps t to midnight UTC of the same wall-clock date.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
