package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

var _ repository.HealthProfileRepository = (*profileRepo)(nil)

type profileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.HealthProfile, error) {
	const q = `
SELECT user_id, birth_date, height, weight, goal_weight,
       has_diabetes, has_hypertension, has_hyperlipidemia,
       other_disease, goal, activity_level
FROM profiles
WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var p model.HealthProfile
	err = row.Scan(
		&p.UserID, &p.BirthDate, &p.Height, &p.Weight, &p.GoalWeight,
		&p.HasDiabetes, &p.HasHypertension, &p.HasHyperlipidemia,
		&p.OtherDisease, &p.Goal, &p.ActivityLevel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &p, nil
}
