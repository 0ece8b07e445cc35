package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

var _ repository.ConversationRepository = (*conversationRepo)(nil)

type conversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *conversationRepo {
	return &conversationRepo{pool: pool}
}

func (r *conversationRepo) Create(ctx context.Context, tx repository.Tx, c *model.Conversation) error {
	const q = `
INSERT INTO ai_chat_conversations (id, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.UserID, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *conversationRepo) FindByIDAndUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.Conversation, error) {
	const q = `
SELECT id, user_id, created_at, updated_at
FROM ai_chat_conversations
WHERE id = $1 AND user_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, id, userID)
	if err != nil {
		return nil, err
	}
	var c model.Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &c, nil
}

func (r *conversationRepo) Touch(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE ai_chat_conversations SET updated_at = $2 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
