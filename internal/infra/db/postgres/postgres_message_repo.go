package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

var _ repository.ChatMessageRepository = (*messageRepo)(nil)

type messageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *messageRepo {
	return &messageRepo{pool: pool}
}

func (r *messageRepo) Create(ctx context.Context, tx repository.Tx, m *model.ChatMessage) error {
	const q = `
INSERT INTO ai_chat_messages (id, conversation_id, role, status, content, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.ConversationID, string(m.Role), string(m.Status), m.Content, m.ErrorMessage, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *messageRepo) ListByConversation(ctx context.Context, tx repository.Tx, conversationID string) ([]*model.ChatMessage, error) {
	const q = `
SELECT id, conversation_id, role, status, content, error_message, created_at, updated_at
FROM ai_chat_messages
WHERE conversation_id = $1
ORDER BY created_at, id;`
	rows, err := queryRows(ctx, r.pool, tx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ChatMessage
	for rows.Next() {
		var (
			m      model.ChatMessage
			role   string
			status string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &status, &m.Content, &m.ErrorMessage, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = model.ChatRole(role)
		m.Status = model.ChatMessageStatus(status)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *messageRepo) FinalizeAssistant(ctx context.Context, tx repository.Tx, id string, status model.ChatMessageStatus, content, errMsg *string, at time.Time) (bool, error) {
	const q = `
UPDATE ai_chat_messages
SET status = $2, content = $3, error_message = $4, updated_at = $5
WHERE id = $1 AND role = 'ASSISTANT' AND status = 'PENDING';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status), content, errMsg, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
