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

var _ repository.ChatJobRepository = (*chatJobRepo)(nil)

type chatJobRepo struct {
	pool *pgxpool.Pool
}

func NewChatJobRepo(pool *pgxpool.Pool) *chatJobRepo {
	return &chatJobRepo{pool: pool}
}

func (r *chatJobRepo) Create(ctx context.Context, tx repository.Tx, j *model.ChatJob) error {
	const q = `
INSERT INTO ai_chat_jobs (id, conversation_id, user_message_id, assistant_message_id, status, error_message, attempts, claimed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err := execSQL(ctx, r.pool, tx, q,
		j.ID, j.ConversationID, j.UserMessageID, j.AssistantMessageID, string(j.Status),
		j.ErrorMessage, j.Attempts, j.ClaimedAt, j.CreatedAt, j.UpdatedAt)
	return err
}

func (r *chatJobRepo) FindDetail(ctx context.Context, tx repository.Tx, jobID string) (*model.ChatJobDetail, error) {
	const q = `
SELECT j.id, j.conversation_id, j.user_message_id, j.assistant_message_id, c.user_id, j.status, COALESCE(um.content, ''), um.created_at
FROM ai_chat_jobs j
JOIN ai_chat_conversations c ON c.id = j.conversation_id
JOIN ai_chat_messages um ON um.id = j.user_message_id
WHERE j.id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}
	var (
		d      model.ChatJobDetail
		status string
	)
	if err := row.Scan(&d.JobID, &d.ConversationID, &d.UserMessageID, &d.AssistantMessageID, &d.UserID, &status, &d.Question, &d.QuestionAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	d.Status = model.ChatJobStatus(status)
	return &d, nil
}

func (r *chatJobRepo) FindStatusByIDAndUser(ctx context.Context, tx repository.Tx, jobID, userID string) (*model.ChatJobStatusView, error) {
	const q = `
SELECT j.conversation_id, j.id, j.assistant_message_id, j.status, am.status, am.content, j.error_message, am.error_message
FROM ai_chat_jobs j
JOIN ai_chat_conversations c ON c.id = j.conversation_id
JOIN ai_chat_messages am ON am.id = j.assistant_message_id
WHERE j.id = $1 AND c.user_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID, userID)
	if err != nil {
		return nil, err
	}
	var (
		v         model.ChatJobStatusView
		jobStatus string
		msgStatus string
	)
	if err := row.Scan(&v.ConversationID, &v.JobID, &v.AssistantMessageID, &jobStatus, &msgStatus, &v.Content, &v.JobError, &v.AssistantError); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	v.JobStatus = model.ChatJobStatus(jobStatus)
	v.AssistantStatus = model.ChatMessageStatus(msgStatus)
	return &v, nil
}

func (r *chatJobRepo) Claim(ctx context.Context, tx repository.Tx, jobID string, now time.Time, lease time.Duration) (bool, error) {
	const q = `
UPDATE ai_chat_jobs
SET claimed_at = $2, attempts = attempts + 1, updated_at = $2
WHERE id = $1 AND status = 'PENDING' AND (claimed_at IS NULL OR claimed_at < $3);`
	tag, err := execSQL(ctx, r.pool, tx, q, jobID, now, now.Add(-lease))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *chatJobRepo) Finalize(ctx context.Context, tx repository.Tx, jobID string, status model.ChatJobStatus, errMsg *string, at time.Time) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("finalize with %s: %w", status, domain.ErrInvalidArgument)
	}
	const q = `
UPDATE ai_chat_jobs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND status = 'PENDING';`
	tag, err := execSQL(ctx, r.pool, tx, q, jobID, string(status), errMsg, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *chatJobRepo) ListStale(ctx context.Context, tx repository.Tx, unclaimedBefore, claimedBefore time.Time, limit int) ([]model.ChatJobRef, error) {
	const q = `
SELECT j.id, c.user_id
FROM ai_chat_jobs j
JOIN ai_chat_conversations c ON c.id = j.conversation_id
WHERE j.status = 'PENDING'
  AND ((j.claimed_at IS NULL AND j.created_at < $1) OR j.claimed_at < $2)
ORDER BY j.created_at
LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, unclaimedBefore, claimedBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatJobRef
	for rows.Next() {
		var ref model.ChatJobRef
		if err := rows.Scan(&ref.JobID, &ref.UserID); err != nil {
			return nil, fmt.Errorf("scan stale job: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
