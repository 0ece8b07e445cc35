package repository

import (
	"context"
	"time"

	"ai-coach-chat/internal/domain/model"
)

type ConversationRepository interface {
	Create(ctx context.Context, tx Tx, c *model.Conversation) error
	// FindByIDAndUser returns domain.ErrNotFound when the conversation does not
	// exist or belongs to someone else.
	FindByIDAndUser(ctx context.Context, tx Tx, id, userID string) (*model.Conversation, error)
	Touch(ctx context.Context, tx Tx, id string, at time.Time) error
}

type ChatMessageRepository interface {
	Create(ctx context.Context, tx Tx, m *model.ChatMessage) error
	// ListByConversation returns messages ordered by creation time, then id.
	ListByConversation(ctx context.Context, tx Tx, conversationID string) ([]*model.ChatMessage, error)
	// FinalizeAssistant moves a PENDING assistant message to COMPLETE or ERROR.
	// It reports false when the message was no longer PENDING.
	FinalizeAssistant(ctx context.Context, tx Tx, id string, status model.ChatMessageStatus, content, errMsg *string, at time.Time) (bool, error)
}

type ChatJobRepository interface {
	Create(ctx context.Context, tx Tx, j *model.ChatJob) error
	FindDetail(ctx context.Context, tx Tx, jobID string) (*model.ChatJobDetail, error)
	FindStatusByIDAndUser(ctx context.Context, tx Tx, jobID, userID string) (*model.ChatJobStatusView, error)
	// Claim starts a processing lease on a PENDING job. It reports false when
	// the job is terminal or another processor holds an unexpired lease.
	Claim(ctx context.Context, tx Tx, jobID string, now time.Time, lease time.Duration) (bool, error)
	// Finalize moves a PENDING job to a terminal status. It reports false when
	// the job was already terminal.
	Finalize(ctx context.Context, tx Tx, jobID string, status model.ChatJobStatus, errMsg *string, at time.Time) (bool, error)
	// ListStale returns PENDING jobs created before unclaimedBefore that were
	// never claimed, plus those whose claim started before claimedBefore.
	ListStale(ctx context.Context, tx Tx, unclaimedBefore, claimedBefore time.Time, limit int) ([]model.ChatJobRef, error)
}

// ChatJobStatusCache keeps terminal job projections close to the API.
type ChatJobStatusCache interface {
	Get(ctx context.Context, userID, jobID string) (*model.ChatJobStatusView, error)
	Set(ctx context.Context, userID string, v *model.ChatJobStatusView) error
}
