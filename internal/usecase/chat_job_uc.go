package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/logging"
)

// Compile-time check
var _ ChatJobUseCase = (*chatJobUC)(nil)

// ChatJobUseCase accepts questions and schedules their answers.
type ChatJobUseCase interface {
	// CreateJob stores the question and a pending answer, then dispatches the
	// job once the transaction has committed. conversationID may be nil to
	// start a new conversation.
	CreateJob(ctx context.Context, userID, question string, conversationID *string) (*model.ChatJobHandle, error)
}

type chatJobUC struct {
	convs      repository.ConversationRepository
	msgs       repository.ChatMessageRepository
	jobs       repository.ChatJobRepository
	tm         repository.TransactionManager
	dispatcher usecase.ChatJobDispatcher
	now        func() time.Time
	log        *zerolog.Logger
}

func NewChatJobUseCase(
	convs repository.ConversationRepository,
	msgs repository.ChatMessageRepository,
	jobs repository.ChatJobRepository,
	tm repository.TransactionManager,
	dispatcher usecase.ChatJobDispatcher,
	logger *zerolog.Logger,
) *chatJobUC {
	return &chatJobUC{
		convs:      convs,
		msgs:       msgs,
		jobs:       jobs,
		tm:         tm,
		dispatcher: dispatcher,
		now:        time.Now,
		log:        logger,
	}
}

func (c *chatJobUC) CreateJob(ctx context.Context, userID, question string, conversationID *string) (*model.ChatJobHandle, error) {
	defer logging.TraceDuration(c.log, "ChatJobUC.CreateJob")()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrInvalidQuestion
	}

	var handle *model.ChatJobHandle
	err := c.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := c.now()

		conv, err := c.resolveConversation(ctx, tx, userID, conversationID, now)
		if err != nil {
			return err
		}

		userMsg := model.NewUserMessage(conv.ID, question, now)
		if err := c.msgs.Create(ctx, tx, userMsg); err != nil {
			return err
		}
		// Keep the answer strictly after the question in (created_at, id) order.
		pending := model.NewPendingAssistantMessage(conv.ID, now.Add(time.Microsecond))
		if err := c.msgs.Create(ctx, tx, pending); err != nil {
			return err
		}
		job := model.NewChatJob(conv.ID, userMsg.ID, pending.ID, now)
		if err := c.jobs.Create(ctx, tx, job); err != nil {
			return err
		}
		if err := c.convs.Touch(ctx, tx, conv.ID, now); err != nil {
			return err
		}

		repository.AfterCommit(ctx, func(ctx context.Context) {
			c.dispatcher.Dispatch(ctx, job.ID, userID)
		})

		handle = &model.ChatJobHandle{
			ConversationID:     conv.ID,
			JobID:              job.ID,
			AssistantMessageID: pending.ID,
			Status:             job.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.With(ctx, c.log).Info().
		Str("job_id", handle.JobID).
		Str("conversation_id", handle.ConversationID).
		Msg("chat job created")
	return handle, nil
}

func (c *chatJobUC) resolveConversation(ctx context.Context, tx repository.Tx, userID string, conversationID *string, now time.Time) (*model.Conversation, error) {
	if conversationID == nil || strings.TrimSpace(*conversationID) == "" {
		conv := model.NewConversation(userID, now)
		if err := c.convs.Create(ctx, tx, conv); err != nil {
			return nil, err
		}
		return conv, nil
	}
	conv, err := c.convs.FindByIDAndUser(ctx, tx, strings.TrimSpace(*conversationID), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}
