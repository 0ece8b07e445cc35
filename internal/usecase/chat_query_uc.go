package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/infra/logging"
	"ai-coach-chat/internal/infra/metrics"
)

// Compile-time check
var _ ChatQueryUseCase = (*chatQueryUC)(nil)

type ChatQueryUseCase interface {
	GetJobStatus(ctx context.Context, userID, jobID string) (*model.ChatJobStatusView, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*model.ConversationTranscript, error)
	CreateGreeting(ctx context.Context, userID string) (*model.Greeting, error)
}

type chatQueryUC struct {
	convs    repository.ConversationRepository
	msgs     repository.ChatMessageRepository
	jobs     repository.ChatJobRepository
	tm       repository.TransactionManager
	cache    repository.ChatJobStatusCache // optional
	greeting string
	now      func() time.Time
	log      *zerolog.Logger
}

func NewChatQueryUseCase(
	convs repository.ConversationRepository,
	msgs repository.ChatMessageRepository,
	jobs repository.ChatJobRepository,
	tm repository.TransactionManager,
	cache repository.ChatJobStatusCache,
	greeting string,
	logger *zerolog.Logger,
) *chatQueryUC {
	return &chatQueryUC{
		convs:    convs,
		msgs:     msgs,
		jobs:     jobs,
		tm:       tm,
		cache:    cache,
		greeting: greeting,
		now:      time.Now,
		log:      logger,
	}
}

// GetJobStatus returns the job projection. Only terminal projections are
// cached; they never change again.
func (q *chatQueryUC) GetJobStatus(ctx context.Context, userID, jobID string) (*model.ChatJobStatusView, error) {
	defer logging.TraceDuration(q.log, "ChatQueryUC.GetJobStatus")()

	if q.cache != nil {
		v, err := q.cache.Get(ctx, userID, jobID)
		switch {
		case err == nil && v != nil:
			metrics.IncStatusCache("hit")
			return v, nil
		case err == nil || errors.Is(err, domain.ErrNotFound):
			metrics.IncStatusCache("miss")
		default:
			metrics.IncStatusCache("error")
			logging.With(ctx, q.log).Warn().Err(err).Msg("job status cache read failed")
		}
	}

	v, err := q.jobs.FindStatusByIDAndUser(ctx, nil, jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrChatJobNotFound
		}
		return nil, err
	}

	if q.cache != nil && v.JobStatus.IsTerminal() {
		if err := q.cache.Set(ctx, userID, v); err != nil {
			logging.With(ctx, q.log).Warn().Err(err).Msg("job status cache write failed")
		}
	}
	return v, nil
}

func (q *chatQueryUC) GetConversation(ctx context.Context, userID, conversationID string) (*model.ConversationTranscript, error) {
	defer logging.TraceDuration(q.log, "ChatQueryUC.GetConversation")()

	if _, err := q.convs.FindByIDAndUser(ctx, nil, conversationID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	msgs, err := q.msgs.ListByConversation(ctx, nil, conversationID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*model.ChatMessage{}
	}
	return &model.ConversationTranscript{ConversationID: conversationID, Messages: msgs}, nil
}

// CreateGreeting opens a new conversation with the onboarding message.
func (q *chatQueryUC) CreateGreeting(ctx context.Context, userID string) (*model.Greeting, error) {
	defer logging.TraceDuration(q.log, "ChatQueryUC.CreateGreeting")()

	var g *model.Greeting
	err := q.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := q.now()
		conv := model.NewConversation(userID, now)
		if err := q.convs.Create(ctx, tx, conv); err != nil {
			return err
		}
		msg := model.NewAssistantMessage(conv.ID, q.greeting, now)
		if err := q.msgs.Create(ctx, tx, msg); err != nil {
			return err
		}
		g = &model.Greeting{ConversationID: conv.ID, AssistantMessage: msg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
