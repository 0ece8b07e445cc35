package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/adapter"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/logging"
	"ai-coach-chat/internal/infra/metrics"
	uc "ai-coach-chat/internal/usecase"
)

var _ usecase.ChatJobProcessor = (*ChatJobProcessor)(nil)

type ProcessorConfig struct {
	GenerateTimeout   time.Duration
	ClaimLease        time.Duration
	ErrorMessageLimit int
	FallbackError     string
	Location          *time.Location
}

// ChatJobProcessor turns one PENDING job into a COMPLETED or FAILED one.
type ChatJobProcessor struct {
	jobs     repository.ChatJobRepository
	msgs     repository.ChatMessageRepository
	tm       repository.TransactionManager
	stats    usecase.WeeklyStatsProvider
	profiles usecase.HealthProfileProvider
	prompts  *uc.CoachPromptBuilder
	ai       adapter.TextGenerator
	cfg      ProcessorConfig
	now      func() time.Time
	log      *zerolog.Logger
}

func NewChatJobProcessor(
	jobs repository.ChatJobRepository,
	msgs repository.ChatMessageRepository,
	tm repository.TransactionManager,
	stats usecase.WeeklyStatsProvider,
	profiles usecase.HealthProfileProvider,
	prompts *uc.CoachPromptBuilder,
	ai adapter.TextGenerator,
	cfg ProcessorConfig,
	log *zerolog.Logger,
) *ChatJobProcessor {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	l := log.With().Str("component", "chat_job_processor").Logger()
	return &ChatJobProcessor{
		jobs:     jobs,
		msgs:     msgs,
		tm:       tm,
		stats:    stats,
		profiles: profiles,
		prompts:  prompts,
		ai:       ai,
		cfg:      cfg,
		now:      time.Now,
		log:      &l,
	}
}

// Process runs the job once. Unknown jobs, jobs owned by someone else,
// terminal jobs and jobs leased by another processor are skipped without side
// effects. The returned error is only set when the outcome could not be
// persisted; the job then stays PENDING for the recovery sweeper.
func (p *ChatJobProcessor) Process(ctx context.Context, jobID, userID string) error {
	log := logging.With(ctx, p.log)

	detail, err := p.jobs.FindDetail(ctx, nil, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.skip(log, jobID, "not_found")
			return nil
		}
		return fmt.Errorf("load chat job %s: %w", jobID, err)
	}
	if detail.UserID != userID {
		p.skip(log, jobID, "owner_mismatch")
		return nil
	}
	if detail.Status != model.ChatJobPending {
		p.skip(log, jobID, "not_pending")
		return nil
	}

	start := p.now()
	claimed, err := p.jobs.Claim(ctx, nil, jobID, start, p.cfg.ClaimLease)
	if err != nil {
		return fmt.Errorf("claim chat job %s: %w", jobID, err)
	}
	if !claimed {
		p.skip(log, jobID, "claimed")
		return nil
	}
	log.Info().Str("conversation_id", detail.ConversationID).Msg("processing chat job")

	answer, genErr := p.generate(ctx, detail)
	if genErr != nil && ctx.Err() != nil {
		// Shutting down: leave the job for the sweeper instead of failing it.
		log.Warn().Err(genErr).Msg("chat job interrupted; left pending")
		return nil
	}

	err = p.finalize(ctx, detail, answer, genErr)
	switch {
	case errors.Is(err, domain.ErrJobNotClaimable):
		p.skip(log, jobID, "finalized_elsewhere")
		return nil
	case err != nil:
		metrics.IncChatJobFinalizeError()
		return fmt.Errorf("finalize chat job %s: %w", jobID, err)
	}

	status := model.ChatJobCompleted
	if genErr != nil {
		status = model.ChatJobFailed
		log.Warn().Err(genErr).Msg("chat job failed")
	}
	metrics.IncChatJob(string(status))
	metrics.ObserveChatJobDuration(p.now().Sub(start))
	log.Info().Str("status", string(status)).Dur("duration", p.now().Sub(start)).Msg("chat job finished")
	return nil
}

func (p *ChatJobProcessor) generate(ctx context.Context, d *model.ChatJobDetail) (string, error) {
	today := p.now().In(p.cfg.Location)

	stats, err := p.stats.WeeklyStats(ctx, d.UserID, today)
	if err != nil {
		return "", domain.NewGenerationError("context", fmt.Errorf("weekly stats: %w", err))
	}
	profile, err := p.profiles.HealthProfile(ctx, d.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", domain.NewGenerationError("context", fmt.Errorf("health profile: %w", err))
	}
	history, err := p.msgs.ListByConversation(ctx, nil, d.ConversationID)
	if err != nil {
		return "", domain.NewGenerationError("context", fmt.Errorf("conversation history: %w", err))
	}

	prompt := p.prompts.Build(uc.CoachPromptInput{
		Today:    today,
		Profile:  profile,
		Stats:    stats,
		History:  priorTo(history, d),
		Exclude:  []string{d.UserMessageID, d.AssistantMessageID},
		Question: d.Question,
	})
	if strings.TrimSpace(prompt) == "" {
		return "", domain.NewGenerationError("prompt", errors.New("empty prompt"))
	}

	gctx, cancel := context.WithTimeout(ctx, p.cfg.GenerateTimeout)
	defer cancel()
	answer, err := p.ai.Generate(gctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("AI 응답 시간이 초과되었습니다 (%s): %w", p.cfg.GenerateTimeout, err)
		}
		return "", domain.NewGenerationError("generate", err)
	}
	return answer, nil
}

// priorTo keeps the messages ordered ahead of the job's question, using the
// same (created_at, id) order the store lists them in. Questions sent later
// in the same conversation are not history yet.
func priorTo(msgs []*model.ChatMessage, d *model.ChatJobDetail) []*model.ChatMessage {
	out := make([]*model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.CreatedAt.Before(d.QuestionAt) || (m.CreatedAt.Equal(d.QuestionAt) && m.ID < d.UserMessageID) {
			out = append(out, m)
		}
	}
	return out
}

// finalize writes both terminal transitions in one transaction.
func (p *ChatJobProcessor) finalize(ctx context.Context, d *model.ChatJobDetail, answer string, genErr error) error {
	at := p.now()
	return p.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var (
			jobStatus = model.ChatJobCompleted
			msgStatus = model.ChatMessageComplete
			content   *string
			errMsg    *string
		)
		if genErr != nil {
			bounded := BoundErrorMessage(genErr, p.cfg.ErrorMessageLimit, p.cfg.FallbackError)
			jobStatus, msgStatus, errMsg = model.ChatJobFailed, model.ChatMessageError, &bounded
		} else {
			content = &answer
		}

		ok, err := p.jobs.Finalize(ctx, tx, d.JobID, jobStatus, errMsg, at)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrJobNotClaimable
		}
		ok, err = p.msgs.FinalizeAssistant(ctx, tx, d.AssistantMessageID, msgStatus, content, errMsg, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("assistant message %s is not pending", d.AssistantMessageID)
		}
		return nil
	})
}

func (p *ChatJobProcessor) skip(log *zerolog.Logger, jobID, reason string) {
	metrics.IncChatJobSkipped(reason)
	log.Debug().Str("job_id", jobID).Str("reason", reason).Msg("chat job skipped")
}

// BoundErrorMessage renders err for storage: at most limit runes, with
// fallback when the text is empty.
func BoundErrorMessage(err error, limit int, fallback string) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if strings.TrimSpace(msg) == "" {
		msg = fallback
	}
	if limit > 0 {
		if r := []rune(msg); len(r) > limit {
			msg = string(r[:limit])
		}
	}
	return msg
}
