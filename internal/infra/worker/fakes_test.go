package worker

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v4"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

// fakeStore keeps one conversation's worth of chat state in memory and
// implements the job and message repositories.
type fakeStore struct {
	mu     sync.Mutex
	owner  map[string]string // conversation id -> user id
	msgs   map[string]*model.ChatMessage
	jobs   map[string]*model.ChatJob
	stale  []model.ChatJobRef
	listed int

	finalizeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		owner: map[string]string{},
		msgs:  map[string]*model.ChatMessage{},
		jobs:  map[string]*model.ChatJob{},
	}
}

// seedJob stores a question with its pending answer and returns the job.
func (s *fakeStore) seedJob(userID, question string) *model.ChatJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	conv := model.NewConversation(userID, now)
	s.owner[conv.ID] = userID
	um := model.NewUserMessage(conv.ID, question, now)
	am := model.NewPendingAssistantMessage(conv.ID, now.Add(time.Microsecond))
	s.msgs[um.ID], s.msgs[am.ID] = um, am
	job := model.NewChatJob(conv.ID, um.ID, am.ID, now)
	s.jobs[job.ID] = job
	return job
}

// addUserMessage stores a question in the job's conversation at the given
// offset from the job's own question.
func (s *fakeStore) addUserMessage(job *model.ChatJob, content string, offset time.Duration) *model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.msgs[job.UserMessageID].CreatedAt.Add(offset)
	m := model.NewUserMessage(job.ConversationID, content, at)
	s.msgs[m.ID] = m
	return m
}

func (s *fakeStore) job(id string) model.ChatJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[id]
}

func (s *fakeStore) message(id string) model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.msgs[id]
}

func (s *fakeStore) Create(ctx context.Context, tx repository.Tx, j *model.ChatJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return nil
}

func (s *fakeStore) FindDetail(ctx context.Context, tx repository.Tx, jobID string) (*model.ChatJobDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.ChatJobDetail{
		JobID:              j.ID,
		ConversationID:     j.ConversationID,
		UserMessageID:      j.UserMessageID,
		AssistantMessageID: j.AssistantMessageID,
		UserID:             s.owner[j.ConversationID],
		Status:             j.Status,
		Question:           s.msgs[j.UserMessageID].Text(),
		QuestionAt:         s.msgs[j.UserMessageID].CreatedAt,
	}, nil
}

func (s *fakeStore) FindStatusByIDAndUser(ctx context.Context, tx repository.Tx, jobID, userID string) (*model.ChatJobStatusView, error) {
	return nil, domain.ErrNotFound
}

func (s *fakeStore) Claim(ctx context.Context, tx repository.Tx, jobID string, now time.Time, lease time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || j.Status != model.ChatJobPending {
		return false, nil
	}
	if j.ClaimedAt != nil && j.ClaimedAt.After(now.Add(-lease)) {
		return false, nil
	}
	j.ClaimedAt = &now
	j.Attempts++
	return true, nil
}

func (s *fakeStore) Finalize(ctx context.Context, tx repository.Tx, jobID string, status model.ChatJobStatus, errMsg *string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizeErr != nil {
		return false, s.finalizeErr
	}
	j, ok := s.jobs[jobID]
	if !ok || j.Status != model.ChatJobPending {
		return false, nil
	}
	j.Status, j.ErrorMessage, j.UpdatedAt = status, errMsg, at
	return true, nil
}

func (s *fakeStore) ListStale(ctx context.Context, tx repository.Tx, unclaimedBefore, claimedBefore time.Time, limit int) ([]model.ChatJobRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed++
	if len(s.stale) > limit {
		return s.stale[:limit], nil
	}
	return s.stale, nil
}

// fakeMessages adapts fakeStore to the message repository; the method sets
// of the two repositories overlap on Create.
type fakeMessages struct{ s *fakeStore }

func (m fakeMessages) Create(ctx context.Context, tx repository.Tx, msg *model.ChatMessage) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.msgs[msg.ID] = msg
	return nil
}

func (m fakeMessages) ListByConversation(ctx context.Context, tx repository.Tx, conversationID string) ([]*model.ChatMessage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.ChatMessage
	for _, msg := range m.s.msgs {
		if msg.ConversationID == conversationID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m fakeMessages) FinalizeAssistant(ctx context.Context, tx repository.Tx, id string, status model.ChatMessageStatus, content, errMsg *string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg, ok := m.s.msgs[id]
	if !ok || msg.Role != model.ChatRoleAssistant || msg.Status != model.ChatMessagePending {
		return false, nil
	}
	msg.Status, msg.Content, msg.ErrorMessage, msg.UpdatedAt = status, content, errMsg, at
	return true, nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, hooks := repository.WithCommitHooks(ctx)
	if err := fn(ctx, nil); err != nil {
		return err
	}
	hooks.Fire(ctx)
	return nil
}

type fakeStats struct{ err error }

func (f fakeStats) WeeklyStats(ctx context.Context, userID string, anchor time.Time) (*model.WeeklyStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.WeeklyStats{}, nil
}

type fakeProfiles struct{}

func (fakeProfiles) HealthProfile(ctx context.Context, userID string) (*model.HealthProfile, error) {
	return nil, nil
}

// fakeGenerator answers with reply or fails with err. When block is set it
// waits for ctx to end.
type fakeGenerator struct {
	reply   string
	err     error
	block   bool
	calls   atomic.Int32
	prompts chan string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if g.prompts != nil {
		select {
		case g.prompts <- prompt:
		default:
		}
	}
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type recordedDispatch struct{ jobID, userID string }

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []recordedDispatch
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, jobID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, recordedDispatch{jobID, userID})
}

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	if l.held {
		return "", domain.ErrLockNotAcquired
	}
	l.held = true
	return "tok", nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.unlocked++
	return nil
}
