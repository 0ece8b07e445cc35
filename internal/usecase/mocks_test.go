// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

// memChatStore is a small in-memory implementation of the three chat
// repositories used by unit tests.
type memChatStore struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation
	msgs  map[string]*model.ChatMessage
	jobs  map[string]*model.ChatJob

	createJobErr error // used by tests to simulate insert failures
}

func newMemChatStore() *memChatStore {
	return &memChatStore{
		convs: map[string]*model.Conversation{},
		msgs:  map[string]*model.ChatMessage{},
		jobs:  map[string]*model.ChatJob{},
	}
}

type memConvRepo struct{ s *memChatStore }
type memMsgRepo struct{ s *memChatStore }
type memJobRepo struct{ s *memChatStore }

func (m memConvRepo) Create(ctx context.Context, tx repository.Tx, c *model.Conversation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *c
	m.s.convs[c.ID] = &cp
	return nil
}

func (m memConvRepo) FindByIDAndUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.Conversation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.convs[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memConvRepo) Touch(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.convs[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.UpdatedAt = at
	return nil
}

func (m memMsgRepo) Create(ctx context.Context, tx repository.Tx, msg *model.ChatMessage) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *msg
	m.s.msgs[msg.ID] = &cp
	return nil
}

func (m memMsgRepo) ListByConversation(ctx context.Context, tx repository.Tx, conversationID string) ([]*model.ChatMessage, error) {
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

func (m memMsgRepo) FinalizeAssistant(ctx context.Context, tx repository.Tx, id string, status model.ChatMessageStatus, content, errMsg *string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg, ok := m.s.msgs[id]
	if !ok || msg.Role != model.ChatRoleAssistant || msg.Status != model.ChatMessagePending {
		return false, nil
	}
	msg.Status, msg.Content, msg.ErrorMessage, msg.UpdatedAt = status, content, errMsg, at
	return true, nil
}

func (m memJobRepo) Create(ctx context.Context, tx repository.Tx, j *model.ChatJob) error {
	if m.s.createJobErr != nil {
		return m.s.createJobErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *j
	m.s.jobs[j.ID] = &cp
	return nil
}

func (m memJobRepo) FindDetail(ctx context.Context, tx repository.Tx, jobID string) (*model.ChatJobDetail, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.ChatJobDetail{
		JobID:              j.ID,
		ConversationID:     j.ConversationID,
		UserMessageID:      j.UserMessageID,
		AssistantMessageID: j.AssistantMessageID,
		UserID:             m.s.convs[j.ConversationID].UserID,
		Status:             j.Status,
		Question:           m.s.msgs[j.UserMessageID].Text(),
		QuestionAt:         m.s.msgs[j.UserMessageID].CreatedAt,
	}, nil
}

func (m memJobRepo) FindStatusByIDAndUser(ctx context.Context, tx repository.Tx, jobID, userID string) (*model.ChatJobStatusView, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok || m.s.convs[j.ConversationID].UserID != userID {
		return nil, domain.ErrNotFound
	}
	am := m.s.msgs[j.AssistantMessageID]
	return &model.ChatJobStatusView{
		ConversationID:     j.ConversationID,
		JobID:              j.ID,
		AssistantMessageID: j.AssistantMessageID,
		JobStatus:          j.Status,
		AssistantStatus:    am.Status,
		Content:            am.Content,
		JobError:           j.ErrorMessage,
		AssistantError:     am.ErrorMessage,
	}, nil
}

func (m memJobRepo) Claim(ctx context.Context, tx repository.Tx, jobID string, now time.Time, lease time.Duration) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok || j.Status != model.ChatJobPending || (j.ClaimedAt != nil && !j.ClaimedAt.Before(now.Add(-lease))) {
		return false, nil
	}
	j.ClaimedAt = &now
	j.Attempts++
	return true, nil
}

func (m memJobRepo) Finalize(ctx context.Context, tx repository.Tx, jobID string, status model.ChatJobStatus, errMsg *string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok || j.Status != model.ChatJobPending {
		return false, nil
	}
	j.Status, j.ErrorMessage, j.UpdatedAt = status, errMsg, at
	return true, nil
}

func (m memJobRepo) ListStale(ctx context.Context, tx repository.Tx, unclaimedBefore, claimedBefore time.Time, limit int) ([]model.ChatJobRef, error) {
	return nil, nil
}

func (s *memChatStore) counts() (convs, msgs, jobs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs), len(s.msgs), len(s.jobs)
}

// mockTxManager runs fn without a real transaction and fires commit hooks
// only when fn succeeds.
type mockTxManager struct {
	mu        sync.Mutex
	committed bool
}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, hooks := repository.WithCommitHooks(ctx)
	m.setCommitted(false)
	if err := fn(ctx, nil); err != nil {
		return err
	}
	m.setCommitted(true)
	hooks.Fire(ctx)
	return nil
}

func (m *mockTxManager) setCommitted(v bool) {
	m.mu.Lock()
	m.committed = v
	m.mu.Unlock()
}

func (m *mockTxManager) isCommitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

type dispatchCall struct {
	jobID, userID string
	afterCommit   bool
}

type recordingDispatcher struct {
	mu    sync.Mutex
	tm    *mockTxManager
	calls []dispatchCall
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, jobID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{jobID: jobID, userID: userID, afterCommit: d.tm != nil && d.tm.isCommitted()})
}

type memStatusCache struct {
	mu     sync.Mutex
	items  map[string]*model.ChatJobStatusView
	getErr error
	sets   int
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{items: map[string]*model.ChatJobStatusView{}}
}

func (c *memStatusCache) Get(ctx context.Context, userID, jobID string) (*model.ChatJobStatusView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.items[userID+":"+jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memStatusCache) Set(ctx context.Context, userID string, v *model.ChatJobStatusView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[userID+":"+v.JobID] = v
	return nil
}

type memStatsRepo struct {
	diet     []model.DietDailyStat
	exercise []model.ExerciseDailyStat
	from, to time.Time
	err      error
}

func (m *memStatsRepo) DietTotals(ctx context.Context, tx repository.Tx, userID string, from, to time.Time) ([]model.DietDailyStat, error) {
	m.from, m.to = from, to
	return m.diet, m.err
}

func (m *memStatsRepo) ExerciseTotals(ctx context.Context, tx repository.Tx, userID string, from, to time.Time) ([]model.ExerciseDailyStat, error) {
	return m.exercise, m.err
}

type memProfileRepo struct {
	byUser map[string]*model.HealthProfile
	err    error
}

func (m *memProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.HealthProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
