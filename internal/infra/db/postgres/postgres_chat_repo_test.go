//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/require"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
)

type seeded struct {
	conv *model.Conversation
	user *model.ChatMessage
	asst *model.ChatMessage
	job  *model.ChatJob
}

func seedJob(t *testing.T, ctx context.Context, userID, question string, createdAt time.Time) seeded {
	t.Helper()
	convs := NewConversationRepo(testPool)
	msgs := NewMessageRepo(testPool)
	jobs := NewChatJobRepo(testPool)

	s := seeded{conv: model.NewConversation(userID, createdAt)}
	s.user = model.NewUserMessage(s.conv.ID, question, createdAt)
	s.asst = model.NewPendingAssistantMessage(s.conv.ID, createdAt)
	s.job = model.NewChatJob(s.conv.ID, s.user.ID, s.asst.ID, createdAt)

	require.NoError(t, convs.Create(ctx, nil, s.conv))
	require.NoError(t, msgs.Create(ctx, nil, s.user))
	require.NoError(t, msgs.Create(ctx, nil, s.asst))
	require.NoError(t, jobs.Create(ctx, nil, s.job))
	return s
}

func TestChatJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	jobs := NewChatJobRepo(testPool)
	msgs := NewMessageRepo(testPool)
	convs := NewConversationRepo(testPool)

	t.Run("detail and ownership-scoped status", func(t *testing.T) {
		cleanup(t)
		s := seedJob(t, ctx, "a@x.kr", "오늘 저녁 뭐 먹을까요?", time.Now())

		d, err := jobs.FindDetail(ctx, nil, s.job.ID)
		require.NoError(t, err)
		require.Equal(t, "a@x.kr", d.UserID)
		require.Equal(t, model.ChatJobPending, d.Status)
		require.Equal(t, "오늘 저녁 뭐 먹을까요?", d.Question)
		require.WithinDuration(t, s.user.CreatedAt, d.QuestionAt, time.Millisecond)

		v, err := jobs.FindStatusByIDAndUser(ctx, nil, s.job.ID, "a@x.kr")
		require.NoError(t, err)
		require.Equal(t, model.ChatMessagePending, v.AssistantStatus)
		require.Nil(t, v.Content)

		_, err = jobs.FindStatusByIDAndUser(ctx, nil, s.job.ID, "b@x.kr")
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = convs.FindByIDAndUser(ctx, nil, s.conv.ID, "b@x.kr")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("claim is exclusive within the lease", func(t *testing.T) {
		cleanup(t)
		s := seedJob(t, ctx, "a@x.kr", "q", time.Now())
		now := time.Now()

		ok, err := jobs.Claim(ctx, nil, s.job.ID, now, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = jobs.Claim(ctx, nil, s.job.ID, now.Add(time.Second), time.Minute)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = jobs.Claim(ctx, nil, s.job.ID, now.Add(2*time.Minute), time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "expired lease can be reclaimed")
	})

	t.Run("finalize happens once", func(t *testing.T) {
		cleanup(t)
		s := seedJob(t, ctx, "a@x.kr", "q", time.Now())
		answer := "답변"

		ok, err := jobs.Finalize(ctx, nil, s.job.ID, model.ChatJobCompleted, nil, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = msgs.FinalizeAssistant(ctx, nil, s.asst.ID, model.ChatMessageComplete, &answer, nil, time.Now())
		require.NoError(t, err)
		require.True(t, ok)

		boom := "boom"
		ok, err = jobs.Finalize(ctx, nil, s.job.ID, model.ChatJobFailed, &boom, time.Now())
		require.NoError(t, err)
		require.False(t, ok)
		ok, err = msgs.FinalizeAssistant(ctx, nil, s.asst.ID, model.ChatMessageError, nil, &boom, time.Now())
		require.NoError(t, err)
		require.False(t, ok)

		v, err := jobs.FindStatusByIDAndUser(ctx, nil, s.job.ID, "a@x.kr")
		require.NoError(t, err)
		require.Equal(t, model.ChatJobCompleted, v.JobStatus)
		require.Equal(t, model.ChatMessageComplete, v.AssistantStatus)
		require.Equal(t, "답변", *v.Content)
		require.Nil(t, v.ErrorMessage())

		_, err = jobs.Finalize(ctx, nil, s.job.ID, model.ChatJobPending, nil, time.Now())
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("list stale picks unclaimed old and expired claims", func(t *testing.T) {
		cleanup(t)
		now := time.Now()
		old := seedJob(t, ctx, "a@x.kr", "old", now.Add(-10*time.Minute))
		fresh := seedJob(t, ctx, "a@x.kr", "fresh", now)
		expired := seedJob(t, ctx, "b@x.kr", "expired", now.Add(-10*time.Minute))
		_, err := jobs.Claim(ctx, nil, expired.job.ID, now.Add(-5*time.Minute), time.Minute)
		require.NoError(t, err)
		done := seedJob(t, ctx, "a@x.kr", "done", now.Add(-10*time.Minute))
		_, err = jobs.Finalize(ctx, nil, done.job.ID, model.ChatJobFailed, nil, now)
		require.NoError(t, err)

		refs, err := jobs.ListStale(ctx, nil, now.Add(-2*time.Minute), now.Add(-2*time.Minute), 10)
		require.NoError(t, err)
		ids := map[string]string{}
		for _, r := range refs {
			ids[r.JobID] = r.UserID
		}
		require.Len(t, ids, 2)
		require.Equal(t, "a@x.kr", ids[old.job.ID])
		require.Equal(t, "b@x.kr", ids[expired.job.ID])
		require.NotContains(t, ids, fresh.job.ID)
	})

	t.Run("messages are ordered by creation then id", func(t *testing.T) {
		cleanup(t)
		s := seedJob(t, ctx, "a@x.kr", "q", time.Now())
		list, err := msgs.ListByConversation(ctx, nil, s.conv.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, model.ChatRoleUser, list[0].Role)
		require.Equal(t, model.ChatRoleAssistant, list[1].Role)
	})
}

func TestTxManager_CommitHooks_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	tm := NewTxManager(testPool)
	convs := NewConversationRepo(testPool)

	t.Run("hook fires after commit and sees committed row", func(t *testing.T) {
		cleanup(t)
		c := model.NewConversation("a@x.kr", time.Now())
		var seen error = errors.New("hook not fired")
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := convs.Create(ctx, tx, c); err != nil {
				return err
			}
			repository.AfterCommit(ctx, func(ctx context.Context) {
				_, seen = convs.FindByIDAndUser(ctx, nil, c.ID, "a@x.kr")
			})
			return nil
		})
		require.NoError(t, err)
		require.NoError(t, seen)
	})

	t.Run("rollback discards hook and rows", func(t *testing.T) {
		cleanup(t)
		c := model.NewConversation("a@x.kr", time.Now())
		fired := false
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			require.NoError(t, convs.Create(ctx, tx, c))
			repository.AfterCommit(ctx, func(context.Context) { fired = true })
			return errors.New("abort")
		})
		require.Error(t, err)
		require.False(t, fired)
		_, err = convs.FindByIDAndUser(ctx, nil, c.ID, "a@x.kr")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStatsAndProfileRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	cleanup(t)

	_, err := testPool.Exec(ctx, `
INSERT INTO diet_records (user_id, eaten_on, carbs, protein, fat, calories) VALUES
 ('a@x.kr', '2025-03-03', 10, 5, 2, 100),
 ('a@x.kr', '2025-03-03', 20, 5, 3, 200),
 ('a@x.kr', '2025-03-05', 1, 1, 1, 10),
 ('a@x.kr', '2025-03-10', 9, 9, 9, 90);
INSERT INTO exercise_records (user_id, performed_on, minutes, calories) VALUES
 ('a@x.kr', '2025-03-04', 30, 150);
INSERT INTO profiles (user_id, height, has_diabetes) VALUES ('a@x.kr', 172.5, true);`)
	require.NoError(t, err)

	stats := NewStatsRepo(testPool)
	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	diet, err := stats.DietTotals(ctx, nil, "a@x.kr", from, to)
	require.NoError(t, err)
	require.Len(t, diet, 2)
	require.Equal(t, 300.0, diet[0].Calories)
	require.Equal(t, 30.0, diet[0].Carbs)

	ex, err := stats.ExerciseTotals(ctx, nil, "a@x.kr", from, to)
	require.NoError(t, err)
	require.Len(t, ex, 1)
	require.Equal(t, 30.0, ex[0].Minutes)

	profiles := NewProfileRepo(testPool)
	p, err := profiles.FindByUserID(ctx, nil, "a@x.kr")
	require.NoError(t, err)
	require.Equal(t, 172.5, *p.Height)
	require.True(t, *p.HasDiabetes)
	require.Nil(t, p.Weight)

	_, err = profiles.FindByUserID(ctx, nil, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
