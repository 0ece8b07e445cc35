package usecase

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"ai-coach-chat/internal/domain/model"
)

type runeCounter struct{}

func (runeCounter) CountTokens(s string) int { return utf8.RuneCountInString(s) }

func ptr[T any](v T) *T { return &v }

func newTestPromptBuilder(budget int) *CoachPromptBuilder {
	return NewCoachPromptBuilder(CoachPromptConfig{
		Weekdays:           testWeekdays,
		NotProvided:        "미입력",
		HistoryTokenBudget: budget,
	}, runeCounter{})
}

func msg(id string, role model.ChatRole, content string) *model.ChatMessage {
	m := &model.ChatMessage{ID: id, Role: role, Status: model.ChatMessageComplete}
	if content != "" {
		m.Content = &content
	}
	return m
}

func TestCoachPrompt_FullLayout(t *testing.T) {
	b := newTestPromptBuilder(0)
	today := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	out := b.Build(CoachPromptInput{
		Today: today,
		Profile: &model.HealthProfile{
			Height:          ptr(172.0),
			Weight:          ptr(70.3),
			HasDiabetes:     ptr(true),
			HasHypertension: ptr(false),
			ActivityLevel:   ptr("보통"),
		},
		Stats: &model.WeeklyStats{
			DietStats: []model.DietDailyStat{
				{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Weekday: "월", Carbs: 200, Protein: 80, Fat: 50, Calories: 1500},
			},
			ExerciseStats: []model.ExerciseDailyStat{
				{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Weekday: "월", Minutes: 30, Calories: 210.5},
			},
		},
		History: []*model.ChatMessage{
			msg("m1", model.ChatRoleAssistant, "안녕하세요!"),
			msg("m2", model.ChatRoleUser, "살 빼고 싶어요"),
			msg("m3", model.ChatRoleUser, "오늘 뭐 먹을까요?"),
			msg("m4", model.ChatRoleAssistant, ""),
		},
		Exclude:  []string{"m3", "m4"},
		Question: "오늘 뭐 먹을까요?",
	})

	require.True(t, strings.HasPrefix(out, promptIntro+promptPrinciples))
	require.Contains(t, out, "[오늘 정보]\n- 날짜: 2025-03-12\n- 요일: 수\n\n")
	require.Contains(t, out, "- 키: 172.0 cm\n")
	require.Contains(t, out, "- 현재 체중: 70.3 kg\n")
	require.Contains(t, out, "- 목표 체중: 미입력 kg\n")
	require.Contains(t, out, "- 당뇨: 예\n")
	require.Contains(t, out, "- 고혈압: 아니오\n")
	require.Contains(t, out, "- 고지혈증: 미입력\n")
	require.Contains(t, out, "- 기타 질환: 미입력\n")
	require.Contains(t, out, "- 활동 수준: 보통\n")
	require.Contains(t, out, "- 2025-03-10 (월): 탄수화물 200.0g, 단백질 80.0g, 지방 50.0g, 칼로리 1500.0kcal\n")
	require.Contains(t, out, "- 2025-03-10 (월): 운동 30분, 칼로리 210.5kcal\n")
	require.Contains(t, out, "[이전 대화 히스토리]\n1. 유미: 안녕하세요!\n2. 사용자: 살 빼고 싶어요\n\n")
	require.True(t, strings.HasSuffix(out, "[사용자 질문]\n오늘 뭐 먹을까요?"))
}

func TestCoachPrompt_EmptyContext(t *testing.T) {
	b := newTestPromptBuilder(0)

	out := b.Build(CoachPromptInput{
		Today:    time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC),
		Question: "안녕?",
	})

	require.Contains(t, out, "- 요일: 일\n")
	require.Contains(t, out, "- 키: 미입력 cm\n")
	require.Contains(t, out, "- 당뇨: 미입력\n")
	require.Contains(t, out, "[주간 식단 요약]\n"+noDietRecords)
	require.Contains(t, out, "[주간 운동 요약]\n"+noExerciseRecords)
	require.Contains(t, out, "[이전 대화 히스토리]\n"+noHistory)
}

func TestCoachPrompt_HistoryTrimmedOldestFirst(t *testing.T) {
	// Each turn below costs len("사용자: ")+4 = 9 runes.
	b := newTestPromptBuilder(20)

	out := b.Build(CoachPromptInput{
		Today: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC),
		History: []*model.ChatMessage{
			msg("a", model.ChatRoleUser, "첫번째다"),
			msg("b", model.ChatRoleUser, "두번째다"),
			msg("c", model.ChatRoleUser, "세번째다"),
		},
		Question: "q",
	})

	require.NotContains(t, out, "첫번째다")
	require.Contains(t, out, "1. 사용자: 두번째다\n2. 사용자: 세번째다\n")
}

func TestCoachPrompt_BudgetTooSmallForAnyTurn(t *testing.T) {
	b := newTestPromptBuilder(3)

	out := b.Build(CoachPromptInput{
		Today:    time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC),
		History:  []*model.ChatMessage{msg("a", model.ChatRoleUser, "긴 메시지입니다")},
		Question: "q",
	})
	require.Contains(t, out, "[이전 대화 히스토리]\n"+noHistory)
}
