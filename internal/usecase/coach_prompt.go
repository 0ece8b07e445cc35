package usecase

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/adapter"
)

const (
	promptIntro = "당신은 사용자 맞춤형 건강/영양/운동 코치입니다. 제공된 데이터만 활용해 정확하고 근거 있는 답변을 주세요.\n"

	promptPrinciples = "[응답 원칙]\n" +
		"- 반드시 한국어 존댓말을 사용하고, 따뜻하고 명확하게 안내합니다.\n" +
		"- 불확실한 내용은 가정이나 전제를 명시하고 단정하지 않습니다.\n" +
		"- 답변은 핵심만 간결하게 5문장 또는 800자 이내로 작성합니다.\n\n"

	noDietRecords     = "- 최근 주간 식단 기록이 없습니다.\n"
	noExerciseRecords = "- 최근 주간 운동 기록이 없습니다.\n"
	noHistory         = "- 이전 대화가 없습니다.\n"

	speakerUser  = "사용자"
	speakerCoach = "유미"
)

type CoachPromptConfig struct {
	Weekdays           [7]string // Monday first
	NotProvided        string
	HistoryTokenBudget int // 0 disables trimming
}

// CoachPromptBuilder renders the coach prompt. It holds no mutable state and
// is safe for concurrent use.
type CoachPromptBuilder struct {
	cfg     CoachPromptConfig
	counter adapter.TokenCounter
}

func NewCoachPromptBuilder(cfg CoachPromptConfig, counter adapter.TokenCounter) *CoachPromptBuilder {
	return &CoachPromptBuilder{cfg: cfg, counter: counter}
}

type CoachPromptInput struct {
	Today    time.Time
	Profile  *model.HealthProfile // nil when unknown
	Stats    *model.WeeklyStats   // nil when unknown
	History  []*model.ChatMessage
	Exclude  []string // message ids left out of the history
	Question string
}

func (b *CoachPromptBuilder) Build(in CoachPromptInput) string {
	var sb strings.Builder
	sb.WriteString(promptIntro)
	sb.WriteString(promptPrinciples)

	sb.WriteString("[오늘 정보]\n")
	sb.WriteString("- 날짜: " + in.Today.Format("2006-01-02") + "\n")
	sb.WriteString("- 요일: " + b.weekday(in.Today) + "\n\n")

	p := in.Profile
	if p == nil {
		p = &model.HealthProfile{}
	}
	sb.WriteString("[사용자 건강 정보]\n")
	sb.WriteString("- 키: " + b.number(p.Height) + " cm\n")
	sb.WriteString("- 현재 체중: " + b.number(p.Weight) + " kg\n")
	sb.WriteString("- 목표 체중: " + b.number(p.GoalWeight) + " kg\n")
	sb.WriteString("- 당뇨: " + b.boolean(p.HasDiabetes) + "\n")
	sb.WriteString("- 고혈압: " + b.boolean(p.HasHypertension) + "\n")
	sb.WriteString("- 고지혈증: " + b.boolean(p.HasHyperlipidemia) + "\n")
	sb.WriteString("- 기타 질환: " + b.text(p.OtherDisease) + "\n")
	sb.WriteString("- 활동 수준: " + b.text(p.ActivityLevel) + "\n\n")

	var diet []model.DietDailyStat
	var exercise []model.ExerciseDailyStat
	if in.Stats != nil {
		diet, exercise = in.Stats.DietStats, in.Stats.ExerciseStats
	}
	sb.WriteString("[주간 식단 요약]\n")
	sb.WriteString(formatDiet(diet))
	sb.WriteString("\n[주간 운동 요약]\n")
	sb.WriteString(formatExercise(exercise))

	sb.WriteString("\n[이전 대화 히스토리]\n")
	sb.WriteString(b.history(in.History, in.Exclude))

	sb.WriteString("\n[사용자 질문]\n")
	sb.WriteString(in.Question)
	return sb.String()
}

func (b *CoachPromptBuilder) weekday(t time.Time) string {
	idx := (int(t.Weekday()) + 6) % 7
	if name := b.cfg.Weekdays[idx]; name != "" {
		return name
	}
	return t.Weekday().String()
}

func (b *CoachPromptBuilder) number(v *float64) string {
	if v == nil {
		return b.cfg.NotProvided
	}
	return fmt.Sprintf("%.1f", *v)
}

func (b *CoachPromptBuilder) boolean(v *bool) string {
	switch {
	case v == nil:
		return b.cfg.NotProvided
	case *v:
		return "예"
	default:
		return "아니오"
	}
}

func (b *CoachPromptBuilder) text(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return b.cfg.NotProvided
	}
	return *v
}

func formatDiet(stats []model.DietDailyStat) string {
	if len(stats) == 0 {
		return noDietRecords
	}
	var sb strings.Builder
	for _, s := range stats {
		fmt.Fprintf(&sb, "- %s (%s): 탄수화물 %.1fg, 단백질 %.1fg, 지방 %.1fg, 칼로리 %.1fkcal\n",
			s.Date.Format("2006-01-02"), s.Weekday, s.Carbs, s.Protein, s.Fat, s.Calories)
	}
	return sb.String()
}

func formatExercise(stats []model.ExerciseDailyStat) string {
	if len(stats) == 0 {
		return noExerciseRecords
	}
	var sb strings.Builder
	for _, s := range stats {
		fmt.Fprintf(&sb, "- %s (%s): 운동 %.0f분, 칼로리 %.1fkcal\n",
			s.Date.Format("2006-01-02"), s.Weekday, s.Minutes, s.Calories)
	}
	return sb.String()
}

// history numbers the non-blank prior messages. When a token budget is set
// the oldest turns are dropped until the rest fits.
func (b *CoachPromptBuilder) history(msgs []*model.ChatMessage, exclude []string) string {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	type turn struct {
		speaker string
		content string
	}
	turns := make([]turn, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := skip[m.ID]; ok || m.IsBlank() {
			continue
		}
		speaker := speakerCoach
		if m.Role == model.ChatRoleUser {
			speaker = speakerUser
		}
		turns = append(turns, turn{speaker: speaker, content: m.Text()})
	}

	if budget := b.cfg.HistoryTokenBudget; budget > 0 {
		used, first := 0, len(turns)
		for i := len(turns) - 1; i >= 0; i-- {
			n := b.count(turns[i].speaker + ": " + turns[i].content)
			if used+n > budget {
				break
			}
			used += n
			first = i
		}
		turns = turns[first:]
	}

	if len(turns) == 0 {
		return noHistory
	}
	var sb strings.Builder
	for i, t := range turns {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, t.speaker, t.content)
	}
	return sb.String()
}

func (b *CoachPromptBuilder) count(s string) int {
	if b.counter != nil {
		return b.counter.CountTokens(s)
	}
	return utf8.RuneCountInString(s)
}
