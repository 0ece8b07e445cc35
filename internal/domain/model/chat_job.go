package model

import "time"

type ChatJobStatus string

const (
	ChatJobPending   ChatJobStatus = "PENDING"
	ChatJobCompleted ChatJobStatus = "COMPLETED"
	ChatJobFailed    ChatJobStatus = "FAILED"
)

func (s ChatJobStatus) IsTerminal() bool {
	return s == ChatJobCompleted || s == ChatJobFailed
}

// ChatJob tracks the generation of one assistant answer. Attempts and
// ClaimedAt are bookkeeping for the processing lease and never change Status.
type ChatJob struct {
	ID                 string
	ConversationID     string
	UserMessageID      string
	AssistantMessageID string
	Status             ChatJobStatus
	ErrorMessage       *string
	Attempts           int
	ClaimedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewChatJob(conversationID, userMessageID, assistantMessageID string, now time.Time) *ChatJob {
	return &ChatJob{
		ID:                 NewID(),
		ConversationID:     conversationID,
		UserMessageID:      userMessageID,
		AssistantMessageID: assistantMessageID,
		Status:             ChatJobPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ChatJobDetail is what the processor needs to run a job.
type ChatJobDetail struct {
	JobID              string
	ConversationID     string
	UserMessageID      string
	AssistantMessageID string
	UserID             string
	Status             ChatJobStatus
	Question           string
	QuestionAt         time.Time // created_at of the question
}

// ChatJobStatusView is the polling projection of a job and its answer.
type ChatJobStatusView struct {
	ConversationID     string
	JobID              string
	AssistantMessageID string
	JobStatus          ChatJobStatus
	AssistantStatus    ChatMessageStatus
	Content            *string
	JobError           *string
	AssistantError     *string
}

// ErrorMessage prefers the assistant message error over the job error.
func (v *ChatJobStatusView) ErrorMessage() *string {
	if v.AssistantError != nil {
		return v.AssistantError
	}
	return v.JobError
}

// ChatJobRef identifies a job that needs (re)dispatching.
type ChatJobRef struct {
	JobID  string
	UserID string
}

// ChatJobHandle is returned to the submitter.
type ChatJobHandle struct {
	ConversationID     string
	JobID              string
	AssistantMessageID string
	Status             ChatJobStatus
}

type Greeting struct {
	ConversationID   string
	AssistantMessage *ChatMessage
}

type ConversationTranscript struct {
	ConversationID string
	Messages       []*ChatMessage
}
