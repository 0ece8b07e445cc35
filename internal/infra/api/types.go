package api

import (
	"time"

	"ai-coach-chat/internal/domain/model"
)

type QuestionRequest struct {
	ConversationID *string `json:"conversationId,omitempty"`
	Question       string  `json:"question"`
}

type ChatJobResponse struct {
	ConversationID     string `json:"conversationId"`
	JobID              string `json:"jobId"`
	AssistantMessageID string `json:"assistantMessageId"`
	Status             string `json:"status"`
}

type JobStatusResponse struct {
	ConversationID     string  `json:"conversationId"`
	JobID              string  `json:"jobId"`
	AssistantMessageID string  `json:"assistantMessageId"`
	Status             string  `json:"status"`
	AssistantStatus    string  `json:"assistantStatus"`
	Content            *string `json:"content"`
	ErrorMessage       *string `json:"errorMessage"`
}

type MessageResponse struct {
	MessageID    string    `json:"messageId"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	Content      *string   `json:"content"`
	ErrorMessage *string   `json:"errorMessage"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ConversationResponse struct {
	ConversationID string            `json:"conversationId"`
	Messages       []MessageResponse `json:"messages"`
}

type GreetingResponse struct {
	ConversationID   string          `json:"conversationId"`
	AssistantMessage MessageResponse `json:"assistantMessage"`
}

func toMessageResponse(m *model.ChatMessage) MessageResponse {
	return MessageResponse{
		MessageID:    m.ID,
		Role:         string(m.Role),
		Status:       string(m.Status),
		Content:      m.Content,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
}

func toJobStatusResponse(v *model.ChatJobStatusView) JobStatusResponse {
	return JobStatusResponse{
		ConversationID:     v.ConversationID,
		JobID:              v.JobID,
		AssistantMessageID: v.AssistantMessageID,
		Status:             string(v.JobStatus),
		AssistantStatus:    string(v.AssistantStatus),
		Content:            v.Content,
		ErrorMessage:       v.ErrorMessage(),
	}
}
