package model

import (
	"strings"
	"time"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "USER"
	ChatRoleAssistant ChatRole = "ASSISTANT"
)

type ChatMessageStatus string

const (
	ChatMessagePending  ChatMessageStatus = "PENDING"
	ChatMessageComplete ChatMessageStatus = "COMPLETE"
	ChatMessageError    ChatMessageStatus = "ERROR"
)

// Conversation groups the messages exchanged between one user and the coach.
type Conversation struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewConversation(userID string, now time.Time) *Conversation {
	return &Conversation{
		ID:        NewID(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChatMessage is one turn of a conversation. Content is nil while an
// assistant answer is pending or after it failed; ErrorMessage is set only
// for failed assistant answers.
type ChatMessage struct {
	ID             string
	ConversationID string
	Role           ChatRole
	Status         ChatMessageStatus
	Content        *string
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewUserMessage(conversationID, content string, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:             NewID(),
		ConversationID: conversationID,
		Role:           ChatRoleUser,
		Status:         ChatMessageComplete,
		Content:        &content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewPendingAssistantMessage creates the placeholder a chat job fills in.
func NewPendingAssistantMessage(conversationID string, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:             NewID(),
		ConversationID: conversationID,
		Role:           ChatRoleAssistant,
		Status:         ChatMessagePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func NewAssistantMessage(conversationID, content string, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:             NewID(),
		ConversationID: conversationID,
		Role:           ChatRoleAssistant,
		Status:         ChatMessageComplete,
		Content:        &content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Text returns the content or "" when there is none.
func (m *ChatMessage) Text() string {
	if m == nil || m.Content == nil {
		return ""
	}
	return *m.Content
}

// IsBlank reports whether the message carries no usable text.
func (m *ChatMessage) IsBlank() bool {
	return strings.TrimSpace(m.Text()) == ""
}
