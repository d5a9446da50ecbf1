package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatMode selects the assistant persona for a conversation. A conversation
// has no mode until the user picks one, and messages are rejected until then.
type ChatMode string

const (
	ChatModeCoach  ChatMode = "coach"
	ChatModeFriend ChatMode = "friend"
)

// ParseChatMode validates a user-supplied mode string.
func ParseChatMode(s string) (ChatMode, error) {
	switch ChatMode(s) {
	case ChatModeCoach, ChatModeFriend:
		return ChatMode(s), nil
	default:
		return "", NewValidationError(fmt.Sprintf("invalid chat mode %q", s))
	}
}

const (
	RoleUser      = "user"
	RoleAssistant = "ai"
)

type Message struct {
	UUID       uuid.UUID `json:"uuid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
}

type MessageListResponse struct {
	Messages   []Message `json:"messages"`
	TotalCount int       `json:"total_count"`
	RowCount   int       `json:"row_count"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	Reply    string    `json:"reply"`
	Messages []Message `json:"messages"`
}

type DailyTaskResponse struct {
	Task string `json:"task"`
}

type ChatResponder interface {
	// Respond produces the assistant reply to userMessage, given the
	// conversation mode and recent history.
	Respond(ctx context.Context, mode ChatMode, history []Message, userMessage string) (string, error)
	// DailyTask produces a single actionable self-care task suggestion.
	DailyTask(ctx context.Context, history []Message, userMessage string) (string, error)
}
