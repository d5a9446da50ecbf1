package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	UUID      uuid.UUID  `json:"uuid"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
	UserUUID  uuid.UUID  `json:"user_uuid"`
	Title     string     `json:"title"`
	// Mode is empty until the user selects one.
	Mode ChatMode `json:"mode,omitempty"`
}

type CreateConversationRequest struct {
	Title string   `json:"title"`
	Mode  ChatMode `json:"mode,omitempty"`
}

type ConversationListResponse struct {
	Conversations []*Conversation `json:"conversations"`
	TotalCount    int             `json:"total_count"`
	RowCount      int             `json:"row_count"`
}

type MessageSearchPayload struct {
	Text string `json:"text"`
}

type MessageSearchResult struct {
	Message *Message `json:"message"`
	Dist    float64  `json:"dist"`
}

type ConversationStore interface {
	// Create creates a new conversation owned by userUUID.
	Create(ctx context.Context, userUUID uuid.UUID, req *CreateConversationRequest) (*Conversation, error)
	// Get retrieves a conversation; ownership is enforced.
	Get(ctx context.Context, userUUID uuid.UUID, conversationUUID uuid.UUID) (*Conversation, error)
	// ListForUser returns the user's conversations, most recent first.
	ListForUser(ctx context.Context, userUUID uuid.UUID, cursor int64, limit int) ([]*Conversation, error)
	// Delete soft deletes a conversation and its messages.
	Delete(ctx context.Context, userUUID uuid.UUID, conversationUUID uuid.UUID) error
	// SetMode sets the conversation persona. A mode may only be set once.
	SetMode(ctx context.Context, userUUID uuid.UUID, conversationUUID uuid.UUID, mode ChatMode) error
	// SetTitle sets the conversation title. Used when the first message arrives.
	SetTitle(ctx context.Context, conversationUUID uuid.UUID, title string) error
	// AppendMessages stores messages in insertion order and returns them with
	// assigned UUIDs.
	AppendMessages(ctx context.Context, conversationUUID uuid.UUID, messages []Message) ([]Message, error)
	// GetMessages returns the last N messages in insertion order. lastN <= 0
	// returns all messages.
	GetMessages(ctx context.Context, conversationUUID uuid.UUID, lastN int) ([]Message, error)
	// GetMessagesByUUID retrieves specific messages for embedding tasks.
	GetMessagesByUUID(ctx context.Context, conversationUUID uuid.UUID, uuids []uuid.UUID) ([]Message, error)
	// PutMessageEmbeddings stores embeddings for previously appended messages.
	PutMessageEmbeddings(ctx context.Context, conversationUUID uuid.UUID, embeddings []MessageEmbedding) error
	// SearchMessages runs a semantic search over the user's conversation
	// history. The appState is used to embed the query text.
	SearchMessages(
		ctx context.Context,
		appState *AppState,
		userUUID uuid.UUID,
		conversationUUID uuid.UUID,
		payload *MessageSearchPayload,
		limit int,
	) ([]MessageSearchResult, error)
	// PurgeDeleted hard deletes all soft-deleted conversations and messages.
	PurgeDeleted(ctx context.Context) error
}

type MessageEmbedding struct {
	MessageUUID uuid.UUID `json:"message_uuid"`
	Embedding   []float32 `json:"embedding"`
}
