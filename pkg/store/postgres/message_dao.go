package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

type MessageDAO struct {
	db               *bun.DB
	conversationUUID uuid.UUID
}

func NewMessageDAO(db *bun.DB, conversationUUID uuid.UUID) (*MessageDAO, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if conversationUUID == uuid.Nil {
		return nil, errors.New("conversationUUID cannot be empty")
	}
	return &MessageDAO{db: db, conversationUUID: conversationUUID}, nil
}

// CreateMany creates a batch of messages for a conversation. The conversation
// must already exist.
func (dao *MessageDAO) CreateMany(
	ctx context.Context,
	messages []models.Message,
) ([]models.Message, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	pgMessages := make([]MessageSchema, len(messages))
	for i, msg := range messages {
		pgMessages[i] = MessageSchema{
			UUID:             msg.UUID,
			ConversationUUID: dao.conversationUUID,
			Role:             msg.Role,
			Content:          msg.Content,
			TokenCount:       msg.TokenCount,
		}
	}

	_, err := dao.db.NewInsert().
		Model(&pgMessages).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages %w", err)
	}

	return messagesFromSchema(pgMessages), nil
}

// Get retrieves a message by its UUID.
func (dao *MessageDAO) Get(ctx context.Context, messageUUID uuid.UUID) (*models.Message, error) {
	var message MessageSchema
	err := dao.db.NewSelect().
		Model(&message).
		Where("conversation_uuid = ?", dao.conversationUUID).
		Where("uuid = ?", messageUUID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages %w", err)
	}

	return &models.Message{
		UUID:       message.UUID,
		CreatedAt:  message.CreatedAt,
		Role:       message.Role,
		Content:    message.Content,
		TokenCount: message.TokenCount,
	}, nil
}

// GetLastN retrieves the last N messages for a conversation in insertion
// order. lastN <= 0 returns all messages.
func (dao *MessageDAO) GetLastN(
	ctx context.Context,
	lastN int,
) ([]models.Message, error) {
	var messagesDB []MessageSchema
	query := dao.db.NewSelect().
		Model(&messagesDB).
		Where("conversation_uuid = ?", dao.conversationUUID).
		Order("id DESC")
	if lastN > 0 {
		query = query.Limit(lastN)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("unable to retrieve messages %w", err)
	}

	if len(messagesDB) > 0 {
		internal.ReverseSlice(messagesDB)
	}

	return messagesFromSchema(messagesDB), nil
}

// GetListByUUID retrieves a list of messages by their UUIDs.
func (dao *MessageDAO) GetListByUUID(
	ctx context.Context,
	uuids []uuid.UUID,
) ([]models.Message, error) {
	if len(uuids) == 0 {
		return nil, nil
	}

	var messages []MessageSchema
	err := dao.db.NewSelect().
		Model(&messages).
		Where("conversation_uuid = ?", dao.conversationUUID).
		Where("uuid IN (?)", bun.In(uuids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages %w", err)
	}

	return messagesFromSchema(messages), nil
}

// CreateEmbeddings saves message embeddings. An embedding row may already
// exist for a message if the embedder task is retried, so the insert is an
// upsert on message_uuid.
func (dao *MessageDAO) CreateEmbeddings(
	ctx context.Context,
	embeddings []models.MessageEmbedding,
) error {
	if len(embeddings) == 0 {
		return errors.New("no embeddings received")
	}

	embeddingsDB := make([]MessageVectorSchema, len(embeddings))
	for i, e := range embeddings {
		embeddingsDB[i] = MessageVectorSchema{
			ConversationUUID: dao.conversationUUID,
			MessageUUID:      e.MessageUUID,
			Embedding:        pgvector.NewVector(e.Embedding),
			IsEmbedded:       true,
		}
	}

	_, err := dao.db.NewInsert().
		Model(&embeddingsDB).
		On("CONFLICT (message_uuid) DO UPDATE").
		Set("embedding = EXCLUDED.embedding").
		Set("is_embedded = EXCLUDED.is_embedded").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create message embeddings %w", err)
	}

	return nil
}

func messagesFromSchema(messages []MessageSchema) []models.Message {
	messageList := make([]models.Message, len(messages))
	for i, msg := range messages {
		messageList[i] = models.Message{
			UUID:       msg.UUID,
			CreatedAt:  msg.CreatedAt,
			UpdatedAt:  msg.UpdatedAt,
			Role:       msg.Role,
			Content:    msg.Content,
			TokenCount: msg.TokenCount,
		}
	}
	return messageList
}
