package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store"
)

var _ models.ConversationStore = &ConversationDAO{}

type ConversationDAO struct {
	db *bun.DB
}

func NewConversationDAO(db *bun.DB) *ConversationDAO {
	return &ConversationDAO{
		db: db,
	}
}

// Create creates a new conversation owned by userUUID.
func (dao *ConversationDAO) Create(
	ctx context.Context,
	userUUID uuid.UUID,
	req *models.CreateConversationRequest,
) (*models.Conversation, error) {
	if userUUID == uuid.Nil {
		return nil, models.NewBadRequestError("user UUID cannot be empty")
	}
	if req.Mode != "" {
		if _, err := models.ParseChatMode(string(req.Mode)); err != nil {
			return nil, err
		}
	}

	conversationDB := ConversationSchema{
		UserUUID: userUUID,
		Title:    req.Title,
		Mode:     string(req.Mode),
	}
	_, err := dao.db.NewInsert().Model(&conversationDB).Returning("*").Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to create conversation", err)
	}

	return conversationSchemaToConversation(&conversationDB)
}

// Get retrieves a conversation. Returns NotFound if the conversation does not
// exist or is owned by another user.
func (dao *ConversationDAO) Get(
	ctx context.Context,
	userUUID uuid.UUID,
	conversationUUID uuid.UUID,
) (*models.Conversation, error) {
	conversationDB := new(ConversationSchema)
	err := dao.db.NewSelect().
		Model(conversationDB).
		Where("uuid = ?", conversationUUID).
		Where("user_uuid = ?", userUUID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("conversation " + conversationUUID.String())
		}
		return nil, store.NewStorageError("failed to get conversation", err)
	}

	return conversationSchemaToConversation(conversationDB)
}

// ListForUser returns the user's conversations, most recent first. The cursor
// is used to paginate results; a cursor of 0 starts from the newest.
func (dao *ConversationDAO) ListForUser(
	ctx context.Context,
	userUUID uuid.UUID,
	cursor int64,
	limit int,
) ([]*models.Conversation, error) {
	var conversationsDB []*ConversationSchema
	q := dao.db.NewSelect().
		Model(&conversationsDB).
		Where("user_uuid = ?", userUUID).
		OrderExpr("id DESC")
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, store.NewStorageError("failed to list conversations", err)
	}

	conversations := make([]*models.Conversation, len(conversationsDB))
	for i := range conversationsDB {
		conversation, err := conversationSchemaToConversation(conversationsDB[i])
		if err != nil {
			return nil, err
		}
		conversations[i] = conversation
	}

	return conversations, nil
}

// Delete soft deletes a conversation and its messages.
func (dao *ConversationDAO) Delete(
	ctx context.Context,
	userUUID uuid.UUID,
	conversationUUID uuid.UUID,
) error {
	// ownership check
	if _, err := dao.Get(ctx, userUUID, conversationUUID); err != nil {
		return err
	}

	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx)

	for _, schema := range []bun.BeforeCreateTableHook{
		&MessageVectorSchema{},
		&MessageSchema{},
	} {
		_, err := tx.NewDelete().
			Model(schema).
			Where("conversation_uuid = ?", conversationUUID).
			Exec(ctx)
		if err != nil {
			return store.NewStorageError(
				fmt.Sprintf("failed to delete rows from %T", schema), err,
			)
		}
	}

	r, err := tx.NewDelete().
		Model(&ConversationSchema{}).
		Where("uuid = ?", conversationUUID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to delete conversation", err)
	}
	if err := requireRowsAffected(r, "conversation "+conversationUUID.String()); err != nil {
		return err
	}

	return tx.Commit()
}

// SetMode sets the conversation persona. A mode may only be set once; changing
// it afterwards is rejected.
func (dao *ConversationDAO) SetMode(
	ctx context.Context,
	userUUID uuid.UUID,
	conversationUUID uuid.UUID,
	mode models.ChatMode,
) error {
	if _, err := models.ParseChatMode(string(mode)); err != nil {
		return err
	}

	conversation, err := dao.Get(ctx, userUUID, conversationUUID)
	if err != nil {
		return err
	}
	if conversation.Mode != "" && conversation.Mode != mode {
		return models.NewBadRequestError(
			"conversation mode is already set to " + string(conversation.Mode),
		)
	}

	conversationDB := ConversationSchema{Mode: string(mode)}
	_, err = dao.db.NewUpdate().
		Model(&conversationDB).
		Column("mode", "updated_at").
		Where("uuid = ?", conversationUUID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to set conversation mode", err)
	}

	return nil
}

// SetTitle sets the conversation title.
func (dao *ConversationDAO) SetTitle(
	ctx context.Context,
	conversationUUID uuid.UUID,
	title string,
) error {
	conversationDB := ConversationSchema{Title: title}
	r, err := dao.db.NewUpdate().
		Model(&conversationDB).
		Column("title", "updated_at").
		Where("uuid = ?", conversationUUID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to set conversation title", err)
	}
	return requireRowsAffected(r, "conversation "+conversationUUID.String())
}

// AppendMessages stores messages in insertion order and returns them with
// assigned UUIDs.
func (dao *ConversationDAO) AppendMessages(
	ctx context.Context,
	conversationUUID uuid.UUID,
	messages []models.Message,
) ([]models.Message, error) {
	messageDAO, err := NewMessageDAO(dao.db, conversationUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to create messageDAO: %w", err)
	}
	return messageDAO.CreateMany(ctx, messages)
}

// GetMessages returns the last N messages in insertion order. lastN <= 0
// returns all messages.
func (dao *ConversationDAO) GetMessages(
	ctx context.Context,
	conversationUUID uuid.UUID,
	lastN int,
) ([]models.Message, error) {
	messageDAO, err := NewMessageDAO(dao.db, conversationUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to create messageDAO: %w", err)
	}
	return messageDAO.GetLastN(ctx, lastN)
}

// GetMessagesByUUID retrieves specific messages for embedding tasks.
func (dao *ConversationDAO) GetMessagesByUUID(
	ctx context.Context,
	conversationUUID uuid.UUID,
	uuids []uuid.UUID,
) ([]models.Message, error) {
	messageDAO, err := NewMessageDAO(dao.db, conversationUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to create messageDAO: %w", err)
	}
	return messageDAO.GetListByUUID(ctx, uuids)
}

// PutMessageEmbeddings stores embeddings for previously appended messages.
func (dao *ConversationDAO) PutMessageEmbeddings(
	ctx context.Context,
	conversationUUID uuid.UUID,
	embeddings []models.MessageEmbedding,
) error {
	messageDAO, err := NewMessageDAO(dao.db, conversationUUID)
	if err != nil {
		return fmt.Errorf("failed to create messageDAO: %w", err)
	}
	return messageDAO.CreateEmbeddings(ctx, embeddings)
}

// SearchMessages runs a semantic search over the user's conversation history.
func (dao *ConversationDAO) SearchMessages(
	ctx context.Context,
	appState *models.AppState,
	userUUID uuid.UUID,
	conversationUUID uuid.UUID,
	payload *models.MessageSearchPayload,
	limit int,
) ([]models.MessageSearchResult, error) {
	return searchMessages(ctx, appState, dao.db, userUUID, conversationUUID, payload, limit)
}

// PurgeDeleted hard deletes all soft-deleted conversations and messages.
func (dao *ConversationDAO) PurgeDeleted(ctx context.Context) error {
	if err := purgeDeleted(ctx, dao.db); err != nil {
		return store.NewStorageError("failed to purge deleted", err)
	}
	return nil
}

func conversationSchemaToConversation(
	conversation *ConversationSchema,
) (*models.Conversation, error) {
	retConversation := &models.Conversation{}
	if err := copier.Copy(retConversation, conversation); err != nil {
		return nil, store.NewStorageError("failed to copy conversation", err)
	}
	retConversation.Mode = models.ChatMode(conversation.Mode)
	if !conversation.DeletedAt.IsZero() {
		deletedAt := conversation.DeletedAt
		retConversation.DeletedAt = &deletedAt
	} else {
		retConversation.DeletedAt = nil
	}
	return retConversation, nil
}
