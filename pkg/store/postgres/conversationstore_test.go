package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/testutils"
)

func createTestConversation(
	t *testing.T,
	ctx context.Context,
	userUUID uuid.UUID,
	mode models.ChatMode,
) *models.Conversation {
	t.Helper()

	conversationStore := NewConversationDAO(testDB)
	conversation, err := conversationStore.Create(ctx, userUUID, &models.CreateConversationRequest{
		Title: "test conversation",
		Mode:  mode,
	})
	require.NoError(t, err)

	return conversation
}

func TestConversationDAO(t *testing.T) {
	ctx := context.Background()

	user := createTestUser(t, ctx)
	otherUser := createTestUser(t, ctx)
	conversationStore := NewConversationDAO(testDB)

	var conversation *models.Conversation

	t.Run("Create", func(t *testing.T) {
		var err error
		conversation, err = conversationStore.Create(ctx, user.UUID, &models.CreateConversationRequest{
			Title: "morning check-in",
		})
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, conversation.UUID)
		assert.Equal(t, user.UUID, conversation.UserUUID)
		assert.Empty(t, conversation.Mode)
	})

	t.Run("Create with invalid mode should fail", func(t *testing.T) {
		_, err := conversationStore.Create(ctx, user.UUID, &models.CreateConversationRequest{
			Mode: "mentor",
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Get", func(t *testing.T) {
		retrieved, err := conversationStore.Get(ctx, user.UUID, conversation.UUID)
		assert.NoError(t, err)
		assert.Equal(t, conversation.UUID, retrieved.UUID)
		assert.Equal(t, "morning check-in", retrieved.Title)
	})

	t.Run("Get by another user should result in NotFoundError", func(t *testing.T) {
		_, err := conversationStore.Get(ctx, otherUser.UUID, conversation.UUID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ListForUser returns most recent first", func(t *testing.T) {
		second := createTestConversation(t, ctx, user.UUID, models.ChatModeCoach)

		conversations, err := conversationStore.ListForUser(ctx, user.UUID, 0, 10)
		assert.NoError(t, err)
		require.GreaterOrEqual(t, len(conversations), 2)
		assert.Equal(t, second.UUID, conversations[0].UUID)
	})

	t.Run("SetMode", func(t *testing.T) {
		err := conversationStore.SetMode(ctx, user.UUID, conversation.UUID, models.ChatModeFriend)
		assert.NoError(t, err)

		retrieved, err := conversationStore.Get(ctx, user.UUID, conversation.UUID)
		assert.NoError(t, err)
		assert.Equal(t, models.ChatModeFriend, retrieved.Mode)
	})

	t.Run("SetMode is idempotent for the same mode", func(t *testing.T) {
		err := conversationStore.SetMode(ctx, user.UUID, conversation.UUID, models.ChatModeFriend)
		assert.NoError(t, err)
	})

	t.Run("SetMode cannot change an existing mode", func(t *testing.T) {
		err := conversationStore.SetMode(ctx, user.UUID, conversation.UUID, models.ChatModeCoach)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("SetTitle", func(t *testing.T) {
		err := conversationStore.SetTitle(ctx, conversation.UUID, "evening reflection")
		assert.NoError(t, err)

		retrieved, err := conversationStore.Get(ctx, user.UUID, conversation.UUID)
		assert.NoError(t, err)
		assert.Equal(t, "evening reflection", retrieved.Title)
	})

	t.Run("Delete", func(t *testing.T) {
		doomed := createTestConversation(t, ctx, user.UUID, models.ChatModeCoach)
		_, err := conversationStore.AppendMessages(
			ctx, doomed.UUID, testutils.TestMessages[:2],
		)
		require.NoError(t, err)

		err = conversationStore.Delete(ctx, user.UUID, doomed.UUID)
		assert.NoError(t, err)

		_, err = conversationStore.Get(ctx, user.UUID, doomed.UUID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		messages, err := conversationStore.GetMessages(ctx, doomed.UUID, 0)
		assert.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("Delete by another user should result in NotFoundError", func(t *testing.T) {
		err := conversationStore.Delete(ctx, otherUser.UUID, conversation.UUID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestConversationDAO_Messages(t *testing.T) {
	ctx := context.Background()

	user := createTestUser(t, ctx)
	conversation := createTestConversation(t, ctx, user.UUID, models.ChatModeCoach)
	conversationStore := NewConversationDAO(testDB)

	var stored []models.Message

	t.Run("AppendMessages assigns UUIDs and preserves order", func(t *testing.T) {
		var err error
		stored, err = conversationStore.AppendMessages(
			ctx, conversation.UUID, testutils.TestMessages,
		)
		assert.NoError(t, err)
		require.Len(t, stored, len(testutils.TestMessages))
		for i, msg := range stored {
			assert.NotEqual(t, uuid.Nil, msg.UUID)
			assert.Equal(t, testutils.TestMessages[i].Content, msg.Content)
		}
	})

	t.Run("GetMessages returns all messages in insertion order", func(t *testing.T) {
		messages, err := conversationStore.GetMessages(ctx, conversation.UUID, 0)
		assert.NoError(t, err)
		require.Len(t, messages, len(testutils.TestMessages))
		assert.Equal(t, testutils.TestMessages[0].Content, messages[0].Content)
		assert.Equal(
			t,
			testutils.TestMessages[len(testutils.TestMessages)-1].Content,
			messages[len(messages)-1].Content,
		)
	})

	t.Run("GetMessages returns the last N messages", func(t *testing.T) {
		messages, err := conversationStore.GetMessages(ctx, conversation.UUID, 4)
		assert.NoError(t, err)
		require.Len(t, messages, 4)
		assert.Equal(
			t,
			testutils.TestMessages[len(testutils.TestMessages)-4].Content,
			messages[0].Content,
		)
	})

	t.Run("GetMessagesByUUID", func(t *testing.T) {
		uuids := []uuid.UUID{stored[0].UUID, stored[2].UUID}
		messages, err := conversationStore.GetMessagesByUUID(ctx, conversation.UUID, uuids)
		assert.NoError(t, err)
		assert.Len(t, messages, 2)
	})

	t.Run("PutMessageEmbeddings", func(t *testing.T) {
		embedder := &fakeEmbeddingsClient{dims: appState.Config.LLM.Embeddings.Dimensions}
		texts := make([]string, len(stored))
		for i, msg := range stored {
			texts[i] = msg.Content
		}
		vectors, err := embedder.EmbedTexts(ctx, texts)
		require.NoError(t, err)

		embeddings := make([]models.MessageEmbedding, len(stored))
		for i, msg := range stored {
			embeddings[i] = models.MessageEmbedding{
				MessageUUID: msg.UUID,
				Embedding:   vectors[i],
			}
		}
		err = conversationStore.PutMessageEmbeddings(ctx, conversation.UUID, embeddings)
		assert.NoError(t, err)

		// a retried embedder task upserts without error
		err = conversationStore.PutMessageEmbeddings(
			ctx, conversation.UUID, embeddings[:1],
		)
		assert.NoError(t, err)
	})

	t.Run("SearchMessages finds the matching message first", func(t *testing.T) {
		target := stored[4].Content
		results, err := conversationStore.SearchMessages(
			ctx,
			appState,
			user.UUID,
			conversation.UUID,
			&models.MessageSearchPayload{Text: target},
			5,
		)
		assert.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, target, results[0].Message.Content)
	})

	t.Run("SearchMessages with empty query should fail", func(t *testing.T) {
		_, err := conversationStore.SearchMessages(
			ctx,
			appState,
			user.UUID,
			conversation.UUID,
			&models.MessageSearchPayload{},
			5,
		)
		assert.Error(t, err)
	})

	t.Run("SearchMessages scoped to another user returns nothing", func(t *testing.T) {
		otherUser := createTestUser(t, ctx)
		results, err := conversationStore.SearchMessages(
			ctx,
			appState,
			otherUser.UUID,
			uuid.Nil,
			&models.MessageSearchPayload{Text: stored[0].Content},
			5,
		)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})
}
