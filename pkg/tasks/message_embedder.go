package tasks

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/upliftai/uplift/pkg/models"
)

var _ models.Task = &MessageEmbedderTask{}

func NewMessageEmbedderTask(appState *models.AppState) *MessageEmbedderTask {
	return &MessageEmbedderTask{
		BaseTask: BaseTask{appState: appState},
	}
}

// MessageEmbedderTask embeds stored chat messages and persists the vectors
// so conversation history becomes searchable.
type MessageEmbedderTask struct {
	BaseTask
}

func (t *MessageEmbedderTask) Execute(
	ctx context.Context,
	msg *message.Message,
) error {
	conversationUUID, err := uuid.Parse(msg.Metadata.Get("conversation_uuid"))
	if err != nil {
		return fmt.Errorf("MessageEmbedderTask conversation_uuid is invalid: %w", err)
	}
	log.Debugf("MessageEmbedderTask called for conversation %s", conversationUUID)

	messages, err := messageTaskPayloadToMessages(ctx, t.appState, msg)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		msg.Ack()
		return nil
	}

	err = t.Process(ctx, conversationUUID, messages)
	if err != nil {
		return err
	}

	msg.Ack()

	return nil
}

func (t *MessageEmbedderTask) Process(
	ctx context.Context,
	conversationUUID uuid.UUID,
	messages []models.Message,
) error {
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Content
	}

	embeddings, err := t.appState.EmbeddingsClient.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("MessageEmbedderTask embed messages failed: %w", err)
	}

	records := make([]models.MessageEmbedding, len(messages))
	for i, m := range messages {
		records[i] = models.MessageEmbedding{
			MessageUUID: m.UUID,
			Embedding:   embeddings[i],
		}
	}
	err = t.appState.ConversationStore.PutMessageEmbeddings(ctx, conversationUUID, records)
	if err != nil {
		return fmt.Errorf("MessageEmbedderTask put message embeddings failed: %w", err)
	}
	return nil
}

func (t *MessageEmbedderTask) HandleError(err error) {
	log.Errorf("MessageEmbedderTask error: %s", err)
}
