package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

var log = internal.GetLogger()

type BaseTask struct {
	appState *models.AppState
}

func (b *BaseTask) Execute(
	ctx context.Context, // nolint: revive
	msg *message.Message, // nolint: revive
) error {
	return nil
}

func (b *BaseTask) HandleError(err error) {
	log.Errorf("Task HandleError error: %s", err)
}

func Initialize(ctx context.Context, appState *models.AppState, router models.TaskRouter) {
	log.Info("Initializing tasks")

	addTask := func(ctx context.Context, name string, taskType models.TaskTopic, newTask func() models.Task) {
		task := newTask()
		router.AddTask(ctx, name, taskType, task)
		log.Infof("%s task added to task router", name)
	}

	addTask(
		ctx,
		string(models.MessageEmbedderTopic),
		models.MessageEmbedderTopic,
		func() models.Task { return NewMessageEmbedderTask(appState) },
	)
}

// messageTaskPayloadToMessages resolves a message task payload to the stored
// messages it refers to.
func messageTaskPayloadToMessages(
	ctx context.Context,
	appState *models.AppState,
	msg *message.Message,
) ([]models.Message, error) {
	conversationUUID, err := uuid.Parse(msg.Metadata.Get("conversation_uuid"))
	if err != nil {
		return nil, fmt.Errorf("message task missing conversation_uuid metadata: %s", msg.UUID)
	}

	var messageTasks []models.MessageTask
	err = json.Unmarshal(msg.Payload, &messageTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message task payload: %w", err)
	}

	uuids := make([]uuid.UUID, len(messageTasks))
	for i, m := range messageTasks {
		uuids[i] = m.UUID
	}

	messages, err := appState.ConversationStore.GetMessagesByUUID(ctx, conversationUUID, uuids)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by uuid: %w", err)
	}

	return messages, err
}
