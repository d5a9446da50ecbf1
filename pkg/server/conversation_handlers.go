package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
)

const maxTitleLength = 50

// TryAgainReply is returned when the generation service fails; the user's
// message is already stored and can simply be re-sent.
const TryAgainReply = "I'm having a little trouble responding right now. Please try again in a moment."

// CreateConversationHandler starts a new conversation for the caller.
func CreateConversationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		var req models.CreateConversationRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		conversation, err := appState.ConversationStore.Create(r.Context(), userUUID, &req)
		if err != nil {
			renderError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, conversation); err != nil {
			renderError(w, err)
			return
		}
	}
}

// ListConversationsHandler lists the caller's conversations, newest first.
func ListConversationsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		cursor, err := extractQueryStringValueToInt[int64](r, "cursor")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid cursor"))
			return
		}
		limit, err := extractQueryStringValueToInt[int](r, "limit")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid limit"))
			return
		}

		conversations, err := appState.ConversationStore.ListForUser(r.Context(), userUUID, cursor, limit)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, conversations); err != nil {
			renderError(w, err)
			return
		}
	}
}

// GetConversationHandler returns a single conversation owned by the caller.
func GetConversationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		conversationUUID := parseUUIDFromURL(r, w, "conversationUUID")
		if conversationUUID == uuid.Nil {
			return
		}

		conversation, err := appState.ConversationStore.Get(r.Context(), userUUID, conversationUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, conversation); err != nil {
			renderError(w, err)
			return
		}
	}
}

// DeleteConversationHandler soft deletes a conversation and its messages.
func DeleteConversationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		conversationUUID := parseUUIDFromURL(r, w, "conversationUUID")
		if conversationUUID == uuid.Nil {
			return
		}

		if err := appState.ConversationStore.Delete(r.Context(), userUUID, conversationUUID); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

type setModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// SetModeHandler sets the conversation persona. A mode may only be set once.
func SetModeHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		conversationUUID := parseUUIDFromURL(r, w, "conversationUUID")
		if conversationUUID == uuid.Nil {
			return
		}

		var req setModeRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}
		mode, err := models.ParseChatMode(req.Mode)
		if err != nil {
			renderError(w, err)
			return
		}

		if err := appState.ConversationStore.SetMode(r.Context(), userUUID, conversationUUID, mode); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// GetMessagesHandler returns the last N messages of a conversation in
// insertion order. lastn=0 returns all messages.
func GetMessagesHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		conversationUUID := parseUUIDFromURL(r, w, "conversationUUID")
		if conversationUUID == uuid.Nil {
			return
		}

		// Ownership check before touching messages.
		if _, err := appState.ConversationStore.Get(r.Context(), userUUID, conversationUUID); err != nil {
			renderError(w, err)
			return
		}

		lastN, err := extractQueryStringValueToInt[int](r, "lastn")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid lastn"))
			return
		}

		messages, err := appState.ConversationStore.GetMessages(r.Context(), conversationUUID, lastN)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, models.MessageListResponse{
			Messages:   messages,
			TotalCount: len(messages),
			RowCount:   len(messages),
		}); err != nil {
			renderError(w, err)
			return
		}
	}
}

// SendMessageHandler runs the chat pipeline: it persists the user's message,
// generates the assistant reply, persists it, and queues both for embedding.
// The conversation mode must be set before messages are accepted.
func SendMessageHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		conversationUUID := parseUUIDFromURL(r, w, "conversationUUID")
		if conversationUUID == uuid.Nil {
			return
		}

		var req models.SendMessageRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}
		text := strings.TrimSpace(req.Message)
		if text == "" {
			renderError(w, models.NewValidationError("message must not be empty"))
			return
		}

		conversation, err := appState.ConversationStore.Get(r.Context(), userUUID, conversationUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if conversation.Mode == "" {
			renderError(w, models.NewBadRequestError("conversation mode not set"))
			return
		}

		messageWindow := appState.Config.Memory.MessageWindow
		history, err := appState.ConversationStore.GetMessages(r.Context(), conversationUUID, messageWindow)
		if err != nil {
			renderError(w, err)
			return
		}

		// The first message titles the conversation.
		if conversation.Title == "" && len(history) == 0 {
			title := text
			if len(title) > maxTitleLength {
				title = title[:maxTitleLength]
			}
			if err := appState.ConversationStore.SetTitle(r.Context(), conversationUUID, title); err != nil {
				log.Warnf("failed to set conversation title: %v", err)
			}
		}

		userMessage := models.Message{
			Role:       models.RoleUser,
			Content:    text,
			TokenCount: tokenCount(appState, text),
		}
		stored, err := appState.ConversationStore.AppendMessages(
			r.Context(),
			conversationUUID,
			[]models.Message{userMessage},
		)
		if err != nil {
			renderError(w, err)
			return
		}

		reply, err := appState.Chat.Respond(r.Context(), conversation.Mode, history, text)
		if err != nil {
			if errors.Is(err, models.ErrGenerationService) {
				log.Errorf("generation failed for conversation %s: %v", conversationUUID, err)
				queueForEmbedding(appState, conversationUUID, stored)
				if err := encodeJSON(w, models.SendMessageResponse{
					Reply:    TryAgainReply,
					Messages: stored,
				}); err != nil {
					renderError(w, err)
				}
				return
			}
			renderError(w, err)
			return
		}

		assistantMessage := models.Message{
			Role:       models.RoleAssistant,
			Content:    reply,
			TokenCount: tokenCount(appState, reply),
		}
		storedReply, err := appState.ConversationStore.AppendMessages(
			r.Context(),
			conversationUUID,
			[]models.Message{assistantMessage},
		)
		if err != nil {
			renderError(w, err)
			return
		}
		stored = append(stored, storedReply...)

		queueForEmbedding(appState, conversationUUID, stored)

		if err := encodeJSON(w, models.SendMessageResponse{
			Reply:    reply,
			Messages: stored,
		}); err != nil {
			renderError(w, err)
			return
		}
	}
}

// DailyTaskHandler produces a single actionable self-care task suggestion.
func DailyTaskHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		conversationUUID := parseUUIDFromURL(r, w, "conversationUUID")
		if conversationUUID == uuid.Nil {
			return
		}

		var req models.SendMessageRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		if _, err := appState.ConversationStore.Get(r.Context(), userUUID, conversationUUID); err != nil {
			renderError(w, err)
			return
		}

		history, err := appState.ConversationStore.GetMessages(
			r.Context(),
			conversationUUID,
			appState.Config.Memory.MessageWindow,
		)
		if err != nil {
			renderError(w, err)
			return
		}

		task, err := appState.Chat.DailyTask(r.Context(), history, req.Message)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, models.DailyTaskResponse{Task: task}); err != nil {
			renderError(w, err)
			return
		}
	}
}

// SearchMessagesHandler runs a semantic search over the caller's own
// conversation history. The conversation UUID scopes the search; searching
// across all conversations uses the search route without a conversation.
func SearchMessagesHandler(appState *models.AppState, scoped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		conversationUUID := uuid.Nil
		if scoped {
			conversationUUID = parseUUIDFromURL(r, w, "conversationUUID")
			if conversationUUID == uuid.Nil {
				return
			}
		}

		var payload models.MessageSearchPayload
		if err := decodeAndValidateJSON(r, &payload); err != nil {
			renderError(w, err)
			return
		}
		limit, err := extractQueryStringValueToInt[int](r, "limit")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid limit"))
			return
		}

		results, err := appState.ConversationStore.SearchMessages(
			r.Context(),
			appState,
			userUUID,
			conversationUUID,
			&payload,
			limit,
		)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, results); err != nil {
			renderError(w, err)
			return
		}
	}
}

func tokenCount(appState *models.AppState, text string) int {
	if appState.LLMClient == nil {
		return 0
	}
	count, err := appState.LLMClient.GetTokenCount(text)
	if err != nil {
		log.Warnf("failed to count tokens: %v", err)
		return 0
	}
	return count
}

// queueForEmbedding publishes stored messages to the embedding task queue.
// Queue failures are logged, not surfaced; the reply already exists.
func queueForEmbedding(appState *models.AppState, conversationUUID uuid.UUID, messages []models.Message) {
	if appState.TaskPublisher == nil {
		return
	}

	tasks := make([]models.MessageTask, len(messages))
	for i, m := range messages {
		tasks[i] = models.MessageTask{UUID: m.UUID}
	}
	err := appState.TaskPublisher.PublishMessage(
		map[string]string{"conversation_uuid": conversationUUID.String()},
		tasks,
	)
	if err != nil {
		log.Errorf("failed to queue messages for embedding: %v", err)
	}
}
