// Package chat assembles retrieved context, conversation history, and mode
// policy into a single generation request and returns the assistant reply.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/ingest"
	upliftllms "github.com/upliftai/uplift/pkg/llms"
	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/policy"
	"github.com/upliftai/uplift/pkg/retrieval"
)

const DefaultTemperature = 0.7

// contextSeparator joins retrieved chunks in the prompt.
const contextSeparator = "\n---\n"

var log = internal.GetLogger()

var _ models.ChatResponder = &Service{}

type Service struct {
	cfg       *config.Config
	llm       models.UpliftLLM
	retriever models.Retriever
}

func NewService(cfg *config.Config, llm models.UpliftLLM, retriever models.Retriever) *Service {
	return &Service{cfg: cfg, llm: llm, retriever: retriever}
}

// Respond produces the assistant reply to userMessage. Simple pleasantries
// short-circuit to a canned reply without touching the embedding or
// generation services.
func (s *Service) Respond(
	ctx context.Context,
	mode models.ChatMode,
	history []models.Message,
	userMessage string,
) (string, error) {
	message := strings.TrimSpace(userMessage)
	if message == "" {
		return "", models.NewValidationError("message must not be empty")
	}

	if category, ok := policy.MatchSimpleMessage(message); ok {
		return policy.CannedReply(category), nil
	}

	systemPrompt, err := policy.SystemPrompt(mode)
	if err != nil {
		return "", err
	}

	retrievedContext, err := s.retrieveContext(ctx, message)
	if err != nil {
		return "", err
	}

	window := policy.HistoryWindow(s.cfg, mode)
	userPrompt, err := internal.ParsePrompt(defaultResponsePrompt, responsePromptData{
		Today:   time.Now().Format("January 02, 2006"),
		History: renderHistory(policy.WindowHistory(history, window)),
		Context: retrievedContext,
		Message: message,
	})
	if err != nil {
		return "", err
	}

	reply, err := s.generate(ctx, systemPrompt+"\n\n"+userPrompt)
	if err != nil {
		return "", err
	}

	return reply, nil
}

// DailyTask produces a single actionable self-care task suggestion based on
// the recent conversation.
func (s *Service) DailyTask(
	ctx context.Context,
	history []models.Message,
	userMessage string,
) (string, error) {
	message := strings.TrimSpace(userMessage)
	if message == "" {
		return "", models.NewValidationError("message must not be empty")
	}

	prompt, err := internal.ParsePrompt(defaultDailyTaskPrompt, dailyTaskPromptData{
		Today:   time.Now().Format("January 02, 2006"),
		History: renderHistory(policy.WindowHistory(history, policy.DefaultFriendHistoryWindow)),
		Message: message,
	})
	if err != nil {
		return "", err
	}

	return s.generate(ctx, prompt)
}

func (s *Service) retrieveContext(ctx context.Context, message string) (string, error) {
	k := s.cfg.Chat.TopK
	if k <= 0 {
		k = retrieval.DefaultTopK
	}
	minScore := s.cfg.Chat.MinScore
	if minScore <= 0 {
		minScore = retrieval.DefaultMinScore
	}

	results, err := s.retriever.Search(ctx, message, k, minScore)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Content
	}
	joined := strings.Join(texts, contextSeparator)

	// Cap context so it never overwhelms the prompt.
	maxContext := s.maxContextChars()
	if len(joined) > maxContext {
		log.Debugf("truncating retrieved context from %d to %d chars", len(joined), maxContext)
		joined = joined[:maxContext]
	}

	return joined, nil
}

func (s *Service) maxContextChars() int {
	chunkSize := s.cfg.Chat.ChunkSize
	if chunkSize <= 0 {
		chunkSize = ingest.DefaultChunkSize
	}
	return chunkSize * 4
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	// Reject prompts that cannot fit the model's context window rather than
	// letting the provider hard-fail the request.
	if maxTokens, ok := upliftllms.MaxLLMTokensMap[s.cfg.LLM.Model]; ok {
		tokens, err := s.llm.GetTokenCount(prompt)
		if err != nil {
			log.Warnf("failed to count prompt tokens: %v", err)
		} else if tokens > maxTokens {
			return "", models.NewValidationError("conversation too long for the configured model")
		}
	}

	temperature := s.cfg.LLM.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	reply, err := s.llm.Call(ctx, prompt, llms.WithTemperature(temperature))
	if err != nil {
		return "", models.NewGenerationServiceError(err)
	}

	return strings.TrimSpace(reply), nil
}

func renderHistory(history []models.Message) string {
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		label := "User"
		if m.Role == models.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+m.Content)
	}

	return strings.Join(lines, "\n")
}
