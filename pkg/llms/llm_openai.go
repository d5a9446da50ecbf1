package llms

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/pkoukk/tiktoken-go"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/pkg/models"
)

const OpenAIAPIKeyNotSetError = "UPLIFT_OPENAI_API_KEY is not set" //nolint:gosec

var _ models.UpliftLLM = &UpliftOpenAILLM{}

func NewOpenAILLM(ctx context.Context, cfg *config.Config) (*UpliftOpenAILLM, error) {
	llmClient := &UpliftOpenAILLM{}
	err := llmClient.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llmClient, nil
}

type UpliftOpenAILLM struct {
	llm     *openai.Chat
	tkm     *tiktoken.Tiktoken
	timeout time.Duration
}

func (c *UpliftOpenAILLM) Init(_ context.Context, cfg *config.Config) error {
	// Initialize the Tiktoken client
	encoding := "cl100k_base"
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return err
	}
	c.tkm = tkm
	c.timeout = requestTimeout(cfg)

	options := c.configureClient(cfg)

	llm, err := NewOpenAIChatClient(options...)
	if err != nil {
		return err
	}
	c.llm = llm

	return nil
}

func (c *UpliftOpenAILLM) Call(ctx context.Context,
	prompt string,
	options ...llms.CallOption,
) (string, error) {
	// If the LLM is not initialized, return an error
	if c.llm == nil {
		return "", NewLLMError(InvalidLLMModelError, nil)
	}

	if len(options) == 0 {
		options = append(options, llms.WithTemperature(DefaultTemperature))
	}

	thisCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []schema.ChatMessage{schema.SystemChatMessage{Content: prompt}}

	completion, err := c.llm.Call(thisCtx, messages, options...)
	if err != nil {
		return "", err
	}

	return completion.GetContent(), nil
}

func (c *UpliftOpenAILLM) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return EmbedTextsWithOpenAIClient(ctx, texts, c.llm, LLMClientType, c.timeout)
}

// GetTokenCount returns the number of tokens in the text
func (c *UpliftOpenAILLM) GetTokenCount(text string) (int, error) {
	return len(c.tkm.Encode(text, nil, nil)), nil
}

func (c *UpliftOpenAILLM) configureClient(cfg *config.Config) []openai.Option {
	apiKey := GetOpenAIAPIKey(cfg)

	options := GetBaseOpenAIClientOptions(cfg, apiKey, cfg.LLM.Model)
	options = ConfigureOpenAIClientOptions(options, cfg)

	return options
}
