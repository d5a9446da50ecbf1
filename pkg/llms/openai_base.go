package llms

import (
	"context"
	"time"

	"github.com/upliftai/uplift/config"

	"github.com/tmc/langchaingo/llms/openai"
)

const OpenAIAPITimeout = 90 * time.Second
const MaxOpenAIAPIRequestAttempts = 5

type ClientType string

const (
	EmbeddingsClientType ClientType = "embeddings"
	LLMClientType        ClientType = "llm"
)

func NewOpenAIChatClient(options ...openai.Option) (*openai.Chat, error) {
	client, err := openai.NewChat(options...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func GetOpenAIAPIKey(cfg *config.Config) string {
	apiKey := cfg.LLM.OpenAIAPIKey
	// If the key is not set, log a fatal error and exit
	if apiKey == "" {
		log.Fatal(OpenAIAPIKeyNotSetError)
	}
	return apiKey
}

// requestTimeout returns the configured per-request timeout, falling back to
// the package default.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg != nil && cfg.LLM.RequestTimeout > 0 {
		return cfg.LLM.RequestTimeout
	}
	return OpenAIAPITimeout
}

func retryMax(cfg *config.Config) int {
	if cfg != nil && cfg.LLM.RetryMax > 0 {
		return cfg.LLM.RetryMax
	}
	return MaxOpenAIAPIRequestAttempts
}

func EmbedTextsWithOpenAIClient(
	ctx context.Context,
	texts []string,
	openAIClient *openai.Chat,
	clientType ClientType,
	timeout time.Duration,
) ([][]float32, error) {
	// If the Client is not initialized, return an error
	if openAIClient == nil {
		if clientType == EmbeddingsClientType {
			return nil, NewEmbeddingsClientError(InvalidEmbeddingsClientError, nil)
		}
		return nil, NewLLMError(InvalidLLMModelError, nil)
	}

	thisCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	embeddings, err := openAIClient.CreateEmbedding(thisCtx, texts)
	if err != nil {
		message := "error while creating embedding"
		if clientType == EmbeddingsClientType {
			return nil, NewEmbeddingsClientError(message, err)
		}
		return nil, NewLLMError(message, err)
	}

	return embeddings, nil
}

func GetBaseOpenAIClientOptions(cfg *config.Config, apiKey, validModel string) []openai.Option {
	httpClient := NewRetryableHTTPClient(retryMax(cfg), requestTimeout(cfg))

	options := make([]openai.Option, 0)
	options = append(
		options,
		openai.WithHTTPClient(httpClient),
		openai.WithModel(validModel),
		openai.WithToken(apiKey),
	)

	return options
}

func ConfigureOpenAIClientOptions(options []openai.Option, cfg *config.Config) []openai.Option {
	if cfg.LLM.OpenAIEndpoint != "" {
		options = append(options, openai.WithBaseURL(cfg.LLM.OpenAIEndpoint))
	}
	if cfg.LLM.OpenAIOrgID != "" {
		options = append(options, openai.WithOrganization(cfg.LLM.OpenAIOrgID))
	}
	if cfg.LLM.Embeddings.Model != "" {
		options = append(options, openai.WithEmbeddingModel(cfg.LLM.Embeddings.Model))
	}

	return options
}
