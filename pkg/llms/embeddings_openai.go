package llms

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/pkg/models"
)

var _ models.UpliftEmbeddingsClient = &UpliftOpenAIEmbeddingsClient{}

func NewOpenAIEmbeddingsClient(ctx context.Context, cfg *config.Config) (*UpliftOpenAIEmbeddingsClient, error) {
	client := &UpliftOpenAIEmbeddingsClient{}
	err := client.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type UpliftOpenAIEmbeddingsClient struct {
	client  *openai.Chat
	timeout time.Duration
}

func (c *UpliftOpenAIEmbeddingsClient) Init(_ context.Context, cfg *config.Config) error {
	c.timeout = requestTimeout(cfg)
	options := c.configureClient(cfg)

	// Even if it is only used for embeddings, it uses the same langchain
	// openai chat client builder
	client, err := openai.NewChat(options...)
	if err != nil {
		return err
	}

	c.client = client

	return nil
}

func (c *UpliftOpenAIEmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return EmbedTextsWithOpenAIClient(ctx, texts, c.client, EmbeddingsClientType, c.timeout)
}

func getValidOpenAIModel() string {
	for k := range ValidOpenAILLMs {
		return k
	}
	return "gpt-3.5-turbo"
}

func (c *UpliftOpenAIEmbeddingsClient) configureClient(cfg *config.Config) []openai.Option {
	apiKey := GetOpenAIAPIKey(cfg)

	// Even if it will only be used for embeddings, we should pass a valid
	// openai llm model to avoid any errors
	validOpenaiLLMModel := getValidOpenAIModel()

	options := GetBaseOpenAIClientOptions(cfg, apiKey, validOpenaiLLMModel)
	options = ConfigureOpenAIClientOptions(options, cfg)

	return options
}
