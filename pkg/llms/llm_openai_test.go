package llms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/config"
)

func TestOpenAILLM_Init(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLM{
			Model:        "gpt-3.5-turbo",
			OpenAIAPIKey: "test-key",
		},
	}

	llmClient := &UpliftOpenAILLM{}

	err := llmClient.Init(context.Background(), cfg)
	assert.NoError(t, err, "Expected no error from Init")
	assert.NotNil(t, llmClient.llm, "Expected llm client to be initialized")
	assert.NotNil(t, llmClient.tkm, "Expected tkm to be initialized")
}

func TestOpenAILLM_ConfigureClient(t *testing.T) {
	llmClient := &UpliftOpenAILLM{}

	t.Run("Test with OpenAIAPIKey", func(t *testing.T) {
		cfg := &config.Config{
			LLM: config.LLM{
				Model:        "gpt-3.5-turbo",
				OpenAIAPIKey: "test-key",
			},
		}

		options := llmClient.configureClient(cfg)
		assert.Len(t, options, 3)
	})

	t.Run("Test with custom endpoint and org", func(t *testing.T) {
		cfg := &config.Config{
			LLM: config.LLM{
				Model:          "gpt-3.5-turbo",
				OpenAIAPIKey:   "test-key",
				OpenAIEndpoint: "https://openai.example.com",
				OpenAIOrgID:    "org-test",
			},
		}

		options := llmClient.configureClient(cfg)
		assert.Len(t, options, 5)
	})
}

func TestOpenAILLM_GetTokenCount(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLM{
			Model:        "gpt-3.5-turbo",
			OpenAIAPIKey: "test-key",
		},
	}

	llmClient, err := NewOpenAILLM(context.Background(), cfg)
	require.NoError(t, err)

	count, err := llmClient.GetTokenCount("Every day is a fresh start.")
	assert.NoError(t, err)
	assert.True(t, count > 0, "Expected a positive token count")
}

func TestGetLLMModelName(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		cfg := &config.Config{
			LLM: config.LLM{Model: "gpt-4"},
		}
		model, err := GetLLMModelName(cfg)
		assert.NoError(t, err)
		assert.Equal(t, "gpt-4", model)
	})

	t.Run("invalid model", func(t *testing.T) {
		cfg := &config.Config{
			LLM: config.LLM{Model: "not-a-model"},
		}
		_, err := GetLLMModelName(cfg)
		assert.Error(t, err)
	})

	t.Run("custom endpoint skips validation", func(t *testing.T) {
		cfg := &config.Config{
			LLM: config.LLM{
				Model:          "local-model",
				OpenAIEndpoint: "http://localhost:8080",
			},
		}
		model, err := GetLLMModelName(cfg)
		assert.NoError(t, err)
		assert.Equal(t, "local-model", model)
	})
}
