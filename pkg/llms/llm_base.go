package llms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

const DefaultTemperature = 0.0
const InvalidLLMModelError = "llm model is not set or is invalid"
const InvalidEmbeddingsClientError = "embeddings client is not set or is invalid"

var log = internal.GetLogger()

func NewLLMClient(ctx context.Context, cfg *config.Config) (models.UpliftLLM, error) {
	// if a custom OpenAI endpoint is set, do not validate the model name
	if cfg.LLM.OpenAIEndpoint != "" {
		return NewOpenAILLM(ctx, cfg)
	}
	if _, ok := ValidOpenAILLMs[cfg.LLM.Model]; !ok {
		return nil, fmt.Errorf("invalid llm model %q", cfg.LLM.Model)
	}
	return NewOpenAILLM(ctx, cfg)
}

func NewEmbeddingsClient(ctx context.Context, cfg *config.Config) (models.UpliftEmbeddingsClient, error) {
	return NewOpenAIEmbeddingsClient(ctx, cfg)
}

type LLMError struct {
	message       string
	originalError error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm error: %s (original error: %v)", e.message, e.originalError)
}

func (e *LLMError) Unwrap() error {
	return models.ErrGenerationService
}

func NewLLMError(message string, originalError error) *LLMError {
	return &LLMError{message: message, originalError: originalError}
}

type EmbeddingsClientError struct {
	message       string
	originalError error
}

func (e *EmbeddingsClientError) Error() string {
	return fmt.Sprintf("embeddings client error: %s (original error: %v)", e.message, e.originalError)
}

func (e *EmbeddingsClientError) Unwrap() error {
	return models.ErrEmbeddingService
}

func NewEmbeddingsClientError(message string, originalError error) *EmbeddingsClientError {
	return &EmbeddingsClientError{message: message, originalError: originalError}
}

var ValidOpenAILLMs = map[string]bool{
	"gpt-3.5-turbo":     true,
	"gpt-4":             true,
	"gpt-3.5-turbo-16k": true,
	"gpt-4-32k":         true,
	"gpt-4o":            true,
	"gpt-4o-mini":       true,
}

var MaxLLMTokensMap = map[string]int{
	"gpt-3.5-turbo":     4096,
	"gpt-3.5-turbo-16k": 16_384,
	"gpt-4":             8192,
	"gpt-4-32k":         32_768,
	"gpt-4o":            128_000,
	"gpt-4o-mini":       128_000,
}

func GetLLMModelName(cfg *config.Config) (string, error) {
	llmModel := cfg.LLM.Model
	// Don't validate if a custom OpenAI endpoint is set
	if cfg.LLM.OpenAIEndpoint != "" {
		return llmModel, nil
	}
	if llmModel == "" || !ValidOpenAILLMs[llmModel] {
		return "", NewLLMError(InvalidLLMModelError, nil)
	}
	return llmModel, nil
}

// NewRetryableHTTPClient returns a retryable HTTP client with the given
// retryMax and timeout. The retryable transport is wrapped in an
// OpenTelemetry transport.
func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *http.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryPolicy

	return &http.Client{
		Transport: otelhttp.NewTransport(
			retryableHTTPClient.StandardClient().Transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}
}

// retryPolicy is a retryablehttp.CheckRetry function. It is used to determine
// whether a request should be retried or not.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// Do not retry 400 errors as they're used by OpenAI to indicate maximum
	// context length exceeded
	if resp != nil && resp.StatusCode == 400 {
		return false, err
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}
