package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"quizlet/internal/domain"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAICompleter implements domain.Completer with github.com/sashabaranov/go-openai.
type OpenAICompleter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAICompleter creates a completer backed by the go-openai SDK.
func NewOpenAICompleter(apiKey, modelName, baseURL string, httpClient *http.Client, logger *zap.Logger) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	logger.Info("Initialized go-openai completer", zap.String("model", modelName))
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  modelName,
		logger: logger,
	}, nil
}

// Complete sends prompt as the only (system) message and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt,
			},
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("openai completion aborted: %w", ctxErr)
		}
		return "", &CallError{Provider: "openai", StatusCode: statusFromSDKError(err), Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &CallError{Provider: "openai", Err: ErrEmptyCompletion}
	}

	c.logger.Debug("Received completion",
		zap.String("model", resp.Model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

func statusFromSDKError(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

var _ domain.Completer = (*OpenAICompleter)(nil)
