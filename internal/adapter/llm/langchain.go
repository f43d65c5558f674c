package llm

import (
	"context"
	"fmt"
	"net/http"

	"quizlet/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// LangchainCompleter implements domain.Completer with the LangchainGo OpenAI client.
type LangchainCompleter struct {
	llm    llms.Model
	model  string
	logger *zap.Logger
}

// NewLangchainCompleter creates a completer backed by langchaingo's OpenAI chat model.
func NewLangchainCompleter(apiKey, modelName, baseURL string, httpClient *http.Client, logger *zap.Logger) (*LangchainCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
	}

	logger.Info("Initialized LangchainGo completer", zap.String("model", modelName))
	return &LangchainCompleter{llm: client, model: modelName, logger: logger}, nil
}

// Complete sends prompt as the only (system) message and returns the first choice.
func (c *LangchainCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("langchain completion aborted: %w", ctxErr)
		}
		return "", &CallError{Provider: "langchain", StatusCode: statusFromMessage(err), Err: err}
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", &CallError{Provider: "langchain", Err: ErrEmptyCompletion}
	}

	c.logger.Debug("Received completion",
		zap.String("model", c.model),
		zap.String("stop_reason", resp.Choices[0].StopReason),
		zap.Int("chars", len(resp.Choices[0].Content)))

	return resp.Choices[0].Content, nil
}

var _ domain.Completer = (*LangchainCompleter)(nil)
