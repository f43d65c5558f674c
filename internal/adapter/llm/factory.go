package llm

import (
	"fmt"
	"net/http"
	"time"

	"quizlet/internal/config"
	"quizlet/internal/domain"

	"go.uber.org/zap"
)

// NewCompleter builds the completion client selected by cfg.LLM.Client.
func NewCompleter(cfg *config.Config, logger *zap.Logger) (domain.Completer, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, domain.NewConfigurationError("OPENAI_API_KEY is not set")
	}

	// The generator bounds each call with a context deadline; the client timeout
	// is only a backstop for connections that never return.
	httpClient := &http.Client{
		Timeout: cfg.LLM.Timeout + 5*time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	switch cfg.LLM.Client {
	case config.LLMClientLangchain:
		return NewLangchainCompleter(cfg.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.BaseURL, httpClient, logger)
	case config.LLMClientOpenAISDK:
		return NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.BaseURL, httpClient, logger)
	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unsupported llm.client %q", cfg.LLM.Client))
	}
}
