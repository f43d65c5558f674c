package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quizlet/internal/domain"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Supported completion clients
const (
	LLMClientLangchain = "langchain"
	LLMClientOpenAISDK = "openai-sdk"
)

type Config struct {
	Server       ServerConfig
	LLM          LLMConfig
	Quiz         QuizConfig
	Logger       LoggerConfig
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// File is the absolute path of the config file that was read, if any.
	File string `yaml:"-"`
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type LLMConfig struct {
	Client     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type QuizConfig struct {
	DefaultQuestions int
	MaxSourceChars   int
	JobRetention     time.Duration
}

type LoggerConfig struct {
	Level  string
	Env    string
	Output string // stdout or stderr
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "90s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.body_limit_mb", 20)

	v.SetDefault("llm.client", LLMClientLangchain)
	v.SetDefault("llm.model", "gpt-3.5-turbo-16k")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 1)

	v.SetDefault("quiz.default_questions", domain.DefaultQuestionCount)
	v.SetDefault("quiz.max_source_chars", 40000)
	v.SetDefault("quiz.job_retention", "10m")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("openai_api_key", "")
}

// LoadConfig reads config.yaml (optional), .env (optional) and the environment.
// The returned config has already been validated.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; values may come from the real environment.
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if configFile := v.ConfigFileUsed(); configFile != "" {
		cfg.File, _ = filepath.Abs(configFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		LLM: LLMConfig{
			Client:     v.GetString("llm.client"),
			Model:      v.GetString("llm.model"),
			BaseURL:    v.GetString("llm.base_url"),
			Timeout:    v.GetDuration("llm.timeout"),
			MaxRetries: v.GetInt("llm.max_retries"),
		},
		Quiz: QuizConfig{
			DefaultQuestions: v.GetInt("quiz.default_questions"),
			MaxSourceChars:   v.GetInt("quiz.max_source_chars"),
			JobRetention:     v.GetDuration("quiz.job_retention"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Env:    v.GetString("logger.env"),
			Output: v.GetString("logger.output"),
		},
		OpenAIAPIKey: v.GetString("openai_api_key"),
	}

	// Override with the conventional provider variable if set
	if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" {
		cfg.OpenAIAPIKey = openAIKey
	}
	if env := os.Getenv("ENV"); env == "production" {
		cfg.Logger.Env = env
	}

	return cfg
}

// Validate fails fast on settings that would only surface at generation time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return domain.NewConfigurationError("OPENAI_API_KEY is not set")
	}
	switch c.LLM.Client {
	case LLMClientLangchain, LLMClientOpenAISDK:
	default:
		return domain.NewConfigurationError(fmt.Sprintf("unsupported llm.client %q (want %q or %q)",
			c.LLM.Client, LLMClientLangchain, LLMClientOpenAISDK))
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return domain.NewConfigurationError("llm.model cannot be empty")
	}
	if c.LLM.Timeout <= 0 {
		return domain.NewConfigurationError("llm.timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 1 {
		return domain.NewConfigurationError("llm.max_retries must be 0 or 1")
	}
	if c.Quiz.DefaultQuestions < domain.MinQuestionCount || c.Quiz.DefaultQuestions > domain.MaxQuestionCount {
		return domain.NewConfigurationError(fmt.Sprintf("quiz.default_questions must be between %d and %d",
			domain.MinQuestionCount, domain.MaxQuestionCount))
	}
	if c.Quiz.MaxSourceChars < 0 {
		return domain.NewConfigurationError("quiz.max_source_chars cannot be negative")
	}
	return nil
}
