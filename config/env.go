package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env holds process-level settings.
type Env struct {
	App       AppConfig
	LLM       LLMConfig
	OpenAI    OpenAIConfig
	Azure     AzureConfig
	Anthropic AnthropicConfig
	Chat      ChatConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
}

// AppConfig controls logging.
type AppConfig struct {
	Env       string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"zap"` // zap | json | text
}

// LLMConfig selects the model backend.
type LLMConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"azure"` // openai | azure | anthropic | scripted
	Model       string  `envconfig:"LLM_MODEL"`
	Temperature float64 `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens   int64   `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	Stream      bool    `envconfig:"LLM_STREAM" default:"false"`
}

// OpenAIConfig holds api.openai.com credentials.
type OpenAIConfig struct {
	APIKey  string `envconfig:"OPENAI_API_KEY"`
	BaseURL string `envconfig:"OPENAI_BASE_URL"`
}

// AzureConfig identifies an Azure OpenAI deployment.
type AzureConfig struct {
	Endpoint   string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	APIKey     string `envconfig:"AZURE_OPENAI_KEY"`
	Deployment string `envconfig:"AZURE_OPENAI_DEPLOYMENT" default:"gpt-4o"`
	APIVersion string `envconfig:"AZURE_OPENAI_API_VERSION" default:"2024-10-21"`
}

// AnthropicConfig holds Anthropic credentials.
type AnthropicConfig struct {
	APIKey string `envconfig:"ANTHROPIC_API_KEY"`
}

// ChatConfig tunes sessions and tool dispatch.
type ChatConfig struct {
	GroupFile     string  `envconfig:"AGENTGROUP_GROUP_FILE"`
	MaxIterations int     `envconfig:"AGENTGROUP_MAX_ITERATIONS" default:"10"`
	ToolRate      float64 `envconfig:"AGENTGROUP_TOOL_RATE" default:"0"` // calls per second; 0 disables limiting
	ToolBurst     int     `envconfig:"AGENTGROUP_TOOL_BURST" default:"1"`
}

// RedisConfig enables the Redis history store when Addr is set.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR"`
}

// LoadEnv reads the given .env files (default ".env") and then the process
// environment. Missing files are skipped; a file that exists but does not
// parse is an error. Variables already set in the environment win over .env
// values.
func LoadEnv(files ...string) (*Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Validate checks that the selected provider has its credentials.
func (e *Env) Validate() error {
	switch e.LLM.Provider {
	case "azure":
		if e.Azure.Endpoint == "" || e.Azure.APIKey == "" {
			return fmt.Errorf("%w: AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY are required for provider azure", ErrInvalidConfig)
		}
	case "openai", "anthropic", "scripted":
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalidConfig, e.LLM.Provider)
	}
	if e.Chat.ToolRate < 0 {
		return fmt.Errorf("%w: AGENTGROUP_TOOL_RATE must not be negative", ErrInvalidConfig)
	}
	return nil
}
