package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"studyagent/internal/domain"
)

const (
	configPathEnv      = "STUDY_AGENT_CONFIG"
	databasePathEnv    = "DATABASE_PATH"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	ollamaEndpointEnv  = "OLLAMA_ENDPOINT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Providers ProvidersConfig `yaml:"providers"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Sessions  SessionConfig   `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig describes the SQLite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelegramConfig wires the bot transport.
type TelegramConfig struct {
	BotToken    string `yaml:"botToken"`
	PollTimeout int    `yaml:"pollTimeoutSeconds"`
}

// ProvidersConfig groups per-backend connection settings.
type ProvidersConfig struct {
	Ollama    ProviderConfig `yaml:"ollama"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig is one backend's endpoint and credentials.
type ProviderConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// DefaultsConfig names the model pair used before a user picks one.
type DefaultsConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Choice converts the configured default into a domain model choice.
func (d DefaultsConfig) Choice() domain.ModelChoice {
	provider := domain.Provider(d.Provider)
	if !provider.Valid() {
		provider = domain.ProviderOllama
	}
	model := d.Model
	if model == "" {
		model = provider.ExampleModel()
	}
	return domain.ModelChoice{Provider: provider, Model: model}
}

// SessionConfig tunes pending-state eviction.
type SessionConfig struct {
	TokenTTLMinutes  int `yaml:"tokenTtlMinutes"`
	SweepIntervalMin int `yaml:"sweepIntervalMinutes"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv(ollamaEndpointEnv); v != "" {
		c.Providers.Ollama.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.PollTimeout > 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}

	base.Providers.Ollama = mergeProvider(base.Providers.Ollama, override.Providers.Ollama)
	base.Providers.OpenAI = mergeProvider(base.Providers.OpenAI, override.Providers.OpenAI)
	base.Providers.Anthropic = mergeProvider(base.Providers.Anthropic, override.Providers.Anthropic)

	if override.Defaults.Provider != "" {
		base.Defaults.Provider = override.Defaults.Provider
	}
	if override.Defaults.Model != "" {
		base.Defaults.Model = override.Defaults.Model
	}

	if override.Sessions.TokenTTLMinutes > 0 {
		base.Sessions.TokenTTLMinutes = override.Sessions.TokenTTLMinutes
	}
	if override.Sessions.SweepIntervalMin > 0 {
		base.Sessions.SweepIntervalMin = override.Sessions.SweepIntervalMin
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func mergeProvider(base, override ProviderConfig) ProviderConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/study_agent.db"},
		Telegram: TelegramConfig{PollTimeout: 60},
		Providers: ProvidersConfig{
			Ollama:    ProviderConfig{Endpoint: "http://localhost:11434"},
			OpenAI:    ProviderConfig{Endpoint: "https://api.openai.com"},
			Anthropic: ProviderConfig{Endpoint: "https://api.anthropic.com"},
		},
		Defaults: DefaultsConfig{Provider: string(domain.ProviderOllama), Model: "gemma3:12b"},
		Sessions: SessionConfig{TokenTTLMinutes: 30, SweepIntervalMin: 5},
		Logging:  LoggingConfig{Level: "info"},
	}
}
