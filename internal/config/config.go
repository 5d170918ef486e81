// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/codesage/internal/logger"
)

// Config holds the application's configuration values.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	GitHub    GitHubConfig
	Jobs      JobsConfig
	Database  DBConfig
	Logging   logger.Config
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxBodySize    int64
}

// AIConfig selects and configures the generative model backend.
type AIConfig struct {
	LLMProvider    string
	GeneratorModel string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OllamaHost     string
	Retry          RetryConfig
}

// RetryConfig bounds retries against the model backend.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RedisConfig locates the key-value store shared by the cache and the rate limiter.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// RateLimitConfig is the per-user sliding window.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// CacheConfig controls review caching.
type CacheConfig struct {
	TTL time.Duration
}

// GitHubConfig covers API access and webhook authentication.
type GitHubConfig struct {
	Token             string
	AppID             int64
	PrivateKeyPath    string
	WebhookSecret     string
	AllowUnsigned     bool
	APIBaseURL        string
	RequestsPerSecond float64
}

// JobsConfig sizes the background review worker pool.
type JobsConfig struct {
	MaxWorkers int
	QueueSize  int
	Timeout    time.Duration
}

// DBConfig holds the optional Postgres archive settings. An empty Host
// disables the archive.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Enabled reports whether a database was configured.
func (d DBConfig) Enabled() bool {
	return d.Host != ""
}

// ErrUnsignedWebhooks is returned when no webhook secret is set and open mode
// was not explicitly requested.
var ErrUnsignedWebhooks = errors.New("GITHUB_WEBHOOK_SECRET is empty; set WEBHOOK_ALLOW_UNSIGNED=true to accept unsigned webhooks")

// LoadConfig reads configuration from environment variables and a .env file,
// sets defaults, and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// A missing .env file is normal; the environment alone is enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no .env file found, using environment only")
		} else {
			slog.Error("failed to read config file", "error", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "150s")
	v.SetDefault("REQUEST_TIMEOUT", "120s")
	v.SetDefault("MAX_BODY_SIZE", 2*1024*1024)

	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("GENERATOR_MODEL_NAME", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("LLM_RETRY_ATTEMPTS", 3)
	v.SetDefault("LLM_RETRY_BASE_DELAY", "500ms")
	v.SetDefault("LLM_RETRY_MAX_DELAY", "8s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("RATE_LIMIT", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("CACHE_TTL", "1h")

	v.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/codesage-app.private-key.pem")
	v.SetDefault("WEBHOOK_ALLOW_UNSIGNED", false)
	v.SetDefault("GITHUB_API_RPS", 10.0)

	v.SetDefault("MAX_WORKERS", 5)
	v.SetDefault("JOB_QUEUE_SIZE", 100)
	v.SetDefault("JOB_TIMEOUT", "10m")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE", "codesage.log")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 10)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
}

func fromViper(v *viper.Viper) *Config {
	provider := strings.ToLower(v.GetString("LLM_PROVIDER"))

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			MaxBodySize:    v.GetInt64("MAX_BODY_SIZE"),
		},
		AI: AIConfig{
			LLMProvider:    provider,
			GeneratorModel: generatorModel(provider, v.GetString("GENERATOR_MODEL_NAME")),
			GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
			OpenAIAPIKey:   v.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL:  v.GetString("OPENAI_BASE_URL"),
			OllamaHost:     v.GetString("OLLAMA_HOST"),
			Retry: RetryConfig{
				MaxAttempts: v.GetInt("LLM_RETRY_ATTEMPTS"),
				BaseDelay:   v.GetDuration("LLM_RETRY_BASE_DELAY"),
				MaxDelay:    v.GetDuration("LLM_RETRY_MAX_DELAY"),
			},
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Limit:  v.GetInt("RATE_LIMIT"),
			Window: v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("CACHE_TTL"),
		},
		GitHub: GitHubConfig{
			Token:             v.GetString("GITHUB_TOKEN"),
			AppID:             v.GetInt64("GITHUB_APP_ID"),
			PrivateKeyPath:    v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			WebhookSecret:     v.GetString("GITHUB_WEBHOOK_SECRET"),
			AllowUnsigned:     v.GetBool("WEBHOOK_ALLOW_UNSIGNED"),
			APIBaseURL:        v.GetString("GITHUB_API_URL"),
			RequestsPerSecond: v.GetFloat64("GITHUB_API_RPS"),
		},
		Jobs: JobsConfig{
			MaxWorkers: v.GetInt("MAX_WORKERS"),
			QueueSize:  v.GetInt("JOB_QUEUE_SIZE"),
			Timeout:    v.GetDuration("JOB_TIMEOUT"),
		},
		Database: DBConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Username:        v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Logging: logger.Config{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			Output:     v.GetString("LOG_OUTPUT"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}

// generatorModel picks a provider-specific default when no model name is set.
func generatorModel(provider, configured string) string {
	if configured != "" {
		return configured
	}
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "gemma3:latest"
	default:
		return "gemini-2.0-flash"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.GitHub.WebhookSecret == "" && !c.GitHub.AllowUnsigned {
		errs = append(errs, ErrUnsignedWebhooks)
	}
	if err := c.AI.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit.Limit))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL))
	}

	return errors.Join(errs...)
}

// Validate checks the provider selection and its credentials.
func (a AIConfig) Validate() error {
	switch a.LLMProvider {
	case "gemini":
		if a.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is not set for the gemini provider")
		}
	case "openai":
		if a.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set for the openai provider")
		}
	case "ollama":
		if a.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST is not set for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", a.LLMProvider)
	}
	if a.Retry.MaxAttempts < 1 || a.Retry.MaxAttempts > 10 {
		return fmt.Errorf("LLM_RETRY_ATTEMPTS must be between 1 and 10, got %d", a.Retry.MaxAttempts)
	}
	return nil
}
