package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AI: AIConfig{
			LLMProvider:  "gemini",
			GeminiAPIKey: "key",
			Retry:        RetryConfig{MaxAttempts: 3},
		},
		RateLimit: RateLimitConfig{Limit: 10, Window: time.Minute},
		Cache:     CacheConfig{TTL: time.Hour},
		GitHub:    GitHubConfig{WebhookSecret: "s3cret"},
	}
}

func TestAIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  AIConfig
		wantErr bool
	}{
		{
			name:    "Valid gemini config",
			config:  AIConfig{LLMProvider: "gemini", GeminiAPIKey: "k", Retry: RetryConfig{MaxAttempts: 3}},
			wantErr: false,
		},
		{
			name:    "Gemini without key",
			config:  AIConfig{LLMProvider: "gemini", Retry: RetryConfig{MaxAttempts: 3}},
			wantErr: true,
		},
		{
			name:    "OpenAI without key",
			config:  AIConfig{LLMProvider: "openai", Retry: RetryConfig{MaxAttempts: 3}},
			wantErr: true,
		},
		{
			name:    "Ollama with host",
			config:  AIConfig{LLMProvider: "ollama", OllamaHost: "http://localhost:11434", Retry: RetryConfig{MaxAttempts: 1}},
			wantErr: false,
		},
		{
			name:    "Unknown provider",
			config:  AIConfig{LLMProvider: "bard", Retry: RetryConfig{MaxAttempts: 3}},
			wantErr: true,
		},
		{
			name:    "Too many retry attempts",
			config:  AIConfig{LLMProvider: "gemini", GeminiAPIKey: "k", Retry: RetryConfig{MaxAttempts: 11}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("empty webhook secret without open mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.GitHub.WebhookSecret = ""
		assert.ErrorIs(t, cfg.Validate(), ErrUnsignedWebhooks)
	})

	t.Run("empty webhook secret with open mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.GitHub.WebhookSecret = ""
		cfg.GitHub.AllowUnsigned = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("non-positive limits are collected", func(t *testing.T) {
		cfg := validConfig()
		cfg.RateLimit.Limit = 0
		cfg.Cache.TTL = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT")
		assert.Contains(t, err.Error(), "CACHE_TTL")
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "hook")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.AI.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.GeneratorModel)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "hook")
	t.Setenv("RATE_LIMIT", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.GeneratorModel)
	assert.Equal(t, 3, cfg.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoadConfig_RejectsUnsignedWebhooks(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrUnsignedWebhooks)
}

func TestParseRepoConfig(t *testing.T) {
	t.Run("empty input yields defaults", func(t *testing.T) {
		cfg, err := ParseRepoConfig(nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.ExcludeDirs)
		assert.Zero(t, cfg.MaxFiles)
	})

	t.Run("parses fields", func(t *testing.T) {
		data := []byte("custom_instructions:\n  - Focus on error handling\nexclude_dirs: [vendor, dist]\nexclude_exts: [\".md\"]\nmax_files: 3\n")
		cfg, err := ParseRepoConfig(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"Focus on error handling"}, cfg.CustomInstructions)
		assert.Equal(t, []string{"vendor", "dist"}, cfg.ExcludeDirs)
		assert.Equal(t, []string{".md"}, cfg.ExcludeExts)
		assert.Equal(t, 3, cfg.MaxFiles)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseRepoConfig([]byte("exclude_dirs: [unterminated"))
		assert.ErrorIs(t, err, ErrConfigParsing)
	})

	t.Run("negative max files", func(t *testing.T) {
		_, err := ParseRepoConfig([]byte("max_files: -1"))
		assert.ErrorIs(t, err, ErrConfigParsing)
	})
}
