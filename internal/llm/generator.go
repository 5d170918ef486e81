package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/codesage/internal/config"
)

// Generator turns a prompt into free text. Implementations wrap a single
// model backend and classify their errors with PermanentError.
//
//go:generate mockgen -destination=../../mocks/mock_generator.go -package=mocks . Generator
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Provider names the backend, used to pick provider-specific prompts.
	Provider() ModelProvider
}

// NewGenerator creates the generator for the configured provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Generator, error) {
	switch cfg.LLMProvider {
	case "gemini":
		logger.Info("using gemini provider", "model", cfg.GeneratorModel)
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeneratorModel)
	case "openai":
		logger.Info("using openai provider", "model", cfg.GeneratorModel, "base_url", cfg.OpenAIBaseURL)
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GeneratorModel), nil
	case "ollama":
		logger.Info("using ollama provider", "model", cfg.GeneratorModel, "host", cfg.OllamaHost)
		return NewOllamaGenerator(cfg.OllamaHost, cfg.GeneratorModel, newOllamaHTTPClient(), logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// newOllamaHTTPClient creates an HTTP client with longer timeouts for local
// models, which can take a while to answer.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}
