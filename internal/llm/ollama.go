package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/ollama"
)

// OllamaGenerator runs prompts against a local Ollama server.
type OllamaGenerator struct {
	model llms.Model
}

func NewOllamaGenerator(host, model string, httpClient *http.Client, logger *slog.Logger) (*OllamaGenerator, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(host),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
		ollama.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaGenerator{model: llm}, nil
}

func (g *OllamaGenerator) Provider() ModelProvider { return OllamaProvider }

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	return out, nil
}
