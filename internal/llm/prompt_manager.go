package llm

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

type ModelProvider string
type PromptKey string

const (
	DefaultProvider ModelProvider = "default"
	GeminiProvider  ModelProvider = "gemini"
	OpenAIProvider  ModelProvider = "openai"
	OllamaProvider  ModelProvider = "ollama"

	CodeReviewPrompt  PromptKey = "code_review"
	PullRequestPrompt PromptKey = "pull_request"
)

const promptExt = ".prompt"

// ErrMissingPrompt is returned when a review task has no default template.
var ErrMissingPrompt = errors.New("missing default prompt")

// requiredPrompts are the tasks the reviewer renders. Each needs a
// <task>_default.prompt file.
var requiredPrompts = []PromptKey{CodeReviewPrompt, PullRequestPrompt}

// promptSet is the default template for a task plus any provider overrides.
type promptSet struct {
	fallback  *template.Template
	overrides map[ModelProvider]*template.Template
}

func (s *promptSet) pick(provider ModelProvider) *template.Template {
	if tmpl, ok := s.overrides[provider]; ok {
		return tmpl
	}
	return s.fallback
}

// PromptManager renders the review prompts compiled into the binary.
type PromptManager struct {
	sets map[PromptKey]*promptSet
}

func NewPromptManager() (*PromptManager, error) {
	return loadPrompts(promptFiles, "prompts")
}

// loadPrompts parses every <task>_<provider>.prompt file in dir and checks
// that each required task can be rendered for any provider.
func loadPrompts(fsys fs.FS, dir string) (*PromptManager, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*"+promptExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}

	pm := &PromptManager{sets: make(map[PromptKey]*promptSet)}
	for _, name := range names {
		key, provider, err := splitPromptName(path.Base(name))
		if err != nil {
			return nil, err
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
		tmpl, err := template.New(path.Base(name)).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
		}
		pm.add(key, provider, tmpl)
	}

	for _, key := range requiredPrompts {
		if set, ok := pm.sets[key]; !ok || set.fallback == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPrompt, key)
		}
	}
	return pm, nil
}

// splitPromptName splits "code_review_ollama.prompt" into its task and provider.
func splitPromptName(fileName string) (PromptKey, ModelProvider, error) {
	base := strings.TrimSuffix(fileName, promptExt)
	i := strings.LastIndex(base, "_")
	if i <= 0 || i == len(base)-1 {
		return "", "", fmt.Errorf("invalid prompt filename %q, want <task>_<provider>%s", fileName, promptExt)
	}
	return PromptKey(base[:i]), ModelProvider(base[i+1:]), nil
}

func (pm *PromptManager) add(key PromptKey, provider ModelProvider, tmpl *template.Template) {
	set, ok := pm.sets[key]
	if !ok {
		set = &promptSet{overrides: make(map[ModelProvider]*template.Template)}
		pm.sets[key] = set
	}
	if provider == DefaultProvider {
		set.fallback = tmpl
		return
	}
	set.overrides[provider] = tmpl
}

// Render executes the template for key, preferring the provider's override.
func (pm *PromptManager) Render(key PromptKey, provider ModelProvider, data any) (string, error) {
	set, ok := pm.sets[key]
	if !ok {
		return "", fmt.Errorf("no prompt registered for %q", key)
	}
	tmpl := set.pick(provider)
	if tmpl == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingPrompt, key)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", key, err)
	}
	return buf.String(), nil
}
