package llm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/llm"
	"github.com/sevigo/codesage/mocks"
)

const modelAnswer = "Solid code.\n```json\n" +
	`{"bugs":[{"line":1,"description":"missing docstring","severity":"low"}],"suggestions":[{"description":"add type hints"}]}` +
	"\n```"

func newReviewer(t *testing.T, gen llm.Generator) *llm.Reviewer {
	t.Helper()
	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)
	retry := llm.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return llm.NewReviewer(gen, prompts, retry, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReviewer_Review(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)

	gen.EXPECT().Provider().Return(llm.GeminiProvider)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "```python\ndef f(): pass\n```")
		assert.Contains(t, prompt, "Context: No additional context provided")
		return modelAnswer, nil
	})

	result, err := newReviewer(t, gen).Review(context.Background(), core.ReviewRequest{Code: "def f(): pass", Language: "python"})
	require.NoError(t, err)

	assert.Equal(t, modelAnswer, result.ReviewText)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, core.SeverityLow, result.Findings[0].Severity)
	assert.Len(t, result.Suggestions, 1)
	assert.NotEmpty(t, result.RequestID)
	assert.Nil(t, result.Timestamp)
}

func TestReviewer_FreshRequestIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Provider().Return(llm.OpenAIProvider).Times(2)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("fine", nil).Times(2)

	reviewer := newReviewer(t, gen)
	req := core.ReviewRequest{Code: "x = 1", Language: "python"}

	a, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)
	b, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.Empty(t, a.Findings)
}

func TestReviewer_RetriesTransientErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Provider().Return(llm.GeminiProvider)
	var prompts []string
	gomock.InOrder(
		gen.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			return "", errors.New("503 unavailable")
		}),
		gen.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			return modelAnswer, nil
		}),
	)

	result, err := newReviewer(t, gen).Review(context.Background(), core.ReviewRequest{Code: "x := 1", Language: "go"})
	require.NoError(t, err)
	assert.Len(t, result.Findings, 1)

	// every attempt carries the rendered prompt
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "```go\nx := 1\n```")
	assert.Equal(t, prompts[0], prompts[1])
}

func TestReviewer_PropagatesBackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Provider().Return(llm.GeminiProvider)

	authErr := &llm.PermanentError{StatusCode: 401, Err: errors.New("invalid api key")}
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", authErr).Times(1)

	_, err := newReviewer(t, gen).Review(context.Background(), core.ReviewRequest{Code: "x", Language: "go"})
	require.Error(t, err)

	var permanent *llm.PermanentError
	assert.ErrorAs(t, err, &permanent)
}

func TestReviewer_RejectsEmptyCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)

	_, err := newReviewer(t, gen).Review(context.Background(), core.ReviewRequest{Language: "go"})
	assert.ErrorIs(t, err, llm.ErrEmptyCode)
}

func TestReviewer_ReviewPullRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Provider().Return(llm.GeminiProvider)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "Repository: octo/widgets")
		assert.Contains(t, prompt, "--- main.go ---\n```go\npackage main\n```")
		assert.Contains(t, prompt, "- Check error wrapping")
		return "## Summary\nGood change.", nil
	})

	result, err := newReviewer(t, gen).ReviewPullRequest(context.Background(), core.PullRequestReview{
		RepoFullName:       "octo/widgets",
		Title:              "Add main",
		Files:              []core.ReviewFile{{Filename: "main.go", Language: "go", Content: "package main"}},
		CustomInstructions: []string{"Check error wrapping"},
	})
	require.NoError(t, err)
	assert.Equal(t, "## Summary\nGood change.", result.ReviewText)
}
