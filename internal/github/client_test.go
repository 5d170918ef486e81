package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sevigo/codesage/internal/config"
)

func newTestClient(t *testing.T, mux *http.ServeMux) Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return NewGitHubClient(gh, rate.NewLimiter(rate.Inf, 1), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ListChangedFilesPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/octo/widgets/pulls/7/files?page=2>; rel="next"`, r.Host))
			fmt.Fprint(w, `[{"filename":"a.go","status":"modified","patch":"@@"}]`)
			return
		}
		fmt.Fprint(w, `[{"filename":"b.md","status":"removed"}]`)
	})

	files, err := newTestClient(t, mux).ListChangedFiles(context.Background(), "octo", "widgets", 7)
	require.NoError(t, err)
	assert.Equal(t, []ChangedFile{
		{Filename: "a.go", Status: "modified", Patch: "@@"},
		{Filename: "b.md", Status: "removed"},
	}, files)
}

func TestClient_GetFileContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/contents/src/main.go", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("ref"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("package main\n")),
		})
	})
	mux.HandleFunc("/repos/octo/widgets/contents/src", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"main.go"}]`)
	})
	mux.HandleFunc("/repos/octo/widgets/contents/missing.go", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	content, err := client.GetFileContent(ctx, "octo", "widgets", "src/main.go", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)

	_, err = client.GetFileContent(ctx, "octo", "widgets", "src", "abc123")
	assert.ErrorIs(t, err, ErrNotAFile)

	_, err = client.GetFileContent(ctx, "octo", "widgets", "missing.go", "abc123")
	assert.Error(t, err)
}

func TestClient_CreateComment(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body.Body
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})

	require.NoError(t, newTestClient(t, mux).CreateComment(context.Background(), "octo", "widgets", 7, "hello"))
	assert.Equal(t, "hello", got)
}

func TestClient_RespectsCanceledContextInThrottle(t *testing.T) {
	gh := github.NewClient(nil)
	client := NewGitHubClient(gh, rate.NewLimiter(rate.Every(1e9), 0), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetPullRequest(ctx, "octo", "widgets", 1)
	assert.Error(t, err)
}

func TestClientFactory_NoCredentials(t *testing.T) {
	factory := NewClientFactory(config.GitHubConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := factory.ForInstallation(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestClientFactory_TokenFallback(t *testing.T) {
	factory := NewClientFactory(config.GitHubConfig{Token: "ghp_test", RequestsPerSecond: 5}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client, err := factory.ForInstallation(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestClientFactory_MissingPrivateKey(t *testing.T) {
	factory := NewClientFactory(config.GitHubConfig{AppID: 1, PrivateKeyPath: "/nonexistent/key.pem"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := factory.ForInstallation(context.Background(), 5)
	assert.Error(t, err)
}
