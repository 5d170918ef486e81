package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerator(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		want          string
		wantPermanent bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"id":"1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"review text"}}]}`,
			want:   "review text",
		},
		{
			name:          "unauthorized is permanent",
			status:        http.StatusUnauthorized,
			body:          `{"error":{"message":"bad key","type":"invalid_request_error"}}`,
			wantPermanent: true,
		},
		{
			name:   "rate limited is retryable",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/chat/completions", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen := NewOpenAIGenerator("test-key", srv.URL, "gpt-test", option.WithMaxRetries(0))
			out, err := gen.Generate(context.Background(), "review this")

			if tt.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, out)
				return
			}
			require.Error(t, err)
			var permanent *PermanentError
			assert.Equal(t, tt.wantPermanent, errors.As(err, &permanent))
		})
	}
}
