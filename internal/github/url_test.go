package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFromURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantID    int
		wantErr   bool
	}{
		{name: "https", url: "https://github.com/octo/widgets/pull/123", wantOwner: "octo", wantRepo: "widgets", wantID: 123},
		{name: "no scheme", url: "github.com/octo/widgets/pull/456", wantOwner: "octo", wantRepo: "widgets", wantID: 456},
		{name: "trailing slash", url: "https://github.com/octo/widgets/pull/789/", wantOwner: "octo", wantRepo: "widgets", wantID: 789},
		{name: "enterprise host", url: "https://git.example.com/platform/api/pull/5", wantOwner: "platform", wantRepo: "api", wantID: 5},
		{name: "non numeric", url: "https://github.com/octo/widgets/pull/abc", wantErr: true},
		{name: "zero", url: "https://github.com/octo/widgets/pull/0", wantErr: true},
		{name: "issue link", url: "https://github.com/octo/widgets/issues/123", wantErr: true},
		{name: "files tab", url: "https://github.com/octo/widgets/pull/123/files", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := EventFromURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, event.RepoOwner)
			assert.Equal(t, tt.wantRepo, event.RepoName)
			assert.Equal(t, tt.wantOwner+"/"+tt.wantRepo, event.RepoFullName)
			assert.Equal(t, tt.wantID, event.PRNumber)
			assert.Empty(t, event.HeadSHA)
		})
	}
}
