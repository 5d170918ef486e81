package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sevigo/codesage/internal/core"
)

// EventFromURL turns a pull request URL into a review event for a manual
// review. Any host is accepted so GitHub Enterprise links work too:
//
//	https://github.com/{owner}/{repo}/pull/{number}
//
// The head SHA is left empty and resolved when the review runs.
func EventFromURL(rawURL string) (*core.GitHubEvent, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(rawURL), "/")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid pull request URL: %s", rawURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[2] != "pull" || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid pull request URL format: %s", rawURL)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return nil, fmt.Errorf("invalid PR number %q in %s", parts[3], rawURL)
	}

	return &core.GitHubEvent{
		RepoOwner:    parts[0],
		RepoName:     parts[1],
		RepoFullName: parts[0] + "/" + parts[1],
		PRNumber:     number,
		Action:       "review_command",
	}, nil
}
