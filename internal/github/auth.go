package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sevigo/codesage/internal/config"
)

// ErrNoCredentials is returned when neither a GitHub App nor a token is configured.
var ErrNoCredentials = errors.New("no GitHub credentials configured: set GITHUB_APP_ID or GITHUB_TOKEN")

// ClientFactory builds API clients for webhook events. Installations of a
// configured GitHub App get an installation client; otherwise the personal
// access token is used.
type ClientFactory struct {
	cfg     config.GitHubConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClientFactory creates a factory. All clients it builds share one
// request throttle.
func NewClientFactory(cfg config.GitHubConfig, logger *slog.Logger) *ClientFactory {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(int(cfg.RequestsPerSecond), 1))
	}
	return &ClientFactory{cfg: cfg, limiter: limiter, logger: logger}
}

// ForInstallation returns a client authorised for the given installation.
func (f *ClientFactory) ForInstallation(ctx context.Context, installationID int64) (Client, error) {
	if f.cfg.AppID != 0 && installationID != 0 {
		return f.installationClient(installationID)
	}
	if f.cfg.Token != "" {
		return f.patClient(ctx)
	}
	return nil, ErrNoCredentials
}

// installationClient creates a GitHub client that is authenticated as a
// specific application installation. The transport refreshes its token on
// expiry.
func (f *ClientFactory) installationClient(installationID int64) (Client, error) {
	f.logger.Debug("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(f.cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", f.cfg.PrivateKeyPath, err)
	}

	tr, err := ghinstallation.New(http.DefaultTransport, f.cfg.AppID, installationID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation transport: %w", err)
	}
	if f.cfg.APIBaseURL != "" {
		tr.BaseURL = strings.TrimSuffix(f.cfg.APIBaseURL, "/")
	}

	client, err := f.withBaseURL(github.NewClient(&http.Client{Transport: tr}))
	if err != nil {
		return nil, err
	}
	return NewGitHubClient(client, f.limiter, f.logger), nil
}

// patClient creates a GitHub client authenticated with a Personal Access Token (PAT).
// This is useful for local development where an App installation is not available.
func (f *ClientFactory) patClient(ctx context.Context) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: f.cfg.Token})
	client, err := f.withBaseURL(github.NewClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, err
	}
	return NewGitHubClient(client, f.limiter, f.logger), nil
}

func (f *ClientFactory) withBaseURL(client *github.Client) (*github.Client, error) {
	if f.cfg.APIBaseURL == "" {
		return client, nil
	}
	base := strings.TrimSuffix(f.cfg.APIBaseURL, "/") + "/"
	c, err := client.WithEnterpriseURLs(base, base)
	if err != nil {
		return nil, fmt.Errorf("invalid GITHUB_API_URL %q: %w", f.cfg.APIBaseURL, err)
	}
	return c, nil
}
