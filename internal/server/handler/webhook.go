package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/metrics"
	"github.com/sevigo/codesage/internal/webhook"
)

const eventTypeHeader = "X-GitHub-Event"

// metricEventTypes bounds the event_type label. Any other header value is
// counted as "other".
var metricEventTypes = map[string]bool{
	"pull_request":              true,
	"issue_comment":             true,
	"ping":                      true,
	"installation":              true,
	"installation_repositories": true,
	"check_run":                 true,
	"check_suite":               true,
	"push":                      true,
}

func eventTypeLabel(eventType string) string {
	if metricEventTypes[eventType] {
		return eventType
	}
	return "other"
}

// WebhookHandler processes incoming webhooks from GitHub.
type WebhookHandler struct {
	verifier   *webhook.Verifier
	dispatcher core.JobDispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(verifier *webhook.Verifier, dispatcher core.JobDispatcher, m *metrics.Metrics, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
	}
}

// Handle authenticates a delivery and acknowledges it immediately. Reviews
// run on the dispatcher's workers.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "could not read request body")
		return
	}

	if !h.verifier.Verify(body, r.Header.Get(webhook.SignatureHeader)) {
		writeError(w, h.logger, http.StatusUnauthorized, "Invalid signature")
		return
	}

	eventType := r.Header.Get(eventTypeHeader)
	h.metrics.WebhookRequests.WithLabelValues(eventTypeLabel(eventType)).Inc()

	if err := h.route(r.Context(), eventType, body); err != nil {
		h.logger.Error("failed to dispatch review job", "event", eventType, "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Failed to start review job")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "processing"})
}

// route turns a delivery into a review job. Deliveries that carry nothing to
// review are dropped without error.
func (h *WebhookHandler) route(ctx context.Context, eventType string, body []byte) error {
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		h.logger.Debug("ignoring unparseable webhook", "event", eventType, "error", err)
		return nil
	}

	var event *core.GitHubEvent
	switch e := payload.(type) {
	case *github.PullRequestEvent:
		event, err = core.EventFromPullRequest(e)
	case *github.IssueCommentEvent:
		event, err = core.EventFromIssueComment(e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "event", eventType)
		return nil
	}
	if err != nil {
		if errors.Is(err, core.ErrEventIgnored) {
			h.logger.Debug("ignoring webhook", "event", eventType, "reason", err.Error())
		} else {
			h.logger.Warn("invalid webhook payload", "event", eventType, "error", err)
		}
		return nil
	}

	if err := h.dispatcher.Dispatch(ctx, event); err != nil {
		return err
	}
	h.logger.Info("review job dispatched", "repo", event.RepoFullName, "pr", event.PRNumber, "action", event.Action)
	return nil
}
