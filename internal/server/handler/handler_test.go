package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/metrics"
	"github.com/sevigo/codesage/internal/review"
	"github.com/sevigo/codesage/internal/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeService struct {
	userID   string
	req      core.ReviewRequest
	result   *core.ReviewResult
	err      error
	feedback []core.FeedbackRecord
	history  []core.HistoryEntry
}

func (f *fakeService) Review(_ context.Context, userID string, req core.ReviewRequest) (*core.ReviewResult, error) {
	f.userID, f.req = userID, req
	return f.result, f.err
}

func (f *fakeService) SubmitFeedback(_ context.Context, record core.FeedbackRecord) bool {
	f.feedback = append(f.feedback, record)
	return true
}

func (f *fakeService) History(_ context.Context, userID string) []core.HistoryEntry {
	f.userID = userID
	return f.history
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []*core.GitHubEvent
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event *core.GitHubEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *fakeDispatcher) Stop() {}

func TestReviewHandler_Review(t *testing.T) {
	svc := &fakeService{result: &core.ReviewResult{ReviewText: "fine", RequestID: "req-1", Findings: []core.BugFinding{}, Suggestions: []core.Suggestion{}}}
	h := NewReviewHandler(svc, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/review?user_id=alice", strings.NewReader(`{"code":"x = 1","language":"python","user_id":"bob"}`))
	rec := httptest.NewRecorder()
	h.Review(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.userID)
	assert.Equal(t, "python", svc.req.Language)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "fine", body["review"])
}

func TestReviewHandler_ReviewErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "malformed json", body: `{"code":`, status: http.StatusBadRequest},
		{name: "empty code", body: `{"code":"  ","language":"go"}`, status: http.StatusBadRequest},
		{name: "rate limited", body: `{"code":"x","language":"go"}`, err: review.ErrRateLimited, status: http.StatusTooManyRequests},
		{name: "backend failure", body: `{"code":"x","language":"go"}`, err: errors.New("model down"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReviewHandler(&fakeService{err: tt.err}, discardLogger())
			rec := httptest.NewRecorder()
			h.Review(rec, httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), "detail")
		})
	}
}

func TestReviewHandler_DefaultsToAnonymous(t *testing.T) {
	svc := &fakeService{result: &core.ReviewResult{}}
	h := NewReviewHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.Review(rec, httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(`{"code":"x","language":"go"}`)))

	assert.Equal(t, core.AnonymousUser, svc.userID)
}

func TestReviewHandler_Feedback(t *testing.T) {
	svc := &fakeService{}
	h := NewReviewHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.Feedback(rec, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"request_id":"req-1","helpful":true,"comment":"nice"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.feedback, 1)
	assert.Equal(t, "req-1", svc.feedback[0].RequestID)
	assert.True(t, svc.feedback[0].Helpful)
	assert.Equal(t, core.AnonymousUser, svc.feedback[0].UserID)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)

	rec = httptest.NewRecorder()
	h.Feedback(rec, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"helpful":true}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewHandler_History(t *testing.T) {
	svc := &fakeService{history: []core.HistoryEntry{{RequestID: "req-2"}, {RequestID: "req-1"}}}
	h := NewReviewHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/history?user_id=alice", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.userID)

	var body struct {
		UserID  string              `json:"user_id"`
		History []core.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.History, 2)
	assert.Equal(t, "req-2", body.History[0].RequestID)
}

const pullRequestPayload = `{
  "action": "%s",
  "number": 7,
  "pull_request": {"number": 7, "title": "Add cache", "body": "", "head": {"sha": "abc123"}},
  "repository": {"name": "widgets", "full_name": "octo/widgets", "owner": {"login": "octo"}},
  "installation": {"id": 99}
}`

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(eventType, body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventTypeHeader, eventType)
	if signature != "" {
		req.Header.Set(webhook.SignatureHeader, signature)
	}
	return req
}

func TestWebhookHandler_DispatchesPullRequest(t *testing.T) {
	const secret = "s3cret"
	dispatcher := &fakeDispatcher{}
	m := metrics.New()
	h := NewWebhookHandler(webhook.NewVerifier(secret, discardLogger()), dispatcher, m, discardLogger())

	body := strings.Replace(pullRequestPayload, "%s", "opened", 1)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest("pull_request", body, sign(secret, body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"processing"}`, rec.Body.String())
	require.Len(t, dispatcher.events, 1)
	event := dispatcher.events[0]
	assert.Equal(t, "octo/widgets", event.RepoFullName)
	assert.Equal(t, 7, event.PRNumber)
	assert.Equal(t, "abc123", event.HeadSHA)
	assert.Equal(t, int64(99), event.InstallationID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequests.WithLabelValues("pull_request")))
}

func TestWebhookHandler_IgnoresOtherActions(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewWebhookHandler(webhook.NewVerifier("", discardLogger()), dispatcher, metrics.New(), discardLogger())

	body := strings.Replace(pullRequestPayload, "%s", "closed", 1)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest("pull_request", body, ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	m := metrics.New()
	h := NewWebhookHandler(webhook.NewVerifier("s3cret", discardLogger()), dispatcher, m, discardLogger())

	body := strings.Replace(pullRequestPayload, "%s", "opened", 1)

	for name, sig := range map[string]string{
		"absent":    "",
		"wrong key": sign("other", body),
		"malformed": "sha256=zz",
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Handle(rec, webhookRequest("pull_request", body, sig))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	assert.Empty(t, dispatcher.events)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WebhookRequests.WithLabelValues("pull_request")))
}

func TestWebhookHandler_ReviewCommand(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewWebhookHandler(webhook.NewVerifier("", discardLogger()), dispatcher, metrics.New(), discardLogger())

	body := `{
	  "action": "created",
	  "issue": {"number": 12, "title": "Fix", "pull_request": {"url": "https://api.github.com/repos/octo/widgets/pulls/12"}},
	  "comment": {"body": "/review"},
	  "repository": {"name": "widgets", "full_name": "octo/widgets", "owner": {"login": "octo"}},
	  "installation": {"id": 5}
	}`
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest("issue_comment", body, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "review_command", dispatcher.events[0].Action)
	assert.Equal(t, 12, dispatcher.events[0].PRNumber)
}

func TestWebhookHandler_QueueFull(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("job queue is full")}
	h := NewWebhookHandler(webhook.NewVerifier("", discardLogger()), dispatcher, metrics.New(), discardLogger())

	body := strings.Replace(pullRequestPayload, "%s", "synchronize", 1)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest("pull_request", body, ""))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhookHandler_UnknownEvent(t *testing.T) {
	h := NewWebhookHandler(webhook.NewVerifier("", discardLogger()), &fakeDispatcher{}, metrics.New(), discardLogger())

	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest("ping", `{"zen":"Keep it logically awesome."}`, ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"processing"}`, rec.Body.String())
}

func TestWebhookHandler_BoundsEventTypeLabel(t *testing.T) {
	m := metrics.New()
	h := NewWebhookHandler(webhook.NewVerifier("", discardLogger()), &fakeDispatcher{}, m, discardLogger())

	for _, eventType := range []string{"made-up-1", "made-up-2", ""} {
		rec := httptest.NewRecorder()
		h.Handle(rec, webhookRequest(eventType, `{}`, ""))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest("ping", `{"zen":"x"}`, ""))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.WebhookRequests.WithLabelValues("other")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookRequests.WithLabelValues("ping")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.WebhookRequests))
}
