package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/review"
)

// ReviewService is the request path behind the review API.
type ReviewService interface {
	Review(ctx context.Context, userID string, req core.ReviewRequest) (*core.ReviewResult, error)
	SubmitFeedback(ctx context.Context, record core.FeedbackRecord) bool
	History(ctx context.Context, userID string) []core.HistoryEntry
}

// ReviewHandler serves snippet reviews, feedback and history.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(service ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: service, logger: logger}
}

type reviewRequest struct {
	core.ReviewRequest
	UserID string `json:"user_id,omitempty"`
}

// Review handles POST /review. The caller is identified by the user_id query
// parameter or body field.
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "code must not be empty")
		return
	}

	userID := userIDFrom(r, req.UserID)
	result, err := h.service.Review(r.Context(), userID, req.ReviewRequest)
	switch {
	case errors.Is(err, review.ErrRateLimited):
		writeError(w, h.logger, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		return
	case err != nil:
		h.logger.Error("review failed", "user_id", userID, "language", req.Language, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error reviewing code")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

// Feedback handles POST /feedback.
func (h *ReviewHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var record core.FeedbackRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if record.RequestID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "request_id is required")
		return
	}
	record.UserID = userIDFrom(r, record.UserID)

	stored := h.service.SubmitFeedback(r.Context(), record)
	if !stored {
		h.logger.Warn("feedback not persisted", "request_id", record.RequestID)
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Feedback received",
		"stored":  stored,
	})
}

// History handles GET /history.
func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r, "")
	entries := h.service.History(r.Context(), userID)
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"user_id": userID,
		"history": entries,
	})
}

func userIDFrom(r *http.Request, fromBody string) string {
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	if fromBody != "" {
		return fromBody
	}
	return core.AnonymousUser
}
