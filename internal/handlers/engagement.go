package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cgigram/backend/internal/engagement"
	"github.com/cgigram/backend/internal/logging"
	"github.com/cgigram/backend/internal/repositories"
)

// EngagementHandler exposes reaction, rating, view and comment endpoints.
type EngagementHandler struct {
	Recorder EngagementRecorder
	Sessions SessionManager
}

type reactRequest struct {
	Kind string `json:"kind"`
}

type rateRequest struct {
	Value int `json:"value"`
}

type commentRequest struct {
	Text string `json:"text"`
}

// React handles POST /api/v1/videos/{id}/reactions.
//
// Store failures are logged but never surfaced: the response is 204 either
// way so a failed write never interrupts the like/dislike flow.
func (h EngagementHandler) React(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reaction payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Recorder.React(ctx, videoID, username, req.Kind); err != nil {
		if errors.Is(err, engagement.ErrUnknownReaction) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "reaction must be like, dislike or heart"})
			return
		}
		logger.Error("save reaction", "error", err, "videoId", videoID, "kind", req.Kind)
	}

	w.WriteHeader(http.StatusNoContent)
}

// Rate handles POST /api/v1/videos/{id}/rating.
func (h EngagementHandler) Rate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid rating payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Recorder.Rate(ctx, videoID, username, req.Value); err != nil {
		switch {
		case errors.Is(err, engagement.ErrRatingOutOfRange):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		default:
			logger.Error("save rating", "error", err, "videoId", videoID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save rating"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// View handles POST /api/v1/videos/{id}/views.
func (h EngagementHandler) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	firstView, err := h.Recorder.RecordView(ctx, videoID, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("record view", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to record view"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"firstView": firstView})
}

// Comment handles POST /api/v1/videos/{id}/comments.
func (h EngagementHandler) Comment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	comment, err := h.Recorder.Comment(ctx, videoID, username, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrEmptyComment):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "comment must not be empty"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		default:
			logger.Error("save comment", "error", err, "videoId", videoID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save comment"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, commentResponse{
		ID:        comment.ID,
		Username:  comment.Username,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	})
}
