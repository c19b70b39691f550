package handlers

import (
	"net/http"

	"github.com/cgigram/backend/internal/logging"
)

// ActivityHandler serves a user's personal activity feed.
type ActivityHandler struct {
	Feed     ActivityBuilder
	Sessions SessionManager
}

// Handle implements GET /api/v1/activity.
func (h ActivityHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	entries, err := h.Feed.Build(ctx, username)
	if err != nil {
		logger.Error("build activity feed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load activity"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"activity": entries})
}
