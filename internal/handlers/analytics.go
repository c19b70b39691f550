package handlers

import (
	"net/http"

	"github.com/cgigram/backend/internal/catalog"
	"github.com/cgigram/backend/internal/engagement"
	"github.com/cgigram/backend/internal/logging"
	"github.com/cgigram/backend/internal/models"
)

// AnalyticsHandler serves the aggregate engagement overview.
type AnalyticsHandler struct {
	Videos  VideoStore
	Ratings RatingReader
}

type analyticsRow struct {
	videoResponse
	RatingCount   int64   `json:"ratingCount"`
	AverageRating float64 `json:"averageRating"`
}

type analyticsResponse struct {
	TopRated []analyticsRow `json:"topRated"`
	Overview []analyticsRow `json:"overview"`
}

// Handle implements GET /api/v1/analytics.
//
// Cached counters drive the overview, but the rating figures are always
// recomputed live from the rating rows, mirroring the detail page.
func (h AnalyticsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videos, err := h.Videos.List(ctx)
	if err != nil {
		logger.Error("list videos for analytics", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	videos = catalog.Filter(videos, r.URL.Query().Get("q"))

	summaries := make(map[string]models.RatingSummary, len(videos))
	for _, v := range videos {
		summary, err := h.Ratings.RatingSummary(ctx, v.ID)
		if err != nil {
			logger.Error("aggregate ratings for analytics", "error", err, "videoId", v.ID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load ratings"})
			return
		}
		summaries[v.ID] = summary
	}

	// Only rated videos compete for the top slot; an unrated catalog yields
	// an empty section rather than an arbitrary winner.
	rated := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if summaries[v.ID].Count > 0 {
			rated = append(rated, v)
		}
	}
	top := engagement.TopByMetric(rated, func(v models.Video) float64 {
		return summaries[v.ID].Average
	})

	resp := analyticsResponse{
		TopRated: make([]analyticsRow, 0, len(top)),
		Overview: make([]analyticsRow, 0, len(videos)),
	}
	for _, v := range top {
		resp.TopRated = append(resp.TopRated, toAnalyticsRow(v, summaries[v.ID]))
	}
	for _, v := range videos {
		resp.Overview = append(resp.Overview, toAnalyticsRow(v, summaries[v.ID]))
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

func toAnalyticsRow(v models.Video, summary models.RatingSummary) analyticsRow {
	return analyticsRow{
		videoResponse: toVideoResponse(v),
		RatingCount:   summary.Count,
		AverageRating: summary.Average,
	}
}
