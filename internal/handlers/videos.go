package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cgigram/backend/internal/catalog"
	"github.com/cgigram/backend/internal/engagement"
	"github.com/cgigram/backend/internal/logging"
	"github.com/cgigram/backend/internal/models"
	"github.com/cgigram/backend/internal/repositories"
)

// VideoHandler provides upload, catalog and deletion endpoints.
type VideoHandler struct {
	Videos         VideoStore
	Recorder       EngagementRecorder
	Ratings        RatingReader
	Comments       CommentReader
	Mirror         MediaMirror
	Sessions       SessionManager
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type videoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Uploader    string    `json:"uploader"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Dislikes    int64     `json:"dislikes"`
	Hearts      int64     `json:"hearts"`
	Rating      float64   `json:"rating"`
	AssetURL    string    `json:"assetUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type videoDetailResponse struct {
	videoResponse
	RatingCount   int64             `json:"ratingCount"`
	AverageRating float64           `json:"averageRating"`
	Comments      []commentResponse `json:"comments"`
}

// Collection handles GET (list) and POST (upload) on /api/v1/videos.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.upload(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videos, err := h.Videos.List(ctx)
	if err != nil {
		logger.Error("list videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	query := r.URL.Query().Get("q")
	sortKey := catalog.ParseSortKey(r.URL.Query().Get("sort"))

	videos = catalog.Filter(videos, query)
	videos = catalog.Sort(videos, sortKey)

	out := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoResponse(v))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": out})
}

func (h VideoHandler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	ctx, span := logging.StartSpan(ctx, "videos.upload")
	defer span.End()

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 256 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid upload form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title and description are required"})
		return
	}

	media, err := formFileBytes(r, "video")
	if err != nil {
		logger.Warn("upload missing video file", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a video file is required"})
		return
	}

	thumbnail, err := formFileBytes(r, "thumbnail")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		logger.Warn("upload bad thumbnail", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid thumbnail file"})
		return
	}

	video := models.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Media:       media,
		Thumbnail:   thumbnail,
		Uploader:    username,
		CreatedAt:   h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video", "error", err, "videoId", video.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		return
	}

	if h.Mirror != nil {
		if err := h.Mirror.Enqueue(ctx, video.ID); err != nil {
			// The store copy is authoritative; a missed mirror only delays the CDN URL.
			logger.Warn("enqueue media mirror", "error", err, "videoId", video.ID)
		}
	}

	respondJSON(ctx, w, http.StatusCreated, toVideoResponse(video))
}

// Item handles GET (detail) and DELETE on /api/v1/videos/{id}.
func (h VideoHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.detail(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	video, err := h.Videos.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("load video", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	// The detail page always recomputes the rating from raw rows; the cached
	// column is only trusted on listings.
	summary, err := h.Ratings.RatingSummary(ctx, videoID)
	if err != nil {
		logger.Error("aggregate ratings", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load ratings"})
		return
	}

	comments, err := h.Comments.ListForVideo(ctx, videoID)
	if err != nil {
		logger.Error("list comments", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load comments"})
		return
	}

	out := videoDetailResponse{
		videoResponse: toVideoResponse(video),
		RatingCount:   summary.Count,
		AverageRating: summary.Average,
		Comments:      make([]commentResponse, 0, len(comments)),
	}
	for _, c := range comments {
		out.Comments = append(out.Comments, commentResponse{
			ID:        c.ID,
			Username:  c.Username,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	videoID := r.PathValue("id")

	username, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	if err := h.Recorder.DeleteVideo(ctx, videoID, username); err != nil {
		switch {
		case errors.Is(err, engagement.ErrNotOwner):
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the uploader may delete this video"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		default:
			logger.Error("delete video", "error", err, "videoId", videoID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Media handles GET /api/v1/videos/{id}/media, streaming the stored payload.
func (h VideoHandler) Media(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, "video/mp4", h.Videos.Media)
}

// Thumbnail handles GET /api/v1/videos/{id}/thumbnail.
func (h VideoHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, "image/jpeg", h.Videos.Thumbnail)
}

func (h VideoHandler) serveBlob(w http.ResponseWriter, r *http.Request, contentType string, load func(ctx context.Context, videoID string) ([]byte, error)) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	videoID := r.PathValue("id")

	data, err := load(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("load video blob", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load media"})
		return
	}

	if len(data) == 0 {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no media stored for this video"})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func toVideoResponse(v models.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Uploader:    v.Uploader,
		Views:       v.Views,
		Likes:       v.Likes,
		Dislikes:    v.Dislikes,
		Hearts:      v.Hearts,
		Rating:      v.Rating,
		AssetURL:    v.AssetURL,
		CreatedAt:   v.CreatedAt,
	}
}

func formFileBytes(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
