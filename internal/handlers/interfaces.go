package handlers

import (
	"context"

	"github.com/cgigram/backend/internal/feed"
	"github.com/cgigram/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// SessionManager issues, authenticates and refreshes tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, username string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, token string)
}

// VideoStore captures persistence operations for the catalog handlers.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	Get(ctx context.Context, videoID string) (models.Video, error)
	List(ctx context.Context) ([]models.Video, error)
	Media(ctx context.Context, videoID string) ([]byte, error)
	Thumbnail(ctx context.Context, videoID string) ([]byte, error)
}

// EngagementRecorder writes engagement events on behalf of the handlers.
type EngagementRecorder interface {
	React(ctx context.Context, videoID, username, kind string) error
	Rate(ctx context.Context, videoID, username string, value int) error
	RecordView(ctx context.Context, videoID, username string) (bool, error)
	Comment(ctx context.Context, videoID, username, body string) (models.Comment, error)
	DeleteVideo(ctx context.Context, videoID, deletedBy string) error
}

// RatingReader resolves a video's live rating aggregate.
type RatingReader interface {
	RatingSummary(ctx context.Context, videoID string) (models.RatingSummary, error)
}

// CommentReader lists a video's comments for display.
type CommentReader interface {
	ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}

// ActivityBuilder assembles a user's activity feed.
type ActivityBuilder interface {
	Build(ctx context.Context, username string) ([]feed.Entry, error)
}

// MediaMirror schedules background copies of uploaded media to object storage.
type MediaMirror interface {
	Enqueue(ctx context.Context, videoID string) error
}
