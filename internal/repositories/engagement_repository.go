package repositories

import (
	"context"

	"github.com/cgigram/backend/internal/models"
)

// ReactionRepository defines the data access contract for reaction rows.
type ReactionRepository interface {
	// Set records a reaction, removing the opposing like/dislike row in the
	// same transaction. Re-recording an existing reaction is a no-op.
	Set(ctx context.Context, reaction models.Reaction) error
	// RefreshCounts recomputes the distinct-user like/dislike/heart counts
	// for the video and persists them onto the videos row.
	RefreshCounts(ctx context.Context, videoID string) error
	ListByUser(ctx context.Context, username string) ([]models.Reaction, error)
}

// RatingRepository defines the data access contract for star ratings.
type RatingRepository interface {
	// Upsert inserts or replaces the rating for the (video, user) pair.
	Upsert(ctx context.Context, rating models.Rating) error
	// Summary aggregates the rating rows for a video. Average is rounded to
	// two decimal places and zero when no ratings exist.
	Summary(ctx context.Context, videoID string) (models.RatingSummary, error)
	// SetCachedAverage writes the average onto the videos row.
	SetCachedAverage(ctx context.Context, videoID string, average float64) error
}

// ViewRepository defines the data access contract for view records.
type ViewRepository interface {
	// Record marks the video as viewed by the user. The first record per
	// (video, user) increments the video's view counter by exactly one;
	// repeats change nothing. Returns true when a new row was inserted.
	Record(ctx context.Context, view models.View) (bool, error)
	ListByUser(ctx context.Context, username string) ([]models.View, error)
}

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	// Create inserts a comment and fills in its store-generated id.
	Create(ctx context.Context, comment *models.Comment) error
	// ListForVideo returns a video's comments newest first.
	ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	ListByUser(ctx context.Context, username string) ([]models.Comment, error)
}

// DeletionRepository defines the data access contract for the deletion log.
type DeletionRepository interface {
	Archive(ctx context.Context, record models.DeletionRecord) error
	// ListForUser returns records where the user is the deleter or the
	// original uploader.
	ListForUser(ctx context.Context, username string) ([]models.DeletionRecord, error)
}
