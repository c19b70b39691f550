package engagement

import (
	"context"

	"github.com/cgigram/backend/internal/models"
)

// VideoStore captures the video persistence operations the recorder needs.
type VideoStore interface {
	Get(ctx context.Context, videoID string) (models.Video, error)
	Delete(ctx context.Context, videoID string) error
}

// ReactionStore persists reaction rows and the derived counters.
type ReactionStore interface {
	Set(ctx context.Context, reaction models.Reaction) error
	RefreshCounts(ctx context.Context, videoID string) error
}

// RatingStore persists star ratings and their aggregates.
type RatingStore interface {
	Upsert(ctx context.Context, rating models.Rating) error
	Summary(ctx context.Context, videoID string) (models.RatingSummary, error)
	SetCachedAverage(ctx context.Context, videoID string, average float64) error
}

// ViewStore persists at-most-once view records.
type ViewStore interface {
	Record(ctx context.Context, view models.View) (bool, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
}

// DeletionStore appends to the deletion log.
type DeletionStore interface {
	Archive(ctx context.Context, record models.DeletionRecord) error
}
