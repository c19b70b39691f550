package repositories

import (
	"context"

	"github.com/cgigram/backend/internal/models"
)

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	// Get returns a single video without its binary payloads.
	Get(ctx context.Context, videoID string) (models.Video, error)
	// List returns every video without binary payloads, oldest first.
	List(ctx context.Context) ([]models.Video, error)
	Media(ctx context.Context, videoID string) ([]byte, error)
	Thumbnail(ctx context.Context, videoID string) ([]byte, error)
	SetAssetURL(ctx context.Context, videoID, assetURL string) error
	Delete(ctx context.Context, videoID string) error
	ListByUploader(ctx context.Context, username string) ([]models.Video, error)
}
