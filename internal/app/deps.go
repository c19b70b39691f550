package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cgigram/backend/internal/auth"
	"github.com/cgigram/backend/internal/config"
	"github.com/cgigram/backend/internal/db"
	"github.com/cgigram/backend/internal/engagement"
	"github.com/cgigram/backend/internal/feed"
	"github.com/cgigram/backend/internal/handlers"
	"github.com/cgigram/backend/internal/media"
	"github.com/cgigram/backend/internal/middleware"
	"github.com/cgigram/backend/internal/repositories"
	"github.com/cgigram/backend/internal/storage"
)

const mirrorShutdownTimeout = 30 * time.Second

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background workers and must be called
// before the process exits.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(), error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	reactions := repositories.NewPostgresReactionRepository(pool)
	ratings := repositories.NewPostgresRatingRepository(pool)
	views := repositories.NewPostgresViewRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	deletions := repositories.NewPostgresDeletionRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	recorder := &engagement.Recorder{
		Videos:    videos,
		Reactions: reactions,
		Ratings:   ratings,
		Views:     views,
		Comments:  comments,
		Deletions: deletions,
	}

	aggregator := &engagement.Aggregator{Ratings: ratings}

	activity := &feed.Builder{
		Uploads:   videos,
		Views:     views,
		Reactions: reactions,
		Comments:  comments,
		Deletions: deletions,
		Videos:    videos,
	}

	cleanup := func() {}

	var mirror handlers.MediaMirror
	if cfg.ObjectStore.Bucket != "" {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		m := media.NewMirror(videos, store, videos, media.MirrorConfig{
			QueueSize: cfg.Mirror.QueueSize,
			Workers:   cfg.Mirror.Workers,
		}, logger)
		mirror = m
		cleanup = func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), mirrorShutdownTimeout)
			defer cancel()
			if err := m.Shutdown(shutdownCtx); err != nil {
				logger.Warn("media mirror shutdown incomplete", "error", err)
			}
		}
	}

	return handlers.Dependencies{
		Users:          users,
		Sessions:       auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore),
		Videos:         videos,
		Recorder:       recorder,
		Ratings:        aggregator,
		Comments:       comments,
		Feed:           activity,
		Mirror:         mirror,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateRequests, cfg.AuthRateWindow, cfg.AuthRateBurst, 10*time.Minute),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, cleanup, nil
}
