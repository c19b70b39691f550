package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cgigram/backend/internal/logging"
	"github.com/cgigram/backend/internal/models"
)

var (
	// ErrUnknownReaction indicates a reaction kind outside like/dislike/heart.
	ErrUnknownReaction = errors.New("unknown reaction kind")
	// ErrRatingOutOfRange indicates a star value outside [1,5].
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	// ErrEmptyComment indicates an empty or whitespace-only comment body.
	ErrEmptyComment = errors.New("comment must not be empty")
	// ErrNotOwner indicates the caller is not the video's uploader.
	ErrNotOwner = errors.New("only the uploader may delete a video")
)

// Recorder writes engagement events against videos and keeps the derived
// counters on the video row in step.
type Recorder struct {
	Videos    VideoStore
	Reactions ReactionStore
	Ratings   RatingStore
	Views     ViewStore
	Comments  CommentStore
	Deletions DeletionStore

	NowFunc func() time.Time
}

// React records a like, dislike or heart for the (video, user) pair and
// refreshes the video's reaction counters. Likes and dislikes are mutually
// exclusive; recording one removes the other. Re-recording any reaction,
// hearts included, changes nothing.
func (r *Recorder) React(ctx context.Context, videoID, username, kind string) error {
	switch kind {
	case models.ReactionLike, models.ReactionDislike, models.ReactionHeart:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReaction, kind)
	}

	if err := r.Reactions.Set(ctx, models.Reaction{VideoID: videoID, Username: username, Kind: kind}); err != nil {
		return fmt.Errorf("set reaction: %w", err)
	}

	if err := r.Reactions.RefreshCounts(ctx, videoID); err != nil {
		return fmt.Errorf("refresh reaction counts: %w", err)
	}

	return nil
}

// Rate upserts the user's star rating for the video and recomputes the cached
// average. A second submission replaces the first rather than adding to it.
func (r *Recorder) Rate(ctx context.Context, videoID, username string, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("%w: got %d", ErrRatingOutOfRange, value)
	}

	if err := r.Ratings.Upsert(ctx, models.Rating{VideoID: videoID, Username: username, Value: value}); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}

	summary, err := r.Ratings.Summary(ctx, videoID)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}

	if err := r.Ratings.SetCachedAverage(ctx, videoID, summary.Average); err != nil {
		return fmt.Errorf("cache average rating: %w", err)
	}

	return nil
}

// RecordView marks the video as watched by the user. The first view bumps the
// view counter by exactly one; repeats are silent no-ops. Returns whether this
// was the user's first view.
func (r *Recorder) RecordView(ctx context.Context, videoID, username string) (bool, error) {
	inserted, err := r.Views.Record(ctx, models.View{VideoID: videoID, Username: username})
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}
	return inserted, nil
}

// Comment posts free text against the video. Empty or whitespace-only bodies
// are rejected before anything is written.
func (r *Recorder) Comment(ctx context.Context, videoID, username, body string) (models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return models.Comment{}, ErrEmptyComment
	}

	comment := models.Comment{
		VideoID:   videoID,
		Username:  username,
		Body:      body,
		CreatedAt: r.now(),
	}

	if err := r.Comments.Create(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	return comment, nil
}

// DeleteVideo archives a deletion record and removes the video together with
// its dependent rows. Only the uploader may delete; anyone else gets
// ErrNotOwner and nothing is written.
func (r *Recorder) DeleteVideo(ctx context.Context, videoID, deletedBy string) error {
	ctx, span := logging.StartSpan(ctx, "engagement.delete_video")
	defer span.End()

	video, err := r.Videos.Get(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video: %w", err)
	}

	if video.Uploader != deletedBy {
		return ErrNotOwner
	}

	record := models.DeletionRecord{
		VideoID:     video.ID,
		Title:       video.Title,
		Uploader:    video.Uploader,
		DeletedBy:   deletedBy,
		Description: video.Description,
		DeletedAt:   r.now(),
	}

	if err := r.Deletions.Archive(ctx, record); err != nil {
		return fmt.Errorf("archive deletion record: %w", err)
	}

	if err := r.Videos.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	return nil
}

func (r *Recorder) now() time.Time {
	if r.NowFunc != nil {
		return r.NowFunc()
	}
	return time.Now().UTC()
}
