// Package feed assembles a user's activity feed: their uploads, views,
// reactions, comments and deletions merged into one chronological list.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cgigram/backend/internal/models"
)

// Entry is a single feed item. OccurredAt is nil for categories that carry no
// natural timestamp (views and reactions); such entries always sort after
// every dated entry.
type Entry struct {
	OccurredAt  *time.Time `json:"occurredAt,omitempty"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
}

// Feed categories.
const (
	CategoryUpload   = "upload"
	CategoryView     = "view"
	CategoryReaction = "reaction"
	CategoryComment  = "comment"
	CategoryDeletion = "deletion"
)

// UploadStore lists a user's uploaded videos.
type UploadStore interface {
	ListByUploader(ctx context.Context, username string) ([]models.Video, error)
}

// ViewStore lists a user's view records.
type ViewStore interface {
	ListByUser(ctx context.Context, username string) ([]models.View, error)
}

// ReactionStore lists a user's reactions.
type ReactionStore interface {
	ListByUser(ctx context.Context, username string) ([]models.Reaction, error)
}

// CommentStore lists a user's comments.
type CommentStore interface {
	ListByUser(ctx context.Context, username string) ([]models.Comment, error)
}

// DeletionStore lists deletion records where the user is deleter or uploader.
type DeletionStore interface {
	ListForUser(ctx context.Context, username string) ([]models.DeletionRecord, error)
}

// VideoGetter resolves a video id to its current record, used to put titles
// on view and reaction entries.
type VideoGetter interface {
	Get(ctx context.Context, videoID string) (models.Video, error)
}

// Builder gathers the five event categories for one user.
type Builder struct {
	Uploads   UploadStore
	Views     ViewStore
	Reactions ReactionStore
	Comments  CommentStore
	Deletions DeletionStore
	Videos    VideoGetter
}

// Build returns the user's feed, newest first. Entries without a timestamp
// come last, stable among themselves.
func (b *Builder) Build(ctx context.Context, username string) ([]Entry, error) {
	var entries []Entry

	uploads, err := b.Uploads.ListByUploader(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	for _, v := range uploads {
		at := v.CreatedAt
		entries = append(entries, Entry{
			OccurredAt:  &at,
			Category:    CategoryUpload,
			Description: fmt.Sprintf("Uploaded %q", v.Title),
		})
	}

	comments, err := b.Comments.ListByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	titles := newTitleCache(b.Videos)
	for _, c := range comments {
		at := c.CreatedAt
		entries = append(entries, Entry{
			OccurredAt:  &at,
			Category:    CategoryComment,
			Description: fmt.Sprintf("Commented on %q: %s", titles.lookup(ctx, c.VideoID), c.Body),
		})
	}

	deletions, err := b.Deletions.ListForUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list deletions: %w", err)
	}
	for _, d := range deletions {
		at := d.DeletedAt
		description := fmt.Sprintf("Deleted %q", d.Title)
		if d.DeletedBy != username {
			description = fmt.Sprintf("%q (uploaded by you) was deleted by %s", d.Title, d.DeletedBy)
		}
		entries = append(entries, Entry{
			OccurredAt:  &at,
			Category:    CategoryDeletion,
			Description: description,
		})
	}

	views, err := b.Views.ListByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	for _, v := range views {
		entries = append(entries, Entry{
			Category:    CategoryView,
			Description: fmt.Sprintf("Watched %q", titles.lookup(ctx, v.VideoID)),
		})
	}

	reactions, err := b.Reactions.ListByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	for _, r := range reactions {
		entries = append(entries, Entry{
			Category:    CategoryReaction,
			Description: fmt.Sprintf("Reacted with %s to %q", r.Kind, titles.lookup(ctx, r.VideoID)),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].OccurredAt, entries[j].OccurredAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return entries, nil
}

// titleCache memoises video title lookups within one Build call.
type titleCache struct {
	videos VideoGetter
	known  map[string]string
}

func newTitleCache(videos VideoGetter) *titleCache {
	return &titleCache{videos: videos, known: make(map[string]string)}
}

func (c *titleCache) lookup(ctx context.Context, videoID string) string {
	if title, ok := c.known[videoID]; ok {
		return title
	}

	title := videoID
	if c.videos != nil {
		if video, err := c.videos.Get(ctx, videoID); err == nil {
			title = video.Title
		}
	}

	c.known[videoID] = title
	return title
}
