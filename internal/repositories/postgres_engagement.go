package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cgigram/backend/internal/db"
	"github.com/cgigram/backend/internal/models"
)

// PostgresReactionRepository provides PostgreSQL-backed persistence for reactions.
type PostgresReactionRepository struct {
	pool db.Pool
}

// NewPostgresReactionRepository constructs a reaction repository backed by PostgreSQL.
func NewPostgresReactionRepository(pool db.Pool) *PostgresReactionRepository {
	return &PostgresReactionRepository{pool: pool}
}

// Set records a reaction. For like/dislike the opposing row is removed in the
// same transaction, so a user never holds both. The unique
// (video_id, username, kind) index plus ON CONFLICT DO NOTHING makes repeat
// reactions, hearts included, no-ops.
func (r *PostgresReactionRepository) Set(ctx context.Context, reaction models.Reaction) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reaction transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if opposite := oppositeKind(reaction.Kind); opposite != "" {
		if _, err := tx.Exec(ctx, `
            DELETE FROM video_reactions
            WHERE video_id = $1 AND username = $2 AND kind = $3
        `, reaction.VideoID, reaction.Username, opposite); err != nil {
			return fmt.Errorf("remove opposing reaction: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO video_reactions (video_id, username, kind)
        VALUES ($1, $2, $3)
        ON CONFLICT (video_id, username, kind) DO NOTHING
    `, reaction.VideoID, reaction.Username, reaction.Kind); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert reaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reaction transaction: %w", err)
	}

	return nil
}

// RefreshCounts recomputes the distinct-user counts per reaction kind and
// persists them onto the videos row.
func (r *PostgresReactionRepository) RefreshCounts(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET likes    = (SELECT COUNT(DISTINCT username) FROM video_reactions WHERE video_id = $1 AND kind = 'like'),
            dislikes = (SELECT COUNT(DISTINCT username) FROM video_reactions WHERE video_id = $1 AND kind = 'dislike'),
            hearts   = (SELECT COUNT(DISTINCT username) FROM video_reactions WHERE video_id = $1 AND kind = 'heart'),
            modified_at = NOW()
        WHERE video_id = $1
    `, videoID)
	if err != nil {
		return fmt.Errorf("refresh reaction counts: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUser returns every reaction a user has recorded.
func (r *PostgresReactionRepository) ListByUser(ctx context.Context, username string) ([]models.Reaction, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id, username, kind
        FROM video_reactions
        WHERE username = $1
    `, username)
	if err != nil {
		return nil, fmt.Errorf("query reactions by user: %w", err)
	}
	defer rows.Close()

	var reactions []models.Reaction
	for rows.Next() {
		var reaction models.Reaction
		if err := rows.Scan(&reaction.VideoID, &reaction.Username, &reaction.Kind); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reactions = append(reactions, reaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}

	return reactions, nil
}

func oppositeKind(kind string) string {
	switch kind {
	case models.ReactionLike:
		return models.ReactionDislike
	case models.ReactionDislike:
		return models.ReactionLike
	default:
		return ""
	}
}

// PostgresRatingRepository provides PostgreSQL-backed persistence for ratings.
type PostgresRatingRepository struct {
	pool db.Pool
}

// NewPostgresRatingRepository constructs a rating repository backed by PostgreSQL.
func NewPostgresRatingRepository(pool db.Pool) *PostgresRatingRepository {
	return &PostgresRatingRepository{pool: pool}
}

// Upsert inserts or replaces the rating for the (video, user) pair.
func (r *PostgresRatingRepository) Upsert(ctx context.Context, rating models.Rating) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO video_ratings (video_id, username, rating)
        VALUES ($1, $2, $3)
        ON CONFLICT (video_id, username)
        DO UPDATE SET rating = EXCLUDED.rating
    `, rating.VideoID, rating.Username, rating.Value)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("upsert rating: %w", err)
	}

	return nil
}

// Summary aggregates the rating rows for a video.
func (r *PostgresRatingRepository) Summary(ctx context.Context, videoID string) (models.RatingSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(ROUND(AVG(rating)::numeric, 2), 0)
        FROM video_ratings
        WHERE video_id = $1
    `, videoID)

	var summary models.RatingSummary
	if err := row.Scan(&summary.Count, &summary.Average); err != nil {
		return models.RatingSummary{}, fmt.Errorf("aggregate ratings: %w", err)
	}

	return summary, nil
}

// SetCachedAverage writes the recomputed average onto the videos row.
func (r *PostgresRatingRepository) SetCachedAverage(ctx context.Context, videoID string, average float64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET rating = $2, modified_at = NOW()
        WHERE video_id = $1
    `, videoID, average)
	if err != nil {
		return fmt.Errorf("update cached rating: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresViewRepository provides PostgreSQL-backed persistence for view records.
type PostgresViewRepository struct {
	pool db.Pool
}

// NewPostgresViewRepository constructs a view repository backed by PostgreSQL.
func NewPostgresViewRepository(pool db.Pool) *PostgresViewRepository {
	return &PostgresViewRepository{pool: pool}
}

// Record marks the video as viewed by the user. The conditional insert and the
// counter increment run as one statement, so concurrent first views cannot
// double-count: the counter moves by exactly the number of rows actually
// inserted.
func (r *PostgresViewRepository) Record(ctx context.Context, view models.View) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO video_views (video_id, username)
            VALUES ($1, $2)
            ON CONFLICT (video_id, username) DO NOTHING
            RETURNING 1
        )
        UPDATE videos
        SET views = views + (SELECT COUNT(*) FROM inserted),
            modified_at = NOW()
        WHERE video_id = $1
        RETURNING (SELECT COUNT(*) FROM inserted) > 0
    `, view.VideoID, view.Username)

	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("record view: %w", err)
	}

	return inserted, nil
}

// ListByUser returns every view a user has recorded.
func (r *PostgresViewRepository) ListByUser(ctx context.Context, username string) ([]models.View, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id, username
        FROM video_views
        WHERE username = $1
    `, username)
	if err != nil {
		return nil, fmt.Errorf("query views by user: %w", err)
	}
	defer rows.Close()

	var views []models.View
	for rows.Next() {
		var view models.View
		if err := rows.Scan(&view.VideoID, &view.Username); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate views: %w", err)
	}

	return views, nil
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create inserts a comment. The id comes from the store's sequence, which
// keeps identifiers unique and ordered under concurrent inserts.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO comments (video_id, username, body, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING comment_id
    `, comment.VideoID, comment.Username, comment.Body, comment.CreatedAt)

	if err := row.Scan(&comment.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListForVideo returns a video's comments newest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	return r.list(ctx, `
        SELECT comment_id, video_id, username, body, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC, comment_id DESC
    `, videoID)
}

// ListByUser returns every comment a user has posted, newest first.
func (r *PostgresCommentRepository) ListByUser(ctx context.Context, username string) ([]models.Comment, error) {
	return r.list(ctx, `
        SELECT comment_id, video_id, username, body, created_at
        FROM comments
        WHERE username = $1
        ORDER BY created_at DESC, comment_id DESC
    `, username)
}

func (r *PostgresCommentRepository) list(ctx context.Context, query, arg string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.VideoID, &comment.Username, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// PostgresDeletionRepository provides PostgreSQL-backed persistence for the deletion log.
type PostgresDeletionRepository struct {
	pool db.Pool
}

// NewPostgresDeletionRepository constructs a deletion-log repository backed by PostgreSQL.
func NewPostgresDeletionRepository(pool db.Pool) *PostgresDeletionRepository {
	return &PostgresDeletionRepository{pool: pool}
}

// Archive appends a deletion record. Records are never updated or removed.
func (r *PostgresDeletionRepository) Archive(ctx context.Context, record models.DeletionRecord) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO deleted_videos (video_id, title, uploaded_by, deleted_by, description, deleted_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, record.VideoID, record.Title, record.Uploader, record.DeletedBy, record.Description, record.DeletedAt)
	if err != nil {
		return fmt.Errorf("insert deletion record: %w", err)
	}

	return nil
}

// ListForUser returns records where the user deleted the video or originally
// uploaded it, newest first.
func (r *PostgresDeletionRepository) ListForUser(ctx context.Context, username string) ([]models.DeletionRecord, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id, title, uploaded_by, deleted_by, description, deleted_at
        FROM deleted_videos
        WHERE deleted_by = $1 OR uploaded_by = $1
        ORDER BY deleted_at DESC
    `, username)
	if err != nil {
		return nil, fmt.Errorf("query deletion records: %w", err)
	}
	defer rows.Close()

	var records []models.DeletionRecord
	for rows.Next() {
		var record models.DeletionRecord
		if err := rows.Scan(&record.VideoID, &record.Title, &record.Uploader, &record.DeletedBy, &record.Description, &record.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan deletion record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deletion records: %w", err)
	}

	return records, nil
}

var _ ReactionRepository = (*PostgresReactionRepository)(nil)
var _ RatingRepository = (*PostgresRatingRepository)(nil)
var _ ViewRepository = (*PostgresViewRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ DeletionRepository = (*PostgresDeletionRepository)(nil)
