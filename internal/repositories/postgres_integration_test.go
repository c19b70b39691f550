package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cgigram/backend/internal/auth"
	"github.com/cgigram/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		Username:  "alice",
		Password:  "secret-hash",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{Username: "alice", Password: "another-hash", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	fetched, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if fetched.Username != user.Username || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if _, err := repo.FindByUsername(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresVideoRepository_CreateGetListDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	createTestUser(t, userRepo, "alice")

	repo := NewPostgresVideoRepository(testPool)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	first := createTestVideo(t, repo, "alice", "First clip", base)
	second := createTestVideo(t, repo, "alice", "Second clip", base.Add(10*time.Minute))

	fetched, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if fetched.Title != "First clip" || fetched.Uploader != "alice" {
		t.Fatalf("unexpected video fetched: %+v", fetched)
	}
	if fetched.Views != 0 || fetched.Likes != 0 || fetched.Rating != 0 {
		t.Fatalf("expected zeroed counters, got %+v", fetched)
	}

	listed, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(listed))
	}
	if listed[0].ID != first.ID || listed[1].ID != second.ID {
		t.Fatalf("expected upload order, got [%s %s]", listed[0].ID, listed[1].ID)
	}

	media, err := repo.Media(ctx, first.ID)
	if err != nil {
		t.Fatalf("load media: %v", err)
	}
	if string(media) != "media-bytes" {
		t.Fatalf("unexpected media payload %q", media)
	}

	if err := repo.SetAssetURL(ctx, first.ID, "https://cdn.example.com/clip"); err != nil {
		t.Fatalf("set asset url: %v", err)
	}
	fetched, err = repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get after asset url: %v", err)
	}
	if fetched.AssetURL != "https://cdn.example.com/clip" {
		t.Fatalf("expected asset url persisted, got %q", fetched.AssetURL)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if _, err := repo.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresViewRepository_RecordOncePerUser(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	createTestUser(t, userRepo, "alice")
	createTestUser(t, userRepo, "bob")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, "alice", "First clip", time.Now().UTC())

	repo := NewPostgresViewRepository(testPool)

	first, err := repo.Record(ctx, models.View{VideoID: video.ID, Username: "bob"})
	if err != nil {
		t.Fatalf("record first view: %v", err)
	}
	if !first {
		t.Fatal("expected the first view to report true")
	}

	repeat, err := repo.Record(ctx, models.View{VideoID: video.ID, Username: "bob"})
	if err != nil {
		t.Fatalf("record repeat view: %v", err)
	}
	if repeat {
		t.Fatal("expected the repeat view to report false")
	}

	fetched, err := videoRepo.Get(ctx, video.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if fetched.Views != 1 {
		t.Fatalf("expected views counter 1, got %d", fetched.Views)
	}

	if _, err := repo.Record(ctx, models.View{VideoID: uuid.NewString(), Username: "bob"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
}

func TestPostgresReactionRepository_ExclusivityAndCounts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	createTestUser(t, userRepo, "alice")
	createTestUser(t, userRepo, "bob")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, "alice", "First clip", time.Now().UTC())

	repo := NewPostgresReactionRepository(testPool)

	setReaction := func(username, kind string) {
		t.Helper()
		if err := repo.Set(ctx, models.Reaction{VideoID: video.ID, Username: username, Kind: kind}); err != nil {
			t.Fatalf("set %s for %s: %v", kind, username, err)
		}
		if err := repo.RefreshCounts(ctx, video.ID); err != nil {
			t.Fatalf("refresh counts: %v", err)
		}
	}

	setReaction("bob", models.ReactionDislike)
	setReaction("bob", models.ReactionLike)
	setReaction("bob", models.ReactionHeart)
	setReaction("bob", models.ReactionHeart)
	setReaction("alice", models.ReactionLike)

	fetched, err := videoRepo.Get(ctx, video.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if fetched.Likes != 2 {
		t.Fatalf("expected 2 likes, got %d", fetched.Likes)
	}
	if fetched.Dislikes != 0 {
		t.Fatalf("expected the dislike to be replaced, got %d", fetched.Dislikes)
	}
	if fetched.Hearts != 1 {
		t.Fatalf("expected 1 heart, got %d", fetched.Hearts)
	}

	reactions, err := repo.ListByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list reactions: %v", err)
	}
	if len(reactions) != 2 {
		t.Fatalf("expected like and heart for bob, got %d rows", len(reactions))
	}

	err = repo.Set(ctx, models.Reaction{VideoID: uuid.NewString(), Username: "bob", Kind: models.ReactionLike})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
}

func TestPostgresRatingRepository_UpsertAndSummary(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	createTestUser(t, userRepo, "alice")
	createTestUser(t, userRepo, "bob")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, "alice", "First clip", time.Now().UTC())

	repo := NewPostgresRatingRepository(testPool)

	summary, err := repo.Summary(ctx, video.ID)
	if err != nil {
		t.Fatalf("summary without ratings: %v", err)
	}
	if summary.Count != 0 || summary.Average != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}

	if err := repo.Upsert(ctx, models.Rating{VideoID: video.ID, Username: "bob", Value: 5}); err != nil {
		t.Fatalf("upsert rating: %v", err)
	}
	if err := repo.Upsert(ctx, models.Rating{VideoID: video.ID, Username: "alice", Value: 4}); err != nil {
		t.Fatalf("upsert second rating: %v", err)
	}
	if err := repo.Upsert(ctx, models.Rating{VideoID: video.ID, Username: "bob", Value: 2}); err != nil {
		t.Fatalf("replace rating: %v", err)
	}

	summary, err = repo.Summary(ctx, video.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 2 {
		t.Fatalf("expected 2 ratings after overwrite, got %d", summary.Count)
	}
	if summary.Average != 3.00 {
		t.Fatalf("expected average 3.00, got %v", summary.Average)
	}

	if err := repo.SetCachedAverage(ctx, video.ID, summary.Average); err != nil {
		t.Fatalf("cache average: %v", err)
	}
	fetched, err := videoRepo.Get(ctx, video.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if fetched.Rating != 3.00 {
		t.Fatalf("expected cached rating 3.00, got %v", fetched.Rating)
	}
}

func TestPostgresCommentRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	createTestUser(t, userRepo, "alice")
	createTestUser(t, userRepo, "bob")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, "alice", "First clip", time.Now().UTC())

	repo := NewPostgresCommentRepository(testPool)

	first := models.Comment{VideoID: video.ID, Username: "bob", Body: "first", CreatedAt: time.Now().UTC().Add(-time.Minute)}
	if err := repo.Create(ctx, &first); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected the store to assign a comment id")
	}

	second := models.Comment{VideoID: video.ID, Username: "bob", Body: "second", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, &second); err != nil {
		t.Fatalf("create second comment: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected distinct comment ids, both %d", first.ID)
	}

	comments, err := repo.ListForVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Body != "second" {
		t.Fatalf("expected newest comment first, got %q", comments[0].Body)
	}

	mine, err := repo.ListByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 comments for bob, got %d", len(mine))
	}
}

func TestPostgresDeletionRepository_ArchiveAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresDeletionRepository(testPool)

	own := models.DeletionRecord{
		VideoID:   uuid.NewString(),
		Title:     "Mine",
		Uploader:  "alice",
		DeletedBy: "alice",
		DeletedAt: time.Now().UTC().Add(-time.Hour),
	}
	foreign := models.DeletionRecord{
		VideoID:   uuid.NewString(),
		Title:     "Also mine",
		Uploader:  "alice",
		DeletedBy: "bob",
		DeletedAt: time.Now().UTC(),
	}

	if err := repo.Archive(ctx, own); err != nil {
		t.Fatalf("archive own deletion: %v", err)
	}
	if err := repo.Archive(ctx, foreign); err != nil {
		t.Fatalf("archive foreign deletion: %v", err)
	}

	records, err := repo.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list for uploader: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected uploader to see both records, got %d", len(records))
	}
	if records[0].DeletedBy != "bob" {
		t.Fatalf("expected newest record first, got %+v", records[0])
	}

	records, err = repo.ListForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list for deleter: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Also mine" {
		t.Fatalf("expected one record for the deleter, got %+v", records)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	createTestUser(t, userRepo, "alice")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		Token:     uuid.NewString(),
		Username:  "alice",
		Kind:      auth.KindAccess,
		ExpiresAt: expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.Token)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.Username != "alice" || loaded.Kind != auth.KindAccess || !timesClose(loaded.ExpiresAt, expires, time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	updated := session
	updated.ExpiresAt = expires.Add(48 * time.Hour)
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("update session: %v", err)
	}

	loaded, err = store.Find(ctx, session.Token)
	if err != nil {
		t.Fatalf("find session after update: %v", err)
	}
	if !timesClose(loaded.ExpiresAt, updated.ExpiresAt, time.Millisecond) {
		t.Fatalf("expected updated expiry, got %v", loaded.ExpiresAt)
	}

	if err := store.Delete(ctx, session.Token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.Find(ctx, session.Token); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, session.Token); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE video_reactions, video_ratings, comments, video_views, deleted_videos, sessions, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		Username:  username,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, uploader, title string, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "a clip",
		Media:       []byte("media-bytes"),
		Thumbnail:   []byte("thumb-bytes"),
		Uploader:    uploader,
		CreatedAt:   createdAt,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
