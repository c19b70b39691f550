package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cgigram/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		MaxUploadBytes:  1 << 20,
		ObjectStore:     config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer cleanup()

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Recorder == nil {
		t.Fatal("expected engagement recorder to be configured")
	}
	if deps.Ratings == nil {
		t.Fatal("expected rating aggregator to be configured")
	}
	if deps.Comments == nil {
		t.Fatal("expected comment repository to be configured")
	}
	if deps.Feed == nil {
		t.Fatal("expected activity feed builder to be configured")
	}
	if deps.Mirror == nil {
		t.Fatal("expected media mirror to be configured when a bucket is set")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
	if deps.MaxUploadBytes != 1<<20 {
		t.Fatalf("expected upload limit to pass through, got %d", deps.MaxUploadBytes)
	}
}

func TestBuildDependenciesWithoutObjectStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, config.Config{}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	if deps.Mirror != nil {
		t.Fatal("expected no media mirror without a bucket")
	}
}
