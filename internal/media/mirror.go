package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"
)

// BlobStorage persists a blob under the given name and returns its public location.
type BlobStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// BlobSource reads a video's stored media payload.
type BlobSource interface {
	Media(ctx context.Context, videoID string) ([]byte, error)
}

// AssetRecorder persists the mirrored asset's public location on the video row.
type AssetRecorder interface {
	SetAssetURL(ctx context.Context, videoID, assetURL string) error
}

// MirrorConfig controls the concurrency characteristics of the mirror.
type MirrorConfig struct {
	QueueSize int
	Workers   int
}

// Mirror asynchronously copies uploaded media from the relational store to
// object storage so clips can be served from a CDN-friendly location. Failures
// only leave the asset URL empty; the authoritative blob stays in the store.
type Mirror struct {
	source   BlobSource
	storage  BlobStorage
	recorder AssetRecorder
	logger   *slog.Logger

	jobs   chan mirrorJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type mirrorJob struct {
	videoID string
}

var errMirrorClosed = errors.New("media mirror closed")

// NewMirror constructs a background worker pool that mirrors media blobs.
func NewMirror(source BlobSource, storage BlobStorage, recorder AssetRecorder, cfg MirrorConfig, logger *slog.Logger) *Mirror {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mirror{
		source:   source,
		storage:  storage,
		recorder: recorder,
		logger:   logger,
		jobs:     make(chan mirrorJob, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.worker()
	}

	return m
}

// Enqueue schedules mirroring for the supplied video.
func (m *Mirror) Enqueue(ctx context.Context, videoID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return errMirrorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return errMirrorClosed
	case m.jobs <- mirrorJob{videoID: videoID}:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (m *Mirror) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.cancel()
		close(m.jobs)
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Mirror) worker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case job, ok := <-m.jobs:
			if !ok {
				return
			}
			m.handleJob(job)
		}
	}
}

func (m *Mirror) handleJob(job mirrorJob) {
	if m.source == nil || m.storage == nil || m.recorder == nil {
		m.logger.Error("media mirror missing dependencies", "hasSource", m.source != nil, "hasStorage", m.storage != nil, "hasRecorder", m.recorder != nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	blob, err := m.source.Media(ctx, job.videoID)
	if err != nil {
		m.logger.Error("load media for mirror", "videoId", job.videoID, "error", err)
		return
	}

	key := path.Join(job.videoID, "video.mp4")
	location, err := m.storage.Save(ctx, key, bytes.NewReader(blob))
	if err != nil {
		m.logger.Error("mirror media to object storage", "videoId", job.videoID, "error", err)
		return
	}

	recordCtx, recordCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer recordCancel()

	if err := m.recorder.SetAssetURL(recordCtx, job.videoID, location); err != nil {
		m.logger.Error("record mirrored asset url", "videoId", job.videoID, "error", err)
	}
}
