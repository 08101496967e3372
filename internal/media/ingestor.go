package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/logging"
)

// AssetStorage persists media content and returns its public location.
type AssetStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// VideoAssetUpdater persists ingestion status updates for video records.
type VideoAssetUpdater interface {
	MarkAssetReady(ctx context.Context, id, mediaURL string, duration float64, size int64) error
	MarkAssetFailed(ctx context.Context, id string) error
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// IngestJob describes one staged upload awaiting persistence. FilePath points
// at a temp file owned by the ingestor once the job is accepted.
type IngestJob struct {
	VideoID     string
	FilePath    string
	ContentType string
}

// Ingestor asynchronously probes and persists uploaded video assets, marking
// the owning video record ready or failed.
type Ingestor struct {
	prober  *Prober
	storage AssetStorage
	updater VideoAssetUpdater
	logger  *slog.Logger

	jobs   chan IngestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errIngestorClosed = errors.New("asset ingestor closed")

// NewIngestor constructs a background worker pool that persists video assets.
func NewIngestor(prober *Prober, storage AssetStorage, updater VideoAssetUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
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

	ing := &Ingestor{
		prober:  prober,
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan IngestJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules asset persistence for the supplied job.
func (i *Ingestor) Enqueue(ctx context.Context, job IngestJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// worker drains the queue until it is closed. Cancellation only stops new
// enqueues; accepted jobs are always processed so staged files get cleaned up.
func (i *Ingestor) worker() {
	defer i.wg.Done()

	for job := range i.jobs {
		i.handleJob(job)
	}
}

func (i *Ingestor) handleJob(job IngestJob) {
	ctx, span := logging.StartSpan(logging.WithLogger(context.Background(), i.logger.With("videoId", job.VideoID)), "asset.ingest")
	defer span.End()
	log := logging.FromContext(ctx)

	defer func() {
		if err := os.Remove(job.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove staged asset", "path", job.FilePath, "error", err)
		}
	}()

	if i.storage == nil || i.updater == nil {
		log.Error("asset ingestor missing dependencies", "hasStorage", i.storage != nil, "hasUpdater", i.updater != nil)
		return
	}

	info, err := os.Stat(job.FilePath)
	if err != nil {
		log.Error("stat staged asset", "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	probeCtx, cancelProbe := context.WithTimeout(ctx, i.probeTimeout())
	duration, err := i.prober.Probe(probeCtx, job.FilePath)
	cancelProbe()
	if err != nil {
		log.Error("probe asset duration", "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	file, err := os.Open(job.FilePath)
	if err != nil {
		log.Error("open staged asset", "error", err)
		i.recordFailure(job.VideoID)
		return
	}
	defer file.Close()

	uploadCtx, cancelUpload := context.WithTimeout(ctx, 10*time.Minute)
	defer cancelUpload()

	key := path.Join("videos", job.VideoID, filepath.Base(job.FilePath))
	location, err := i.storage.Save(uploadCtx, key, job.ContentType, file)
	if err != nil {
		log.Error("persist asset", "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	if err := i.recordSuccess(job.VideoID, location, duration, info.Size()); err != nil {
		log.Error("mark asset ready", "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	log.Info("asset ready", "durationSeconds", duration, "sizeBytes", info.Size())
}

func (i *Ingestor) probeTimeout() time.Duration {
	if i.prober != nil && i.prober.Timeout > 0 {
		return 2 * i.prober.Timeout
	}
	return time.Minute
}

func (i *Ingestor) recordFailure(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkAssetFailed(ctx, videoID); err != nil {
		i.logger.Error("record asset failure", "videoId", videoID, "error", err)
	}
}

func (i *Ingestor) recordSuccess(videoID, location string, duration float64, size int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.updater.MarkAssetReady(ctx, videoID, location, duration, size)
}
