package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/metrics"
)

const (
	ThumbMaxSize = 400
	ThumbQuality = 80
)

// RenderThumbnail decodes src, fits it within ThumbMaxSize x ThumbMaxSize
// preserving aspect ratio and writes it to dst as JPEG.
func RenderThumbnail(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	thumb := imaging.Fit(img, ThumbMaxSize, ThumbMaxSize, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(ThumbQuality)); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}

type thumbJob struct {
	path   string
	result chan<- ThumbResult
}

// ThumbPool renders thumbnails for local files on a fixed set of workers
type ThumbPool struct {
	metaFolder string
	workers    int
	queue      chan thumbJob

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewThumbPool creates a pool. It accepts work only after Start.
func NewThumbPool(metaFolder string, workers int) *ThumbPool {
	if workers <= 0 {
		workers = 2
	}
	return &ThumbPool{
		metaFolder: metaFolder,
		workers:    workers,
		queue:      make(chan thumbJob, 256),
	}
}

// Start launches the worker goroutines.
func (p *ThumbPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(p.ctx)
	}
	logging.Info("thumbnail workers started", logging.Int("workers", p.workers))
}

// Stop signals workers to stop and waits for them to finish.
func (p *ThumbPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logging.Info("thumbnail workers stopped")
}

// Running reports whether the workers accept batches
func (p *ThumbPool) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// CreateThumbnails renders a batch on the workers. Files that cannot be
// rendered come back with an empty ThumbPath; the batch itself fails only
// when the pool is down or ctx ends.
func (p *ThumbPool) CreateThumbnails(ctx context.Context, paths []string) ([]ThumbResult, error) {
	p.mu.RLock()
	running, poolCtx := p.running, p.ctx
	p.mu.RUnlock()
	if !running {
		return nil, ErrWorkerUnavailable
	}

	results := make(chan ThumbResult, len(paths))
	for _, path := range paths {
		select {
		case p.queue <- thumbJob{path: path, result: results}:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-poolCtx.Done():
			return nil, ErrWorkerUnavailable
		}
	}

	out := make([]ThumbResult, 0, len(paths))
	for range paths {
		select {
		case r := <-results:
			out = append(out, r)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-poolCtx.Done():
			return nil, ErrWorkerUnavailable
		}
	}
	return out, nil
}

// Resolve returns the thumbnail of one file, rendering it when it is a
// decodable image without an up to date thumbnail.
func (p *ThumbPool) Resolve(ctx context.Context, path string) (ThumbResult, error) {
	if err := ctx.Err(); err != nil {
		return ThumbResult{}, err
	}
	return p.thumbnailFor(path, "file"), nil
}

func (p *ThumbPool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			job.result <- p.thumbnailFor(job.path, "worker")
		}
	}
}

func (p *ThumbPool) thumbnailFor(path, pipeline string) ThumbResult {
	sep := string(filepath.Separator)
	dst := entry.ThumbFileLocation(path, sep, p.metaFolder)
	res := ThumbResult{FilePath: path}

	if fresh(path, dst) {
		res.ThumbPath = dst
		metrics.RecordThumbnails(pipeline, "cached", 1)
		return res
	}
	if !entry.IsRenderableImage(entry.Extension(filepath.Base(path))) {
		metrics.RecordThumbnails(pipeline, "unsupported", 1)
		return res
	}
	if err := RenderThumbnail(path, dst); err != nil {
		logging.Debug("thumbnail render failed", logging.String("path", path), logging.Err(err))
		metrics.RecordThumbnails(pipeline, "failed", 1)
		return res
	}
	res.ThumbPath = dst
	metrics.RecordThumbnails(pipeline, "rendered", 1)
	return res
}

// fresh reports whether thumb exists and is not older than src
func fresh(src, thumb string) bool {
	ti, err := os.Stat(thumb)
	if err != nil {
		return false
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !ti.ModTime().Before(si.ModTime())
}
