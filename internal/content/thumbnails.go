package content

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/metrics"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
)

// generateThumbnails runs the worker batch and the per-file group side by
// side. A failed batch is retried per file. Whatever both groups resolve is
// merged into the current entries, as long as load token is still current.
func (m *Manager) generateThumbnails(ctx context.Context, token uint64, workerList, perFileList []string) {
	m.mu.Lock()
	if m.seq == token {
		m.generating = true
	}
	m.mu.Unlock()

	m.thumbs.Add(1)
	go func() {
		defer m.thumbs.Done()

		var (
			mu      sync.Mutex
			results []platform.ThumbResult
			g       errgroup.Group
		)
		collect := func(rs []platform.ThumbResult) {
			mu.Lock()
			results = append(results, rs...)
			mu.Unlock()
		}

		if len(workerList) > 0 {
			g.Go(func() error {
				rs, err := m.provider.CreateThumbnailsInWorker(ctx, workerList)
				if err != nil {
					logging.Debug("thumbnail worker failed, resolving per file", logging.Err(err))
					metrics.RecordThumbnails("worker", "fallback", len(workerList))
					if rs, err = m.resolveEach(ctx, workerList); err != nil {
						return err
					}
				}
				collect(rs)
				return nil
			})
		}
		if len(perFileList) > 0 {
			g.Go(func() error {
				rs, err := m.resolveEach(ctx, perFileList)
				if err != nil {
					return err
				}
				collect(rs)
				return nil
			})
		}
		err := g.Wait()

		m.mu.Lock()
		current := m.seq == token
		applied := 0
		if current {
			applied = m.applyThumbnails(results)
			m.generating = false
		}
		m.mu.Unlock()

		if !current {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Warn("thumbnail generation failed", logging.Err(err))
			m.notifier.ShowNotification(msgThumbnailsFailed, notify.LevelWarning, true)
		}
		logging.Debug("thumbnails attached", logging.Int("count", applied))
	}()
}

// resolveEach resolves thumbnails one file at a time. The first failure
// fails the whole group.
func (m *Manager) resolveEach(ctx context.Context, paths []string) ([]platform.ThumbResult, error) {
	out := make([]platform.ThumbResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	workers := m.cfg.ThumbWorkers
	if workers <= 0 {
		workers = 2
	}
	g.SetLimit(workers * 2)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			r, err := m.provider.ResolveThumbnailURL(gctx, p)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
