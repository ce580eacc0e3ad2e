// Package app wires the storage, location and directory services together.
package app

import (
	"context"
	"errors"

	"github.com/ngenohkevin/tagdeck/config"
	"github.com/ngenohkevin/tagdeck/internal/content"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/metastore"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
	"github.com/ngenohkevin/tagdeck/internal/search"
	"github.com/ngenohkevin/tagdeck/internal/server"
	"github.com/ngenohkevin/tagdeck/internal/watcher"
)

// App holds the long lived services
type App struct {
	Config        *config.Config
	Notifications *notify.Center
	Locations     *location.Manager
	Local         *platform.Local
	Thumbs        *platform.ThumbPool
	Storage       *platform.Facade
	Meta          *metastore.Store
	Watcher       *watcher.Watcher
	Search        *search.Results
	Content       *content.Manager
}

// New builds the services. Nothing runs until Start.
func New(cfg *config.Config) *App {
	center := notify.NewCenter()
	local := platform.NewLocal(cfg.MetaFolder, nil)
	thumbs := platform.NewThumbPool(cfg.MetaFolder, cfg.ThumbWorkers)
	storage := platform.NewFacade(local, thumbs, cfg.MetaFolder)

	a := &App{
		Config:        cfg,
		Notifications: center,
		Locations:     location.NewManager(center, cfg.PersistTagsInSidecarFile),
		Local:         local,
		Thumbs:        thumbs,
		Storage:       storage,
		Meta:          metastore.New(storage, cfg.MetaFolder, cfg.MetaCacheTTL),
		Watcher:       watcher.New(cfg.WatchInterval, cfg.MetaFolder),
		Search:        search.New(),
	}
	a.Content = content.NewManager(content.Options{
		Config:    cfg,
		Provider:  storage,
		Meta:      a.Meta,
		Notifier:  center,
		Watcher:   a.Watcher,
		Locations: a.Locations,
		Search:    a.Search,
	})

	a.Locations.Subscribe(a.onLocationChange)
	return a
}

// onLocationChange points storage at the new location, then lists its root.
func (a *App) onLocationChange(loc *location.Location) {
	ctx := context.Background()

	a.Meta.Reset()
	a.Search.Exit()
	if err := a.Storage.Use(ctx, loc); err != nil {
		logging.Warn("storage backend unavailable", logging.Err(err))
	}

	if loc != nil && a.Locations.SkipInitialDirList() {
		return
	}
	err := a.Content.HandleLocationChange(ctx, loc)
	if err != nil && !errors.Is(err, content.ErrLoadSuperseded) {
		logging.Warn("opening location failed", logging.Err(err))
	}
}

// Start runs the thumbnail workers, seeds the locations and opens the
// default one.
func (a *App) Start(ctx context.Context, seed []location.Location) {
	a.Thumbs.Start(ctx)

	for _, loc := range seed {
		a.Locations.Add(loc, false, -1)
	}
	if !a.Locations.OpenDefault() {
		logging.Info("no default location configured")
	}
}

// ServerDeps exposes the services to the HTTP layer
func (a *App) ServerDeps() server.Deps {
	return server.Deps{
		Content:       a.Content,
		Locations:     a.Locations,
		Notifications: a.Notifications,
		Meta:          a.Meta,
		Search:        a.Search,
		Storage:       a.Storage,
	}
}

// Close stops background work
func (a *App) Close() {
	a.Content.CancelWalk()
	a.Watcher.StopWatching()
	a.Content.WaitThumbnails()
	a.Thumbs.Stop()
	a.Meta.Close()
}
