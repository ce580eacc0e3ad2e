package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/logging"
)

// ConnectFunc opens the backend of a cloud location
type ConnectFunc func(ctx context.Context, loc *location.Location) (Backend, error)

// Facade routes storage calls to the backend of the current location
type Facade struct {
	local      *Local
	thumbs     *ThumbPool
	metaFolder string
	connect    ConnectFunc

	mu      sync.RWMutex
	current *location.Location
	backend Backend
	stores  map[string]Backend
}

// NewFacade creates a facade over the local backend. thumbs may be nil
// when thumbnail generation is unavailable.
func NewFacade(local *Local, thumbs *ThumbPool, metaFolder string) *Facade {
	f := &Facade{
		local:      local,
		thumbs:     thumbs,
		metaFolder: metaFolder,
		stores:     make(map[string]Backend),
	}
	f.connect = f.connectObjectStore
	return f
}

// SetConnector replaces how cloud backends are opened
func (f *Facade) SetConnector(fn ConnectFunc) {
	f.mu.Lock()
	f.connect = fn
	f.mu.Unlock()
}

// Use switches to the backend of loc. A nil loc detaches the facade.
func (f *Facade) Use(ctx context.Context, loc *location.Location) error {
	if loc == nil {
		f.mu.Lock()
		f.current, f.backend = nil, nil
		f.mu.Unlock()
		f.local.SetAllowedPaths(nil)
		return nil
	}

	var backend Backend
	switch loc.Type {
	case location.TypeCloud:
		f.mu.RLock()
		cached, ok := f.stores[loc.UUID]
		connect := f.connect
		f.mu.RUnlock()
		if ok {
			backend = cached
		} else {
			b, err := connect(ctx, loc)
			if err != nil {
				f.detach(loc)
				return fmt.Errorf("connect location %s: %w", loc.Name, err)
			}
			backend = b
		}
	case location.TypeWebDAV:
		f.detach(loc)
		return ErrUnsupportedBackend
	default:
		root, err := location.LocationPath(loc)
		if err != nil {
			f.detach(loc)
			return err
		}
		f.local.SetAllowedPaths([]string{root})
		backend = f.local
	}

	f.mu.Lock()
	f.current = loc.Clone()
	f.backend = backend
	if loc.IsCloud() {
		f.stores[loc.UUID] = backend
	}
	f.mu.Unlock()

	logging.Debug("storage backend selected", logging.String("location", loc.UUID), logging.String("type", string(loc.Type)))
	return nil
}

// Forget drops a cached cloud backend
func (f *Facade) Forget(id string) {
	f.mu.Lock()
	delete(f.stores, id)
	f.mu.Unlock()
}

func (f *Facade) detach(loc *location.Location) {
	f.mu.Lock()
	f.current = loc.Clone()
	f.backend = nil
	f.mu.Unlock()
}

func (f *Facade) connectObjectStore(ctx context.Context, loc *location.Location) (Backend, error) {
	return NewObjectStore(ctx, ObjectStoreConfig{
		Endpoint:        loc.Endpoint,
		Bucket:          loc.Bucket,
		Region:          loc.Region,
		AccessKeyID:     loc.AccessKeyID,
		SecretAccessKey: loc.SecretAccessKey,
	}, f.metaFolder)
}

func (f *Facade) active() (Backend, *location.Location) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.backend, f.current
}

// ListDirectory lists path on the current backend
func (f *Facade) ListDirectory(ctx context.Context, path string, modes []string, ignorePatterns []string, limit *ResultsLimit) ([]entry.DirectoryEntry, error) {
	b, _ := f.active()
	if b == nil {
		return nil, ErrNoBackend
	}
	return b.ListDirectory(ctx, path, modes, ignorePatterns, limit)
}

// ReadFile reads a file from the current backend
func (f *Facade) ReadFile(ctx context.Context, path string) ([]byte, error) {
	b, _ := f.active()
	if b == nil {
		return nil, ErrNoBackend
	}
	return b.ReadFile(ctx, path)
}

// WriteFile writes a file to the current backend
func (f *Facade) WriteFile(ctx context.Context, path string, data []byte) error {
	b, _ := f.active()
	if b == nil {
		return ErrNoBackend
	}
	return b.WriteFile(ctx, path, data)
}

// CreateThumbnailsInWorker renders a batch on the thumbnail workers
func (f *Facade) CreateThumbnailsInWorker(ctx context.Context, paths []string) ([]ThumbResult, error) {
	if !f.IsWorkerAvailable() {
		return nil, ErrWorkerUnavailable
	}
	return f.thumbs.CreateThumbnails(ctx, paths)
}

// ResolveThumbnailURL returns the thumbnail of one file. Cloud files get
// no thumbnail.
func (f *Facade) ResolveThumbnailURL(ctx context.Context, path string) (ThumbResult, error) {
	_, loc := f.active()
	if f.thumbs == nil || loc.IsCloud() {
		return ThumbResult{FilePath: path}, ctx.Err()
	}
	return f.thumbs.Resolve(ctx, path)
}

// DirSeparator returns the separator of the current backend
func (f *Facade) DirSeparator() string {
	b, _ := f.active()
	if b == nil {
		return f.local.Separator()
	}
	return b.Separator()
}

// ResolveFilePath makes a relative local path absolute
func (f *Facade) ResolveFilePath(path string) string {
	_, loc := f.active()
	if loc.IsCloud() {
		return path
	}
	return f.local.ResolveFilePath(path)
}

func (f *Facade) HaveObjectStoreSupport() bool {
	_, loc := f.active()
	return loc.IsCloud()
}

func (f *Facade) HaveWebDavSupport() bool {
	_, loc := f.active()
	return loc != nil && loc.Type == location.TypeWebDAV
}

// IsWorkerAvailable reports whether batches can go to the thumbnail workers
func (f *Facade) IsWorkerAvailable() bool {
	_, loc := f.active()
	return f.thumbs != nil && f.thumbs.Running() && !loc.IsCloud()
}
