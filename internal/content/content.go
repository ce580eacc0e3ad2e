// Package content owns the current directory: its entries, its sidecar
// metadata and the thumbnails generated for it.
package content

import (
	"context"
	"errors"
	"time"

	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
)

var (
	ErrNoDirectoryOpen       = errors.New("no directory is open")
	ErrNoLocation            = errors.New("no location is open")
	ErrParentOutsideLocation = errors.New("parent directory is outside the current location")
	// ErrLoadSuperseded is returned by a load whose result was dropped
	// because a newer load started.
	ErrLoadSuperseded = errors.New("directory load superseded by a newer request")
)

// User facing messages
const (
	msgLoading           = "Loading"
	msgErrorLoading      = "Error loading folder"
	msgThumbnailsFailed  = "Generating thumbnails failed"
	msgOpenFolderFirst   = "Please open a folder first"
	msgNoLocation        = "Please open a location first"
	msgParentNotLocation = "The parent folder is not part of the current location"
)

// Provider lists directories and produces thumbnails for the current location
type Provider interface {
	ListDirectory(ctx context.Context, path string, modes []string, ignorePatterns []string, limit *platform.ResultsLimit) ([]entry.DirectoryEntry, error)
	CreateThumbnailsInWorker(ctx context.Context, paths []string) ([]platform.ThumbResult, error)
	ResolveThumbnailURL(ctx context.Context, path string) (platform.ThumbResult, error)
	DirSeparator() string
	ResolveFilePath(path string) string
	HaveObjectStoreSupport() bool
	HaveWebDavSupport() bool
	IsWorkerAvailable() bool
}

// MetaLoader reads directory sidecar metadata. A directory without
// metadata yields nil and no error.
type MetaLoader interface {
	LoadDirectoryMeta(ctx context.Context, dir string) (*entry.DirectoryMeta, error)
}

// Notifier shows and hides user facing notifications
type Notifier interface {
	ShowNotification(message string, level notify.Level, autoHide bool)
	HideNotifications(levels ...notify.Level)
	ConfirmTruncated(path string)
}

// Watcher watches one folder at a time for changes
type Watcher interface {
	WatchFolder(path string, onChange func(), depth int) error
	StopWatching()
}

// Locations gives access to the current location
type Locations interface {
	Current() *location.Location
	CloseAll()
}

// SearchResults is the search overlay updates are redirected to in search mode
type SearchResults interface {
	IsSearchMode() bool
	Results() []entry.DirectoryEntry
	SetResults(results []entry.DirectoryEntry)
	Update(fn func(results []entry.DirectoryEntry) []entry.DirectoryEntry)
}

// EnhanceResult is a processed listing plus the files queued for thumbnails
type EnhanceResult struct {
	Entries []entry.DirectoryEntry
	// WorkerList goes to the batch thumbnail workers
	WorkerList []string
	// PerFileList is resolved one file at a time
	PerFileList []string
}

// HistoryItem is one visited directory
type HistoryItem struct {
	LocationID string    `json:"locationId,omitempty"`
	Path       string    `json:"path"`
	Time       time.Time `json:"time"`
}

// Snapshot is a consistent copy of the manager state
type Snapshot struct {
	Path                   string                          `json:"path"`
	Entries                []entry.DirectoryEntry          `json:"entries"`
	Meta                   *entry.DirectoryMeta            `json:"meta,omitempty"`
	IsMetaLoaded           bool                            `json:"isMetaLoaded"`
	Perspective            string                          `json:"perspective"`
	Files                  []entry.OrderVisibilitySettings `json:"files,omitempty"`
	Dirs                   []entry.OrderVisibilitySettings `json:"dirs,omitempty"`
	Selected               []string                        `json:"selected,omitempty"`
	IsGeneratingThumbnails bool                            `json:"isGeneratingThumbnails"`
	SearchMode             bool                            `json:"searchMode"`
}
