package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ngenohkevin/tagdeck/config"
	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/metrics"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
)

const maxHistory = 50

// Options wires a Manager to its collaborators. Watcher may be nil when
// folder watching is unavailable.
type Options struct {
	Config    *config.Config
	Provider  Provider
	Meta      MetaLoader
	Notifier  Notifier
	Watcher   Watcher
	Locations Locations
	Search    SearchResults
}

// Manager is the single owner of the current directory state. Every load
// gets a token; only the most recently started load may commit.
type Manager struct {
	cfg       *config.Config
	provider  Provider
	meta      MetaLoader
	notifier  Notifier
	watcher   Watcher
	locations Locations
	search    SearchResults

	mu          sync.RWMutex
	seq         uint64
	cancel      context.CancelFunc
	path        string
	entries     []entry.DirectoryEntry
	dirMeta     *entry.DirectoryMeta
	metaLoaded  bool
	perspective string
	files       []entry.OrderVisibilitySettings
	dirs        []entry.OrderVisibilitySettings
	selected    []string
	generating  bool
	history     []HistoryItem

	thumbs sync.WaitGroup
}

// NewManager creates a manager with no directory open
func NewManager(opts Options) *Manager {
	return &Manager{
		cfg:         opts.Config,
		provider:    opts.Provider,
		meta:        opts.Meta,
		notifier:    opts.Notifier,
		watcher:     opts.Watcher,
		locations:   opts.Locations,
		search:      opts.Search,
		dirMeta:     &entry.DirectoryMeta{ID: uuid.NewString()},
		perspective: entry.PerspectiveUnspecified,
	}
}

// begin starts a new load generation and cancels the previous one. The
// current path only changes when the load commits.
func (m *Manager) begin(ctx context.Context) (uint64, context.Context) {
	genCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.seq++
	m.cancel = cancel
	m.selected = nil
	return m.seq, genCtx
}

func (m *Manager) isCurrent(token uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq == token
}

// LoadDirectoryContent lists path and commits the result as the current
// directory. A listing failure warns the user and closes all locations.
// A load overtaken by a newer one returns ErrLoadSuperseded and changes
// nothing.
func (m *Manager) LoadDirectoryContent(ctx context.Context, path string, generateThumbnails, loadMeta bool) error {
	start := time.Now()
	loc := m.locations.Current()
	token, genCtx := m.begin(ctx)

	// The listing stops when either the caller or a newer load gives up
	listCtx, stop := context.WithCancel(genCtx)
	defer stop()
	defer context.AfterFunc(ctx, stop)()

	m.notifier.ShowNotification(msgLoading, notify.LevelInfo, false)
	// A superseded load leaves the progress notification to the newer one
	defer func() {
		if m.isCurrent(token) {
			m.notifier.HideNotifications(notify.LevelInfo)
		}
	}()

	var meta *entry.DirectoryMeta
	if loadMeta && m.meta != nil {
		loaded, err := m.meta.LoadDirectoryMeta(listCtx, path)
		if err != nil {
			logging.Debug("error loading directory meta", logging.String("path", path), logging.Err(err))
		} else {
			meta = loaded
		}
	}

	var modes []string
	if meta != nil && (meta.Perspective == entry.PerspectiveKanban || meta.Perspective == entry.PerspectiveGallery) {
		modes = []string{platform.ModeExtractThumbPath}
	}

	limit := &platform.ResultsLimit{MaxLoops: m.cfg.MaxLoops}
	var ignorePatterns []string
	if loc != nil {
		if loc.MaxLoops > 0 {
			limit.MaxLoops = loc.MaxLoops
		}
		ignorePatterns = loc.IgnorePatternPaths
	}

	raw, err := m.provider.ListDirectory(listCtx, path, modes, ignorePatterns, limit)
	if err != nil {
		if !m.isCurrent(token) {
			metrics.RecordDirectoryLoad("superseded", time.Since(start))
			return ErrLoadSuperseded
		}
		if listCtx.Err() != nil {
			// Canceled walks are not listing failures
			metrics.RecordDirectoryLoad("canceled", time.Since(start))
			return fmt.Errorf("load directory %s: %w", path, context.Canceled)
		}
		m.loadDirectoryFailure(path, err)
		metrics.RecordDirectoryLoad("failure", time.Since(start))
		return fmt.Errorf("load directory %s: %w", path, err)
	}

	if !m.isCurrent(token) {
		metrics.RecordDirectoryLoad("superseded", time.Since(start))
		return ErrLoadSuperseded
	}

	res := m.EnhanceDirectoryContent(raw, loc.IsCloud(), true, 0)

	resolved := path
	if strings.HasPrefix(resolved, "./") {
		resolved = m.provider.ResolveFilePath(resolved)
	}

	if !m.commit(token, loc, resolved, res.Entries, meta) {
		metrics.RecordDirectoryLoad("superseded", time.Since(start))
		return ErrLoadSuperseded
	}

	if limit.IsTruncated {
		m.notifier.ConfirmTruncated(resolved)
		metrics.RecordTruncatedListing()
	}
	m.notifier.HideNotifications(notify.LevelError)

	if generateThumbnails && (len(res.WorkerList) > 0 || len(res.PerFileList) > 0) {
		m.generateThumbnails(genCtx, token, res.WorkerList, res.PerFileList)
	}

	metrics.RecordDirectoryLoad("success", time.Since(start))
	metrics.SetDirectoryEntries(len(res.Entries))
	logging.Info("directory loaded",
		logging.String("path", resolved),
		logging.Int("entries", len(res.Entries)),
		logging.Bool("truncated", limit.IsTruncated),
		logging.Duration("duration", time.Since(start)),
	)
	return nil
}

// commit stores a successful load if token is still current.
func (m *Manager) commit(token uint64, loc *location.Location, path string, entries []entry.DirectoryEntry, meta *entry.DirectoryMeta) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq != token {
		return false
	}

	m.path = path
	m.entries = entries
	m.generating = false
	m.files, m.dirs = nil, nil
	if meta != nil {
		meta = meta.Clone()
		if meta.CustomOrder != nil {
			m.files = append([]entry.OrderVisibilitySettings(nil), meta.CustomOrder.Files...)
			m.dirs = append([]entry.OrderVisibilitySettings(nil), meta.CustomOrder.Folders...)
		}
		if meta.Perspective != "" {
			m.perspective = meta.Perspective
		}
		if meta.ID == "" {
			meta.ID = uuid.NewString()
		}
		m.dirMeta = meta
		m.metaLoaded = true
	} else {
		m.dirMeta = &entry.DirectoryMeta{ID: uuid.NewString()}
		m.metaLoaded = false
	}

	item := HistoryItem{Path: path, Time: time.Now()}
	if loc != nil {
		item.LocationID = loc.UUID
	}
	m.history = append(m.history, item)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	return true
}

func (m *Manager) loadDirectoryFailure(path string, err error) {
	logging.Error("error loading directory", logging.String("path", path), logging.Err(err))
	m.notifier.HideNotifications()
	m.notifier.ShowNotification(msgErrorLoading+": "+err.Error(), notify.LevelWarning, false)
	m.locations.CloseAll()
}

// LoadParentDirectoryContent opens the parent of the current directory
// when it is still inside the current location.
func (m *Manager) LoadParentDirectoryContent(ctx context.Context) error {
	m.mu.RLock()
	current := m.path
	m.mu.RUnlock()

	if current == "" {
		m.notifier.ShowNotification(msgOpenFolderFirst, notify.LevelWarning, true)
		return ErrNoDirectoryOpen
	}

	loc := m.locations.Current()
	if loc == nil {
		m.notifier.ShowNotification(msgNoLocation, notify.LevelWarning, true)
		return ErrNoLocation
	}

	root, err := location.LocationPath(loc)
	if err != nil {
		return err
	}
	sep := m.provider.DirSeparator()
	parent := entry.ParentDirectory(current, sep)
	if parent == "" || !entry.IsWithin(parent, root, sep) {
		m.notifier.ShowNotification(msgParentNotLocation, notify.LevelWarning, true)
		return ErrParentOutsideLocation
	}

	return m.LoadDirectoryContent(ctx, parent, false, true)
}

// OpenCurrentDirectory reloads the current directory. With no directory
// open it clears the search results instead.
func (m *Manager) OpenCurrentDirectory(ctx context.Context) error {
	m.mu.RLock()
	current := m.path
	m.mu.RUnlock()

	if current == "" {
		if m.search != nil {
			m.search.SetResults(nil)
		}
		return nil
	}
	return m.LoadDirectoryContent(ctx, current, false, true)
}

// ClearDirectoryContent forgets the current directory and invalidates any
// load in flight.
func (m *Manager) ClearDirectoryContent() {
	m.clear()
	m.notifier.HideNotifications(notify.LevelInfo)
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
	m.path = ""
	m.entries = nil
	m.selected = nil
	m.generating = false
	metrics.SetDirectoryEntries(0)
}

// CancelWalk aborts the listing in flight, if any.
func (m *Manager) CancelWalk() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// UpdateCurrentDirEntry merges partial into the entry at path. In search
// mode only the search results are updated. A non-empty partial.Path
// renames the entry.
func (m *Manager) UpdateCurrentDirEntry(path string, partial entry.DirectoryEntry) {
	if m.search != nil && m.search.IsSearchMode() {
		m.search.Update(func(results []entry.DirectoryEntry) []entry.DirectoryEntry {
			return updateByPath(results, path, partial)
		})
		return
	}

	m.mu.Lock()
	m.entries = updateByPath(m.entries, path, partial)
	m.mu.Unlock()
}

func updateByPath(list []entry.DirectoryEntry, path string, partial entry.DirectoryEntry) []entry.DirectoryEntry {
	out := make([]entry.DirectoryEntry, len(list))
	for i, e := range list {
		if e.Path == path {
			out[i] = entry.Merge(e, partial)
		} else {
			out[i] = e
		}
	}
	return out
}

// UpdateCurrentDirEntries merges each incoming entry into the current entry
// with the same path, later incoming values winning. Order is kept and
// incoming entries without a match are ignored. With no current entries the
// incoming list is adopted.
func (m *Manager) UpdateCurrentDirEntries(entries []entry.DirectoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		m.entries = entry.Clone(entries)
		return
	}
	m.entries = entry.UpdateEntries(m.entries, entries)
}

// UpdateThumbnailURL sets the thumbnail of the entries at filePath
func (m *Manager) UpdateThumbnailURL(filePath, thumbURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Path == filePath {
			m.entries[i].ThumbPath = thumbURL
		}
	}
}

// UpdateThumbnailURLs attaches resolved thumbnails by path. Results
// without a thumbnail are skipped.
func (m *Manager) UpdateThumbnailURLs(results []platform.ThumbResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyThumbnails(results)
}

func (m *Manager) applyThumbnails(results []platform.ThumbResult) int {
	byPath := make(map[string]string, len(results))
	for _, r := range results {
		if r.ThumbPath != "" {
			byPath[r.FilePath] = r.ThumbPath
		}
	}
	if len(byPath) == 0 {
		return 0
	}
	entries := entry.Clone(m.entries)
	n := 0
	for i := range entries {
		if tp, ok := byPath[entries[i].Path]; ok {
			entries[i].ThumbPath = tp
			n++
		}
	}
	m.entries = entries
	return n
}

// SetCurrentDirectoryPerspective sets the view of the current directory
func (m *Manager) SetCurrentDirectoryPerspective(perspective string) {
	m.mu.Lock()
	m.perspective = perspective
	m.mu.Unlock()
}

// SetCurrentDirectoryColor sets the color on the directory metadata
func (m *Manager) SetCurrentDirectoryColor(color string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirMeta != nil {
		m.dirMeta.Color = color
	}
}

// SetCurrentDirectoryDirs sets the custom order of the subdirectories
func (m *Manager) SetCurrentDirectoryDirs(dirs []entry.OrderVisibilitySettings) {
	m.mu.Lock()
	m.dirs = append([]entry.OrderVisibilitySettings(nil), dirs...)
	m.mu.Unlock()
}

// SetCurrentDirectoryFiles sets the custom order of the files
func (m *Manager) SetCurrentDirectoryFiles(files []entry.OrderVisibilitySettings) {
	m.mu.Lock()
	m.files = append([]entry.OrderVisibilitySettings(nil), files...)
	m.mu.Unlock()
}

// SetDirectoryMeta replaces the metadata of the current directory
func (m *Manager) SetDirectoryMeta(meta *entry.DirectoryMeta) {
	m.mu.Lock()
	m.dirMeta = meta.Clone()
	m.mu.Unlock()
}

// SetSelectedEntries records the selected entry paths. Loads clear it.
func (m *Manager) SetSelectedEntries(paths []string) {
	m.mu.Lock()
	m.selected = append([]string(nil), paths...)
	m.mu.Unlock()
}

// WatchForChanges watches the root of loc, or of the current location when
// loc is nil. Kanban views watch three levels deep.
func (m *Manager) WatchForChanges(loc *location.Location) error {
	if m.watcher == nil {
		return nil
	}
	if loc == nil {
		loc = m.locations.Current()
	}
	if loc == nil || !loc.WatchForChanges {
		return nil
	}

	depth := 1
	if m.Perspective() == entry.PerspectiveKanban {
		depth = 3
	}
	root, err := location.LocationPath(loc)
	if err != nil {
		return err
	}
	return m.watcher.WatchFolder(root, m.onFolderChange, depth)
}

func (m *Manager) onFolderChange() {
	if err := m.OpenCurrentDirectory(context.Background()); err != nil && !errors.Is(err, ErrLoadSuperseded) {
		logging.Warn("reload after folder change failed", logging.Err(err))
	}
}

// HandleLocationChange follows the current location: an opened location is
// listed from its root and watched, a closed one clears the directory.
func (m *Manager) HandleLocationChange(ctx context.Context, loc *location.Location) error {
	if loc == nil {
		m.ClearDirectoryContent()
		if m.watcher != nil {
			m.watcher.StopWatching()
		}
		return nil
	}

	root, err := location.LocationPath(loc)
	if err != nil {
		return err
	}

	if err := m.LoadDirectoryContent(ctx, root, !loc.IsCloud(), true); err != nil {
		return err
	}
	if !loc.IsCloud() {
		if err := m.WatchForChanges(loc); err != nil {
			logging.Warn("watching location failed", logging.String("path", root), logging.Err(err))
		}
	}
	return nil
}

// Entries returns a copy of the current entries
func (m *Manager) Entries() []entry.DirectoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return entry.Clone(m.entries)
}

// Path returns the committed directory, empty when none is open
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Meta returns a copy of the current directory metadata
func (m *Manager) Meta() *entry.DirectoryMeta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirMeta.Clone()
}

// Perspective returns the view of the current directory
func (m *Manager) Perspective() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.perspective
}

// Files returns the custom file order
func (m *Manager) Files() []entry.OrderVisibilitySettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]entry.OrderVisibilitySettings(nil), m.files...)
}

// Dirs returns the custom subdirectory order
func (m *Manager) Dirs() []entry.OrderVisibilitySettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]entry.OrderVisibilitySettings(nil), m.dirs...)
}

// IsGeneratingThumbnails reports whether thumbnails of the current listing are in flight
func (m *Manager) IsGeneratingThumbnails() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generating
}

// History returns the visited directories, oldest first
func (m *Manager) History() []HistoryItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]HistoryItem(nil), m.history...)
}

// Snapshot returns a consistent copy of the whole state
func (m *Manager) Snapshot() Snapshot {
	searchMode := m.search != nil && m.search.IsSearchMode()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Path:                   m.path,
		Entries:                entry.Clone(m.entries),
		Meta:                   m.dirMeta.Clone(),
		IsMetaLoaded:           m.metaLoaded,
		Perspective:            m.perspective,
		Files:                  append([]entry.OrderVisibilitySettings(nil), m.files...),
		Dirs:                   append([]entry.OrderVisibilitySettings(nil), m.dirs...),
		Selected:               append([]string(nil), m.selected...),
		IsGeneratingThumbnails: m.generating,
		SearchMode:             searchMode,
	}
}

// WaitThumbnails blocks until thumbnail generation in flight is done
func (m *Manager) WaitThumbnails() {
	m.thumbs.Wait()
}
