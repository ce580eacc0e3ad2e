package content

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ngenohkevin/tagdeck/config"
	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/notify"
	"github.com/ngenohkevin/tagdeck/internal/platform"
	"github.com/ngenohkevin/tagdeck/internal/search"
)

type listCall struct {
	path   string
	modes  []string
	ignore []string
	max    int
}

type fakeProvider struct {
	mu           sync.Mutex
	listings     map[string][]entry.DirectoryEntry
	listErr      map[string]error
	truncate     map[string]bool
	gates        map[string]chan struct{}
	started      chan string
	calls        []listCall
	workerErr    error
	resolveErr   error
	resolveGate  chan struct{}
	workerCalls  [][]string
	resolveCalls []string
	worker       bool
	objectStore  bool
	webdav       bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		listings: make(map[string][]entry.DirectoryEntry),
		listErr:  make(map[string]error),
		truncate: make(map[string]bool),
		gates:    make(map[string]chan struct{}),
		started:  make(chan string, 10),
		worker:   true,
	}
}

func (p *fakeProvider) ListDirectory(ctx context.Context, path string, modes []string, ignore []string, limit *platform.ResultsLimit) ([]entry.DirectoryEntry, error) {
	p.mu.Lock()
	p.calls = append(p.calls, listCall{path: path, modes: modes, ignore: ignore, max: limit.MaxLoops})
	gate := p.gates[path]
	raw, err, trunc := p.listings[path], p.listErr[path], p.truncate[path]
	p.mu.Unlock()

	select {
	case p.started <- path:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if trunc {
		limit.IsTruncated = true
	}
	return raw, nil
}

func (p *fakeProvider) CreateThumbnailsInWorker(_ context.Context, paths []string) ([]platform.ThumbResult, error) {
	p.mu.Lock()
	p.workerCalls = append(p.workerCalls, paths)
	err := p.workerErr
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]platform.ThumbResult, 0, len(paths))
	for _, path := range paths {
		out = append(out, platform.ThumbResult{FilePath: path, ThumbPath: "/tmb" + path})
	}
	return out, nil
}

func (p *fakeProvider) ResolveThumbnailURL(ctx context.Context, path string) (platform.ThumbResult, error) {
	p.mu.Lock()
	p.resolveCalls = append(p.resolveCalls, path)
	err, gate := p.resolveErr, p.resolveGate
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return platform.ThumbResult{}, ctx.Err()
		}
	}
	if err != nil {
		return platform.ThumbResult{}, err
	}
	return platform.ThumbResult{FilePath: path, ThumbPath: "/file" + path}, nil
}

func (p *fakeProvider) DirSeparator() string { return "/" }

func (p *fakeProvider) ResolveFilePath(path string) string {
	return "/abs/" + strings.TrimPrefix(path, "./")
}

func (p *fakeProvider) HaveObjectStoreSupport() bool { return p.objectStore }
func (p *fakeProvider) HaveWebDavSupport() bool      { return p.webdav }
func (p *fakeProvider) IsWorkerAvailable() bool      { return p.worker }

func (p *fakeProvider) listCalls() []listCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]listCall(nil), p.calls...)
}

func (p *fakeProvider) resolved() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resolveCalls...)
}

type fakeMeta struct {
	metas map[string]*entry.DirectoryMeta
	err   error
}

func (f *fakeMeta) LoadDirectoryMeta(_ context.Context, dir string) (*entry.DirectoryMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.metas[dir], nil
}

type shown struct {
	message  string
	level    notify.Level
	autoHide bool
}

type fakeNotifier struct {
	mu        sync.Mutex
	shown     []shown
	hides     [][]notify.Level
	truncated []string
}

func (n *fakeNotifier) ShowNotification(message string, level notify.Level, autoHide bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, shown{message, level, autoHide})
}

func (n *fakeNotifier) HideNotifications(levels ...notify.Level) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hides = append(n.hides, levels)
}

func (n *fakeNotifier) ConfirmTruncated(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.truncated = append(n.truncated, path)
}

func (n *fakeNotifier) messages() []shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]shown(nil), n.shown...)
}

func (n *fakeNotifier) warnings() []shown {
	var out []shown
	for _, s := range n.messages() {
		if s.level == notify.LevelWarning {
			out = append(out, s)
		}
	}
	return out
}

type watchCall struct {
	path  string
	depth int
}

type fakeWatcher struct {
	mu       sync.Mutex
	watches  []watchCall
	onChange func()
	stops    int
}

func (w *fakeWatcher) WatchFolder(path string, onChange func(), depth int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watches = append(w.watches, watchCall{path, depth})
	w.onChange = onChange
	return nil
}

func (w *fakeWatcher) StopWatching() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stops++
}

type fakeLocations struct {
	mu        sync.Mutex
	current   *location.Location
	closeAlls int
	onClose   func()
}

func (l *fakeLocations) Current() *location.Location {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.Clone()
}

func (l *fakeLocations) CloseAll() {
	l.mu.Lock()
	l.current = nil
	l.closeAlls++
	hook := l.onClose
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
}

type fixture struct {
	cfg       *config.Config
	provider  *fakeProvider
	meta      *fakeMeta
	notifier  *fakeNotifier
	watcher   *fakeWatcher
	locations *fakeLocations
	search    *search.Results
	manager   *Manager
}

func newFixture() *fixture {
	f := &fixture{
		cfg:       config.LoadWithDefaults(),
		provider:  newFakeProvider(),
		meta:      &fakeMeta{metas: make(map[string]*entry.DirectoryMeta)},
		notifier:  &fakeNotifier{},
		watcher:   &fakeWatcher{},
		locations: &fakeLocations{current: &location.Location{UUID: "loc", Type: location.TypeLocal, Path: "/root", WatchForChanges: true}},
		search:    search.New(),
	}
	f.manager = NewManager(Options{
		Config:    f.cfg,
		Provider:  f.provider,
		Meta:      f.meta,
		Notifier:  f.notifier,
		Watcher:   f.watcher,
		Locations: f.locations,
		Search:    f.search,
	})
	return f
}

func file(path string) entry.DirectoryEntry {
	return entry.DirectoryEntry{Path: path, Name: path[strings.LastIndex(path, "/")+1:], IsFile: true}
}

func dir(path string) entry.DirectoryEntry {
	return entry.DirectoryEntry{Path: path, Name: path[strings.LastIndex(path, "/")+1:]}
}

func paths(entries []entry.DirectoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

var errBoom = errors.New("boom")
