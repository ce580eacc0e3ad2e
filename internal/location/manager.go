// Package location tracks the configured locations and which one is open.
package location

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/notify"
)

// Notifier shows user-facing messages
type Notifier interface {
	ShowNotification(message string, level notify.Level, autoHide bool)
}

// Listener is called with the new current location, nil when closed.
type Listener func(loc *Location)

// Manager handles the location list and the current location
type Manager struct {
	mu                 sync.RWMutex
	locations          []Location
	current            *Location
	selected           *Location
	skipInitialDirList bool
	persistTags        bool
	notifier           Notifier
	listeners          []Listener
}

// NewManager creates a location manager. persistTags is the global
// "persist tags in sidecar file" setting.
func NewManager(notifier Notifier, persistTags bool) *Manager {
	return &Manager{
		notifier:    notifier,
		persistTags: persistTags,
	}
}

// Subscribe registers a listener for current location changes.
// Listeners run in registration order, outside the manager lock.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// List returns a copy of all locations
func (m *Manager) List() []Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Location, len(m.locations))
	for i := range m.locations {
		out[i] = *m.locations[i].Clone()
	}
	return out
}

// Current returns the open location, nil when none is open
func (m *Manager) Current() *Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// Find returns the location with the given id
func (m *Manager) Find(id string) (*Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return m.locations[i].Clone(), true
}

// Position returns the index of a location, -1 if unknown
func (m *Manager) Position(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexOf(id)
}

// Add stores a location at position (append when position < 0 or out of
// range) and opens it when openAfterCreate is set.
func (m *Manager) Add(loc Location, openAfterCreate bool, position int) *Location {
	if loc.UUID == "" {
		loc.UUID = uuid.NewString()
	}
	if loc.Type == "" {
		loc.Type = TypeLocal
	}

	m.mu.Lock()
	if position < 0 || position >= len(m.locations) {
		m.locations = append(m.locations, loc)
	} else {
		m.locations = append(m.locations[:position], append([]Location{loc}, m.locations[position:]...)...)
	}
	m.mu.Unlock()

	logging.Info("location added", logging.String("uuid", loc.UUID), logging.String("name", loc.Name))

	if openAfterCreate {
		m.Open(&loc, false)
	}
	return loc.Clone()
}

// AddMany adds locations, editing existing ones when override is set.
// Only the last one is opened.
func (m *Manager) AddMany(locs []Location, override bool) {
	for i, loc := range locs {
		isLast := i == len(locs)-1
		if _, exists := m.Find(loc.UUID); !exists {
			m.Add(loc, isLast, -1)
		} else if override {
			_ = m.Edit(loc, isLast)
		}
	}
}

// Edit replaces a stored location. A set NewUUID renames the location.
// The edited location becomes current when openAfterEdit is set or it was
// already current.
func (m *Manager) Edit(loc Location, openAfterEdit bool) error {
	m.mu.Lock()
	i := m.indexOf(loc.UUID)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("location '%s' not found", loc.UUID)
	}
	wasCurrent := m.current != nil && m.current.UUID == loc.UUID
	if loc.NewUUID != "" && loc.NewUUID != loc.UUID {
		loc.UUID = loc.NewUUID
	}
	loc.NewUUID = ""
	m.locations[i] = loc
	changed := openAfterEdit || wasCurrent
	if changed {
		m.current = loc.Clone()
	}
	m.mu.Unlock()

	if changed {
		m.emit(loc.Clone())
	}
	return nil
}

// Remove deletes a location, closing it first when it is current
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	m.locations = append(m.locations[:i], m.locations[i+1:]...)
	m.mu.Unlock()

	m.Close(id)
	return true
}

// Open makes loc current. Cloud locations announce the object store connection.
func (m *Manager) Open(loc *Location, skipInitialDirList bool) {
	if loc == nil {
		return
	}
	m.mu.Lock()
	m.skipInitialDirList = skipInitialDirList
	m.mu.Unlock()

	if loc.IsCloud() && m.notifier != nil {
		m.notifier.ShowNotification("Connected to object store", notify.LevelDefault, true)
	}
	m.Change(loc)
}

// OpenByID opens a stored location
func (m *Manager) OpenByID(id string, skipInitialDirList bool) bool {
	loc, ok := m.Find(id)
	if !ok {
		return false
	}
	m.Open(loc, skipInitialDirList)
	return true
}

// Change sets the current location unless it is already current
func (m *Manager) Change(loc *Location) {
	m.mu.Lock()
	if m.current != nil && m.current.UUID == loc.UUID {
		m.mu.Unlock()
		return
	}
	m.current = loc.Clone()
	m.mu.Unlock()

	logging.Info("location opened", logging.String("uuid", loc.UUID), logging.String("type", string(loc.Type)))
	m.emit(loc.Clone())
}

// ChangeByID changes to a stored location
func (m *Manager) ChangeByID(id string) bool {
	loc, ok := m.Find(id)
	if !ok {
		return false
	}
	m.Change(loc)
	return true
}

// Close closes the location when it is current
func (m *Manager) Close(id string) {
	m.mu.Lock()
	if m.current == nil || m.current.UUID != id {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.mu.Unlock()

	logging.Info("location closed", logging.String("uuid", id))
	m.emit(nil)
}

// CloseAll closes whatever location is open
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	logging.Info("all locations closed")
	m.emit(nil)
}

// Selected returns the location selected in the UI
func (m *Manager) Selected() *Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected.Clone()
}

func (m *Manager) SetSelected(loc *Location) {
	m.mu.Lock()
	m.selected = loc.Clone()
	m.mu.Unlock()
}

// SkipInitialDirList reports whether the last Open asked to skip listing
func (m *Manager) SkipInitialDirList() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.skipInitialDirList
}

// ReadOnlyMode reports whether the current location is read only
func (m *Manager) ReadOnlyMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.IsReadOnly
}

// PersistTagsInSidecarFile returns the current location's override or the
// global setting.
func (m *Manager) PersistTagsInSidecarFile() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current != nil && m.current.PersistTagsInSidecarFile != nil {
		return *m.current.PersistTagsInSidecarFile
	}
	return m.persistTags
}

// OpenDefault opens the location flagged as default, if any
func (m *Manager) OpenDefault() bool {
	m.mu.RLock()
	var def *Location
	for i := range m.locations {
		if m.locations[i].IsDefault {
			def = m.locations[i].Clone()
			break
		}
	}
	m.mu.RUnlock()

	if def == nil {
		return false
	}
	m.Open(def, false)
	return true
}

// LocationPath returns the root path of loc. The first of Paths wins over
// Path; relative local paths are resolved against the working directory.
func LocationPath(loc *Location) (string, error) {
	if loc == nil {
		return "", nil
	}
	p := loc.Path
	if len(loc.Paths) > 0 && loc.Paths[0] != "" {
		p = loc.Paths[0]
	}
	if loc.Type != TypeCloud && (strings.HasPrefix(p, "./") || strings.HasPrefix(p, "."+string(filepath.Separator))) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolve location path: %w", err)
		}
		return abs, nil
	}
	return p, nil
}

func (m *Manager) indexOf(id string) int {
	for i := range m.locations {
		if m.locations[i].UUID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) emit(loc *Location) {
	m.mu.RLock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.RUnlock()
	for _, l := range listeners {
		l(loc.Clone())
	}
}

// seedFile is the yaml layout of the locations file
type seedFile struct {
	Locations []Location `yaml:"locations"`
}

// LoadFile reads locations from a yaml file. A missing file yields no locations.
func LoadFile(path string) ([]Location, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var f seedFile
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	for i := range f.Locations {
		if f.Locations[i].UUID == "" {
			f.Locations[i].UUID = uuid.NewString()
		}
		if f.Locations[i].Type == "" {
			f.Locations[i].Type = TypeLocal
		}
	}
	return f.Locations, nil
}

// DefaultLocations returns the locations created when none are configured.
func DefaultLocations() []Location {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []Location{{
		UUID:            uuid.NewString(),
		Type:            TypeLocal,
		Name:            "Home",
		Path:            home,
		WatchForChanges: true,
		IsDefault:       true,
	}}
}
