package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/logging"
)

const (
	// MaxSidecarSize is the largest sidecar file read (1MB)
	MaxSidecarSize = 1 * 1024 * 1024
	// entrySidecarExt is appended to an entry name for its sidecar in the meta folder
	entrySidecarExt = ".json"
)

// Local handles file system locations
type Local struct {
	mu           sync.RWMutex
	allowedPaths []string
	allowAll     bool
	metaFolder   string
}

// NewLocal creates a local file system backend. An allowed path of "*"
// allows every path.
func NewLocal(metaFolder string, allowedPaths []string) *Local {
	l := &Local{metaFolder: metaFolder}
	l.SetAllowedPaths(allowedPaths)
	return l
}

// SetAllowedPaths replaces the roots listing is confined to
func (l *Local) SetAllowedPaths(paths []string) {
	allowAll := false
	for _, p := range paths {
		if p == "*" {
			allowAll = true
			break
		}
	}
	l.mu.Lock()
	l.allowedPaths = append([]string(nil), paths...)
	l.allowAll = allowAll
	l.mu.Unlock()
}

// Separator returns the OS path separator
func (l *Local) Separator() string {
	return string(filepath.Separator)
}

// IsPathAllowed checks if a path is within an allowed root
func (l *Local) IsPathAllowed(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.allowAll {
		return true
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)

	for _, allowed := range l.allowedPaths {
		allowedAbs, err := filepath.Abs(allowed)
		if err != nil {
			continue
		}
		if entry.IsWithin(absPath, filepath.Clean(allowedAbs), l.Separator()) {
			return true
		}
	}

	return false
}

// ListDirectory returns the entries of a directory. The meta folder is never
// listed. Entries matching an ignore pattern, by name or by full path, are
// skipped.
func (l *Local) ListDirectory(ctx context.Context, path string, modes []string, ignorePatterns []string, limit *ResultsLimit) ([]entry.DirectoryEntry, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if !l.IsPathAllowed(absPath) {
		return nil, ErrAccessDenied
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	metaDir := filepath.Join(absPath, l.metaFolder)
	metaNames := readNames(metaDir)
	extractThumbs := hasMode(modes, ModeExtractThumbPath)

	entries := make([]entry.DirectoryEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := de.Name()
		if name == l.metaFolder {
			continue
		}
		fullPath := filepath.Join(absPath, name)
		if ignored(name, fullPath, ignorePatterns) {
			continue
		}
		if !limit.allow(len(entries)) {
			break
		}

		fi, err := de.Info()
		if err != nil {
			continue
		}

		e := entry.DirectoryEntry{
			Path:         fullPath,
			Name:         name,
			IsFile:       !fi.IsDir(),
			Size:         fi.Size(),
			LastModified: fi.ModTime(),
		}
		if e.IsFile {
			if metaNames[name+entrySidecarExt] {
				e.Meta = readEntryMeta(filepath.Join(metaDir, name+entrySidecarExt))
			}
			if extractThumbs && metaNames[name+entry.ThumbExtension] {
				e.ThumbPath = filepath.Join(metaDir, name+entry.ThumbExtension)
			}
		}
		entries = append(entries, e)
	}

	// Sort: directories first, then by name
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsFile != entries[j].IsFile {
			return !entries[i].IsFile
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// ReadFile returns the content of a sidecar sized file
func (l *Local) ReadFile(_ context.Context, path string) ([]byte, error) {
	if !l.IsPathAllowed(path) {
		return nil, ErrAccessDenied
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}
	if info.Size() > MaxSidecarSize {
		return nil, fmt.Errorf("file too large: %d bytes", info.Size())
	}
	return os.ReadFile(path)
}

// WriteFile writes data, creating missing parent directories
func (l *Local) WriteFile(_ context.Context, path string, data []byte) error {
	if !l.IsPathAllowed(path) {
		return ErrAccessDenied
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ResolveFilePath makes a relative path absolute
func (l *Local) ResolveFilePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func ignored(name, fullPath string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
		if ok, _ := filepath.Match(p, fullPath); ok {
			return true
		}
		// Directory patterns like "**/node_modules" match on the last element
		if rest := strings.TrimPrefix(p, "**"+string(filepath.Separator)); rest != p {
			if ok, _ := filepath.Match(rest, name); ok {
				return true
			}
		}
	}
	return false
}

func readNames(dir string) map[string]bool {
	names := make(map[string]bool)
	des, err := os.ReadDir(dir)
	if err != nil {
		return names
	}
	for _, de := range des {
		names[de.Name()] = true
	}
	return names
}

func readEntryMeta(path string) *entry.EntryMeta {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var meta entry.EntryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		logging.Debug("skipping broken entry sidecar", logging.String("path", path), logging.Err(err))
		return nil
	}
	return &meta
}
