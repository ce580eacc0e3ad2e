// Package platform provides the storage backends the directory content
// manager lists from, and a facade that routes to the one backing the
// current location.
package platform

import (
	"context"
	"errors"

	"github.com/ngenohkevin/tagdeck/internal/entry"
)

// ModeExtractThumbPath asks a listing to attach existing thumbnail paths.
const ModeExtractThumbPath = "extractThumbPath"

var (
	ErrNotDirectory       = errors.New("path is not a directory")
	ErrAccessDenied       = errors.New("access denied: path outside the location")
	ErrWorkerUnavailable  = errors.New("thumbnail worker is not running")
	ErrNoBackend          = errors.New("no location backend is active")
	ErrUnsupportedBackend = errors.New("location type is not supported")
)

// ResultsLimit caps a listing. The provider sets IsTruncated when the cap
// cut the listing short.
type ResultsLimit struct {
	MaxLoops    int  `json:"maxLoops"`
	IsTruncated bool `json:"isTruncated"`
}

// ThumbResult pairs a file with its thumbnail. ThumbPath is empty when no
// thumbnail could be produced.
type ThumbResult struct {
	FilePath  string `json:"filePath"`
	ThumbPath string `json:"tmbPath,omitempty"`
}

// Backend lists and stores files for one kind of location
type Backend interface {
	ListDirectory(ctx context.Context, path string, modes []string, ignorePatterns []string, limit *ResultsLimit) ([]entry.DirectoryEntry, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Separator() string
}

func hasMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// allow reports whether a listing holding n entries may take another one,
// marking the limit truncated when it may not.
func (l *ResultsLimit) allow(n int) bool {
	if l == nil || l.MaxLoops <= 0 {
		return true
	}
	if n >= l.MaxLoops {
		l.IsTruncated = true
		return false
	}
	return true
}
