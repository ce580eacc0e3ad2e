// Package search holds the search result set shown in place of the
// directory listing while search mode is on.
package search

import (
	"strings"
	"sync"

	"github.com/ngenohkevin/tagdeck/internal/entry"
)

// Query filters entries by name and tags. Empty fields match everything.
type Query struct {
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
	FilesOnly  bool     `json:"filesOnly,omitempty"`
}

// Results is the search overlay
type Results struct {
	mu         sync.RWMutex
	searchMode bool
	query      Query
	results    []entry.DirectoryEntry
}

func New() *Results {
	return &Results{}
}

func (r *Results) IsSearchMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.searchMode
}

// Results returns a copy of the result set
func (r *Results) Results() []entry.DirectoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return entry.Clone(r.results)
}

// SetResults replaces the result set. A nil slice clears it.
func (r *Results) SetResults(results []entry.DirectoryEntry) {
	r.mu.Lock()
	r.results = entry.Clone(results)
	r.mu.Unlock()
}

// Update replaces the result set with fn applied to it, atomically with
// respect to other updates.
func (r *Results) Update(fn func(results []entry.DirectoryEntry) []entry.DirectoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = entry.Clone(fn(entry.Clone(r.results)))
}

// Query returns the last executed query
func (r *Results) Query() Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.query
}

// Search filters entries with q, stores the matches and enters search mode.
func (r *Results) Search(entries []entry.DirectoryEntry, q Query) []entry.DirectoryEntry {
	matches := Filter(entries, q)

	r.mu.Lock()
	r.searchMode = true
	r.query = q
	r.results = entry.Clone(matches)
	r.mu.Unlock()

	return matches
}

// Exit leaves search mode and drops the results
func (r *Results) Exit() {
	r.mu.Lock()
	r.searchMode = false
	r.query = Query{}
	r.results = nil
	r.mu.Unlock()
}

// Filter returns the entries matching q, in input order
func Filter(entries []entry.DirectoryEntry, q Query) []entry.DirectoryEntry {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]entry.DirectoryEntry, 0)
	for _, e := range entries {
		if q.FilesOnly && !e.IsFile {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(e.Name), text) {
			continue
		}
		if !hasAllTags(e, q.Tags) {
			continue
		}
		if len(q.Extensions) > 0 && !hasExtension(e, q.Extensions) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasAllTags(e entry.DirectoryEntry, tags []string) bool {
	for _, want := range tags {
		found := false
		for _, t := range e.Tags {
			if strings.EqualFold(t.Title, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasExtension(e entry.DirectoryEntry, exts []string) bool {
	for _, ext := range exts {
		if strings.EqualFold(strings.TrimPrefix(ext, "."), e.Extension) {
			return true
		}
	}
	return false
}
