package search

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/tagdeck/internal/entry"
)

func sample() []entry.DirectoryEntry {
	return []entry.DirectoryEntry{
		{Path: "/d/Report[draft].pdf", Name: "Report[draft].pdf", IsFile: true, Extension: "pdf",
			Tags: []entry.Tag{{Title: "draft", Type: entry.TagTypePlain}}},
		{Path: "/d/photo.jpg", Name: "photo.jpg", IsFile: true, Extension: "jpg",
			Tags: []entry.Tag{{Title: "Holiday", Type: entry.TagTypeSidecar}}},
		{Path: "/d/reports", Name: "reports"},
	}
}

func TestFilter(t *testing.T) {
	entries := sample()

	assert.Len(t, Filter(entries, Query{}), 3)
	assert.Len(t, Filter(entries, Query{Text: "REPORT"}), 2)
	assert.Len(t, Filter(entries, Query{Text: "report", FilesOnly: true}), 1)

	got := Filter(entries, Query{Tags: []string{"holiday"}})
	require.Len(t, got, 1)
	assert.Equal(t, "/d/photo.jpg", got[0].Path)

	assert.Empty(t, Filter(entries, Query{Tags: []string{"holiday", "draft"}}))
	assert.Len(t, Filter(entries, Query{Extensions: []string{".PDF", "jpg"}}), 2)
}

func TestSearchAndExit(t *testing.T) {
	r := New()
	assert.False(t, r.IsSearchMode())

	matches := r.Search(sample(), Query{Text: "photo"})
	require.Len(t, matches, 1)
	assert.True(t, r.IsSearchMode())
	assert.Equal(t, "photo", r.Query().Text)
	assert.Len(t, r.Results(), 1)

	r.Exit()
	assert.False(t, r.IsSearchMode())
	assert.Empty(t, r.Results())
}

func TestResultsAreCopies(t *testing.T) {
	r := New()
	in := sample()
	r.SetResults(in)
	in[0].Name = "changed"

	out := r.Results()
	assert.Equal(t, "Report[draft].pdf", out[0].Name)
	out[1].Name = "changed"
	assert.Equal(t, "photo.jpg", r.Results()[1].Name)

	r.SetResults(nil)
	assert.Empty(t, r.Results())
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	r := New()
	r.SetResults([]entry.DirectoryEntry{{Path: "/a", Name: "a", IsFile: true}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Update(func(results []entry.DirectoryEntry) []entry.DirectoryEntry {
				return append(results, entry.DirectoryEntry{Path: fmt.Sprintf("/n%d", i)})
			})
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Results(), 51)
}
