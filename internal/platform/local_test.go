package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func names(t *testing.T, l *Local, dir string, modes, ignore []string, limit *ResultsLimit) []string {
	t.Helper()
	entries, err := l.ListDirectory(context.Background(), dir, modes, ignore, limit)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestLocalListDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "a.jpg"), "a")
	writeFile(t, filepath.Join(dir, ".hidden"), "h")
	writeFile(t, filepath.Join(dir, ".ts", "tsm.json"), "{}")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	l := NewLocal(".ts", []string{dir})

	entries, err := l.ListDirectory(context.Background(), dir, nil, nil, &ResultsLimit{})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// directories first, meta folder never listed, hidden files left to the caller
	assert.Equal(t, "sub", entries[0].Name)
	assert.False(t, entries[0].IsFile)
	assert.Equal(t, []string{"sub", ".hidden", "a.jpg", "b.txt"}, names(t, l, dir, nil, nil, nil))
	assert.Equal(t, filepath.Join(dir, "a.jpg"), entries[2].Path)
	assert.Equal(t, int64(1), entries[2].Size)
}

func TestLocalListDirectoryTruncates(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"1", "2", "3"} {
		writeFile(t, filepath.Join(dir, n), n)
	}
	l := NewLocal(".ts", []string{"*"})

	limit := &ResultsLimit{MaxLoops: 2}
	assert.Len(t, names(t, l, dir, nil, nil, limit), 2)
	assert.True(t, limit.IsTruncated)

	limit = &ResultsLimit{MaxLoops: 3}
	assert.Len(t, names(t, l, dir, nil, nil, limit), 3)
	assert.False(t, limit.IsTruncated)
}

func TestLocalListDirectoryIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.md"), "k")
	writeFile(t, filepath.Join(dir, "drop.tmp"), "d")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0755))

	l := NewLocal(".ts", []string{"*"})
	got := names(t, l, dir, nil, []string{"*.tmp", "**/node_modules"}, nil)
	assert.Equal(t, []string{"keep.md"}, got)
}

func TestLocalListDirectoryExtractsThumbsAndSidecars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "photo.png"), "p")
	writeFile(t, filepath.Join(dir, ".ts", "photo.png.jpg"), "t")
	writeFile(t, filepath.Join(dir, ".ts", "photo.png.json"), `{"id":"m1","tags":[{"title":"holiday"}]}`)

	l := NewLocal(".ts", []string{"*"})

	entries, err := l.ListDirectory(context.Background(), dir, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ThumbPath)
	require.NotNil(t, entries[0].Meta)
	assert.Equal(t, "holiday", entries[0].Meta.Tags[0].Title)

	entries, err = l.ListDirectory(context.Background(), dir, []string{ModeExtractThumbPath}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".ts", "photo.png.jpg"), entries[0].ThumbPath)
}

func TestLocalListDirectoryErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	writeFile(t, file, "x")

	l := NewLocal(".ts", []string{dir})

	_, err := l.ListDirectory(context.Background(), file, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = l.ListDirectory(context.Background(), filepath.Dir(dir), nil, nil, nil)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = l.ListDirectory(context.Background(), filepath.Join(dir, "missing"), nil, nil, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.ListDirectory(ctx, dir, nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalIsPathAllowed(t *testing.T) {
	l := NewLocal(".ts", []string{"/srv/data"})
	assert.True(t, l.IsPathAllowed("/srv/data"))
	assert.True(t, l.IsPathAllowed("/srv/data/a/b"))
	assert.False(t, l.IsPathAllowed("/srv/database"))
	assert.False(t, l.IsPathAllowed("/srv"))

	l.SetAllowedPaths([]string{"*"})
	assert.True(t, l.IsPathAllowed("/anything"))

	l.SetAllowedPaths(nil)
	assert.False(t, l.IsPathAllowed("/srv/data"))
}

func TestLocalReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(".ts", []string{dir})
	path := filepath.Join(dir, ".ts", "tsm.json")

	require.NoError(t, l.WriteFile(context.Background(), path, []byte(`{"id":"x"}`)))
	data, err := l.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x"}`, string(data))

	_, err = l.ReadFile(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.ErrorIs(t, l.WriteFile(context.Background(), "/etc/nope", nil), ErrAccessDenied)
}
