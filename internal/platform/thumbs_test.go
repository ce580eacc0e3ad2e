package platform

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, imaging.Save(img, path))
}

func TestRenderThumbnail(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	dst := filepath.Join(dir, ".ts", "big.png.jpg")
	writeImage(t, src, 1200, 600)

	require.NoError(t, RenderThumbnail(src, dst))

	thumb, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, ThumbMaxSize, thumb.Bounds().Dx())
	assert.Equal(t, ThumbMaxSize/2, thumb.Bounds().Dy())

	assert.Error(t, RenderThumbnail(filepath.Join(dir, "missing.png"), dst))
}

func TestThumbPoolCreateThumbnails(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	txt := filepath.Join(dir, "b.svg")
	writeImage(t, img, 20, 20)
	writeFile(t, txt, "<svg/>")

	p := NewThumbPool(".ts", 2)

	_, err := p.CreateThumbnails(context.Background(), []string{img})
	assert.ErrorIs(t, err, ErrWorkerUnavailable)

	p.Start(context.Background())
	defer p.Stop()
	assert.True(t, p.Running())

	results, err := p.CreateThumbnails(context.Background(), []string{img, txt})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byPath := map[string]string{}
	for _, r := range results {
		byPath[r.FilePath] = r.ThumbPath
	}
	assert.Equal(t, filepath.Join(dir, ".ts", "a.png.jpg"), byPath[img])
	assert.Empty(t, byPath[txt])
	assert.FileExists(t, byPath[img])
}

func TestThumbPoolStop(t *testing.T) {
	p := NewThumbPool(".ts", 1)
	p.Start(context.Background())
	p.Stop()
	p.Stop()
	assert.False(t, p.Running())

	_, err := p.CreateThumbnails(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrWorkerUnavailable)
}

func TestThumbPoolResolveReusesFreshThumb(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	thumb := filepath.Join(dir, ".ts", "doc.pdf.jpg")
	writeFile(t, src, "%PDF")
	writeFile(t, thumb, "jpeg")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(thumb, later, later))

	p := NewThumbPool(".ts", 1)

	res, err := p.Resolve(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, thumb, res.ThumbPath)

	// stale thumbnail of a file that cannot be rendered is not returned
	earlier := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(thumb, earlier, earlier))
	res, err = p.Resolve(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, res.ThumbPath)
	assert.Equal(t, src, res.FilePath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Resolve(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}
