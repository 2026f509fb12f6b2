package memimg

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

func writeSprite(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := imaging.New(w, h, c)
	require.NoError(t, imaging.Save(img, path))
}

func TestSprites_LoadDir(t *testing.T) {
	// Given: a directory with two images and a text file
	dir := t.TempDir()
	writeSprite(t, filepath.Join(dir, "snake.png"), 200, 100, color.NRGBA{R: 0x72, G: 0x17, B: 0x45, A: 0xff})
	writeSprite(t, filepath.Join(dir, "food.jpg"), 64, 64, color.NRGBA{G: 0xff, A: 0xff})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not an image"), 0o644))

	// When: loading with a 20px block
	sprites := NewSprites(20, nil)
	require.NoError(t, sprites.LoadDir(dir))

	// Then: both images are scaled to one block
	for _, name := range []string{"snake", "food"} {
		img, ok := sprites.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds(), name)
	}

	// Then: the text file was skipped
	_, ok := sprites.Get("README")
	assert.False(t, ok)
}

func TestSpriteName(t *testing.T) {
	assert.Equal(t, "snake", SpriteName("/tmp/sprites/snake.png"))
	assert.Equal(t, "food.small", SpriteName("food.small.jpg"))
}

func TestSprites_Watch(t *testing.T) {
	// Given: an empty watched directory
	dir := t.TempDir()
	sprites := NewSprites(10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sprites.Watch(ctx, dir) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// When: a sprite appears
	// the watcher needs a moment to register before the file is written
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "food.png")
	writeSprite(t, path, 30, 30, color.White)

	// Then: it is loaded
	require.Eventually(t, func() bool {
		_, ok := sprites.Get("food")
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	// When: it is removed
	require.NoError(t, os.Remove(path))

	// Then: it is dropped from the cache
	require.Eventually(t, func() bool {
		_, ok := sprites.Get("food")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)
}
