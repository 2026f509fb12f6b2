// 精灵图缓存：按格子大小缩放后放在内存里，目录变化时热更新
package memimg

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

// Sprites 以文件名（不含扩展名）为key的精灵图
type Sprites struct {
	mu        sync.RWMutex
	images    map[string]image.Image
	blockSize int
	logger    *slog.Logger
}

func NewSprites(blockSize int, logger *slog.Logger) *Sprites {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sprites{
		images:    make(map[string]image.Image),
		blockSize: blockSize,
		logger:    logger.With("component", "memimg"),
	}
}

// SpriteName 文件路径对应的精灵名
func SpriteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDir 载入目录下所有能解码的图片，不能解码的文件跳过
func (s *Sprites) LoadDir(directory string) error {
	return filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := s.Load(path); err != nil {
			s.logger.Warn("skip sprite", "path", path, "error", err)
		}
		return nil
	})
}

// Load 解码并缩放到格子大小
func (s *Sprites) Load(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	scaled := imaging.Fill(img, s.blockSize, s.blockSize, imaging.Center, imaging.Lanczos)

	s.mu.Lock()
	s.images[SpriteName(path)] = scaled
	s.mu.Unlock()
	return nil
}

func (s *Sprites) Get(name string) (image.Image, bool) {
	s.mu.RLock()
	img, exists := s.images[name]
	s.mu.RUnlock()
	return img, exists
}

func (s *Sprites) remove(path string) {
	s.mu.Lock()
	delete(s.images, SpriteName(path))
	s.mu.Unlock()
}

// Watch 监听目录，写入/创建时重新载入，删除/改名时移出缓存。阻塞直到 ctx 结束。
func (s *Sprites) Watch(ctx context.Context, directory string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(directory); err != nil {
		return fmt.Errorf("watch %s: %w", directory, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if err := s.Load(event.Name); err != nil {
					s.logger.Debug("reload sprite failed", "path", event.Name, "error", err)
					continue
				}
				s.logger.Info("sprite reloaded", "name", SpriteName(event.Name))
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				s.remove(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
