package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-loop/api"
	"github.com/hoshinonyaruko/snake-loop/config"
	"github.com/hoshinonyaruko/snake-loop/memimg"
	"github.com/hoshinonyaruko/snake-loop/snake"
	"github.com/hoshinonyaruko/snake-loop/sqlite"
	"github.com/hoshinonyaruko/snake-loop/structs"
)

func main() {
	// Initialize the configuration
	conf := config.LoadConfig("./config.json")
	EnsureFoldersExist(conf.SpriteDir, conf.StaticDir)
	logger := initLogger(conf.LogLevel)

	if err := run(logger, conf); err != nil {
		logger.Error("app run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, conf *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 载入精灵图到内存
	sprites := memimg.NewSprites(conf.Blocksize, logger)
	if err := sprites.LoadDir(conf.SpriteDir); err != nil {
		return fmt.Errorf("load sprites: %w", err)
	}
	// 检测并热更新到内存 加速绘图
	go func() {
		if err := sprites.Watch(ctx, conf.SpriteDir); err != nil {
			logger.Error("sprite watcher stopped", "error", err)
		}
	}()

	store, err := sqlite.New(conf.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("could not close sqlite storage", "error", err)
		}
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	renderer := api.NewBoardRenderer(conf.Blocksize, sprites)
	viewport := snake.NewWindowViewport(conf.ViewportWidth, conf.ViewportHeight)
	loop := snake.NewLoop(snake.Options{
		BlockSize:    conf.Blocksize,
		InitialSpeed: conf.InitialSpeed,
		HeaderHeight: conf.HeaderHeight,
		Viewport:     viewport,
		Renderer:     renderer,
		Scheduler:    snake.ClockScheduler{},
		Logger:       logger,
		OnGameOver:   recordGame(store, logger),
	})
	loop.Init()

	if logger.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Loop:      loop,
		Viewport:  viewport,
		Renderer:  renderer,
		Store:     store,
		StaticDir: conf.StaticDir,
		SelfPath:  conf.SelfPath,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:    ":" + conf.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "port", conf.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		logger.Info("Received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// recordGame 每局结束后写入数据库
func recordGame(store *sqlite.Storage, logger *slog.Logger) func(structs.GameRecord) {
	return func(rec structs.GameRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		id, err := store.InsertGameRecord(ctx, rec)
		if err != nil {
			logger.Error("could not record game", "error", err)
			return
		}
		logger.Info("game recorded", "id", id, "score", rec.Score)
	}
}

func initLogger(level string) *slog.Logger {
	var lvl slog.Level

	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(folders ...string) {
	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			err := os.MkdirAll(folder, 0755)
			if err != nil {
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			log.Printf("Created %s directory", folder)
		}
	}
}
