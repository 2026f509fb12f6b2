package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-loop/snake"
	"github.com/hoshinonyaruko/snake-loop/sqlite"
	"github.com/hoshinonyaruko/snake-loop/structs"
)

var (
	ErrMissingParam = errors.New("missing required query parameter")
	ErrInvalidParam = errors.New("invalid query parameter")
)

const (
	boardImageName = "board.png"
	defaultLimit   = 10
	maxLimit       = 100

	orderTop    = "top"
	orderRecent = "recent"
)

// Deps 路由需要的组件
type Deps struct {
	Loop      *snake.Loop
	Viewport  *snake.WindowViewport
	Renderer  *BoardRenderer
	Store     *sqlite.Storage
	StaticDir string
	SelfPath  string
	Logger    *slog.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	log := deps.Logger.With("component", "api")

	router := gin.New()
	router.Use(gin.Recovery())

	// 开始/重新开始
	router.POST("/submit", SubmitHandler(deps.Loop))
	// 方向键
	router.POST("/keypress", KeyPressHandler(deps.Loop))
	// 点击游戏结束提示回到菜单
	router.POST("/gameover/click", GameOverClickHandler(deps.Loop))
	router.POST("/viewport", ViewportHandler(deps.Viewport))
	router.GET("/state", StateHandler(deps.Loop))
	// 渲染函数 返回静态地址
	router.GET("/render-board", RenderBoardHandler(deps.Renderer, deps.StaticDir, deps.SelfPath, log))
	router.GET("/scores", ScoresHandler(deps.Store, log))
	router.Static("/static", deps.StaticDir)

	return router
}

func errorResponse(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func SubmitHandler(loop *snake.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		loop.HandleFormSubmit()
		c.JSON(http.StatusOK, gin.H{"state": loop.View()})
	}
}

func KeyPressHandler(loop *snake.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("key")
		if key == "" {
			errorResponse(c, http.StatusBadRequest, fmt.Errorf("%w: key", ErrMissingParam))
			return
		}

		// 无效按键或游戏未运行时静默忽略
		loop.HandleKeyPress(key)
		c.JSON(http.StatusOK, gin.H{"state": loop.View()})
	}
}

func GameOverClickHandler(loop *snake.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		loop.HandleGameOverClick()
		c.JSON(http.StatusOK, gin.H{"state": loop.View()})
	}
}

func ViewportHandler(viewport *snake.WindowViewport) gin.HandlerFunc {
	return func(c *gin.Context) {
		width, err := positiveQuery(c, "width")
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}
		height, err := positiveQuery(c, "height")
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}

		// 新尺寸在下一局生效
		viewport.Resize(width, height)
		c.JSON(http.StatusOK, gin.H{"width": width, "height": height})
	}
}

func positiveQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, name, raw)
	}
	return v, nil
}

func StateHandler(loop *snake.Loop) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"state": loop.View()})
	}
}

func RenderBoardHandler(renderer *BoardRenderer, staticDir, selfPath string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("inline") == "1" {
			data, err := renderer.EncodePNG()
			if err != nil {
				log.Error("encode board failed", "error", err)
				errorResponse(c, http.StatusInternalServerError, errors.New("unable to render board"))
				return
			}
			c.Data(http.StatusOK, "image/png", data)
			return
		}

		if err := renderer.SavePNG(filepath.Join(staticDir, boardImageName)); err != nil {
			log.Error("save board failed", "error", err)
			errorResponse(c, http.StatusInternalServerError, errors.New("unable to render board"))
			return
		}

		imageURL := fmt.Sprintf("http://%s/static/%s", selfPath, boardImageName)
		c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
	}
}

func ScoresHandler(store *sqlite.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLimit
		if raw := c.Query("limit"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v <= 0 {
				errorResponse(c, http.StatusBadRequest, fmt.Errorf("%w: limit=%q", ErrInvalidParam, raw))
				return
			}
			limit = min(v, maxLimit)
		}

		var (
			scores []structs.GameRecord
			err    error
		)
		switch order := c.DefaultQuery("order", orderTop); order {
		case orderTop:
			scores, err = store.TopScores(c.Request.Context(), limit)
		case orderRecent:
			scores, err = store.RecentGames(c.Request.Context(), limit)
		default:
			errorResponse(c, http.StatusBadRequest, fmt.Errorf("%w: order=%q", ErrInvalidParam, order))
			return
		}
		if err != nil {
			log.Error("load scores failed", "error", err)
			errorResponse(c, http.StatusInternalServerError, errors.New("unable to load scores"))
			return
		}

		// 还没有结束的游戏时 best 为 null
		var best *int
		v, err := store.BestScore(c.Request.Context())
		switch {
		case err == nil:
			best = &v
		case !errors.Is(err, sqlite.ErrNoRecords):
			log.Error("load best score failed", "error", err)
			errorResponse(c, http.StatusInternalServerError, errors.New("unable to load scores"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"scores": scores, "best": best})
	}
}
