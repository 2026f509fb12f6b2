// 单人贪食蛇的游戏循环
package snake

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-loop/structs"
)

const (
	DefaultBlockSize    = 50
	DefaultInitialSpeed = 5.0
	InitialDirection    = structs.Right

	FoodScore       = 10
	SpeedMultiplier = 1.05
)

// Options 构造 Loop 所需的依赖
type Options struct {
	BlockSize    int     // 每个格子的像素大小
	InitialSpeed float64 // 初始速度，格/秒
	HeaderHeight int     // 地图上方标题栏的像素高度

	Viewport  Viewport
	Renderer  Renderer
	Scheduler Scheduler
	Logger    *slog.Logger

	// OnGameOver 每局结束时调用一次，调用时不持有锁
	OnGameOver func(structs.GameRecord)
	Now        func() time.Time
}

// Loop 持有并推进游戏状态。
// 所有状态都在 mu 之下修改，定时回调和输入事件互不并发。
type Loop struct {
	mu sync.Mutex

	blockSize    int
	initialSpeed float64
	headerHeight int

	viewport   Viewport
	renderer   Renderer
	scheduler  Scheduler
	logger     *slog.Logger
	onGameOver func(structs.GameRecord)
	now        func() time.Time

	state     structs.State
	board     structs.Board
	snake     structs.Snake
	food      structs.Position
	score     int
	ticks     int
	startedAt time.Time

	timer      Timer
	generation uint64 // 每次重置或开始都会递增，旧的定时回调据此失效
}

func NewLoop(opts Options) *Loop {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.InitialSpeed <= 0 {
		opts.InitialSpeed = DefaultInitialSpeed
	}
	if opts.Scheduler == nil {
		opts.Scheduler = ClockScheduler{}
	}
	if opts.Viewport == nil {
		opts.Viewport = FixedViewport{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Loop{
		blockSize:    opts.BlockSize,
		initialSpeed: opts.InitialSpeed,
		headerHeight: opts.HeaderHeight,
		viewport:     opts.Viewport,
		renderer:     opts.Renderer,
		scheduler:    opts.Scheduler,
		logger:       opts.Logger.With("component", "snake"),
		onGameOver:   opts.OnGameOver,
		now:          opts.Now,
		state:        structs.StateIdle,
	}
}

// beginFrame 渲染器支持时开始一帧，返回提交函数
func (l *Loop) beginFrame() func() {
	if f, ok := l.renderer.(FrameRenderer); ok {
		f.BeginFrame()
		return f.CommitFrame
	}
	return func() {}
}

// px 格子坐标转像素
func (l *Loop) px(blocks int) int {
	return blocks * l.blockSize
}

// Init 初始界面：显示菜单，隐藏游戏结束提示
func (l *Loop) Init() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.beginFrame()()

	l.renderer.SetOverlayVisible(OverlayMenu, true)
	l.renderer.SetOverlayVisible(OverlayGameOver, false)
}

// ResizeBoard 按当前可视区域重新计算地图尺寸
func (l *Loop) ResizeBoard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.beginFrame()()

	l.resizeBoard()
}

func (l *Loop) resizeBoard() {
	w, h := l.viewport.Size()
	pxW, pxH := BoardPixels(w, h, l.headerHeight, l.blockSize)

	l.renderer.ResizeBoard(pxW, pxH)
	l.board = structs.Board{
		Width:  pxW / l.blockSize,
		Height: pxH / l.blockSize,
	}
}

// ResetGame 清空画面并初始化新一局：蛇在原点，食物在右下角，分数归零
func (l *Loop) ResetGame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.beginFrame()()

	l.resetGame()
}

func (l *Loop) resetGame() {
	l.cancelTick()

	l.renderer.RemoveAllEntities()
	l.renderer.SetOverlayVisible(OverlayGameOver, false)

	l.resizeBoard()

	l.snake = structs.Snake{
		Position:  structs.Position{X: 0, Y: 0},
		Direction: InitialDirection,
		Speed:     l.initialSpeed,
	}
	l.renderer.PlaceEntity(EntitySnake, l.px(l.snake.Position.X), l.px(l.snake.Position.Y))

	// 食物固定放在右下角
	l.food = structs.Position{X: l.board.Width - 1, Y: l.board.Height - 1}
	l.renderer.PlaceEntity(EntityFood, l.px(l.food.X), l.px(l.food.Y))

	l.score = 0
	l.ticks = 0
	l.state = structs.StateIdle
	l.updateTexts()

	l.logger.Debug("game reset", "width", l.board.Width, "height", l.board.Height)
}

// StartGame 进入运行状态并开始tick
func (l *Loop) StartGame() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.startGame()
}

func (l *Loop) startGame() {
	l.cancelTick()
	l.state = structs.StateRunning
	l.startedAt = l.now()
	l.tick()

	l.logger.Info("game started", "speed", l.snake.Speed)
}

// cancelTick 停掉尚未触发的定时器
func (l *Loop) cancelTick() {
	l.generation++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// tick 在 1000/speed 毫秒后执行一次更新，然后再次调度自己。
// 延迟按当前速度计算，不补偿累积误差。
func (l *Loop) tick() {
	gen := l.generation
	delay := time.Duration(MsPerTick(l.snake.Speed) * float64(time.Millisecond))
	l.timer = l.scheduler.AfterFunc(delay, func() {
		l.onTick(gen)
	})
}

func (l *Loop) onTick(gen uint64) {
	l.mu.Lock()
	if gen != l.generation || l.state != structs.StateRunning {
		l.mu.Unlock()
		return
	}

	commit := l.beginFrame()
	record, over := l.updateGame()
	commit()
	if !over {
		l.tick()
	} else {
		l.timer = nil
	}
	l.mu.Unlock()

	if over {
		l.notifyGameOver(record)
	}
}

// UpdateGame 推进一步。游戏已结束时什么都不做。
func (l *Loop) UpdateGame() {
	l.mu.Lock()
	if l.state == structs.StateOver {
		l.mu.Unlock()
		return
	}
	commit := l.beginFrame()
	record, over := l.updateGame()
	commit()
	l.mu.Unlock()

	if over {
		l.notifyGameOver(record)
	}
}

func (l *Loop) updateGame() (structs.GameRecord, bool) {
	l.snake.Position = MovePosition(l.snake.Position, l.snake.Direction)
	l.ticks++

	if OutOfBounds(l.board, l.snake.Position) {
		l.renderer.SetOverlayVisible(OverlayGameOver, true)
		l.renderer.HideEntity(EntitySnake)
		l.state = structs.StateOver

		l.logger.Info("game over", "score", l.score, "ticks", l.ticks, "x", l.snake.Position.X, "y", l.snake.Position.Y)
		return l.record(), true
	}

	l.renderer.PlaceEntity(EntitySnake, l.px(l.snake.Position.X), l.px(l.snake.Position.Y))

	if l.snake.Position == l.food {
		l.score += FoodScore
		l.snake.Speed *= SpeedMultiplier
		l.logger.Debug("food found", "score", l.score, "speed", l.snake.Speed)
	}
	l.updateTexts()

	return structs.GameRecord{}, false
}

func (l *Loop) record() structs.GameRecord {
	return structs.GameRecord{
		Score:       l.score,
		FinalSpeed:  l.snake.Speed,
		BoardWidth:  l.board.Width,
		BoardHeight: l.board.Height,
		Ticks:       l.ticks,
		StartedAt:   l.startedAt,
		EndedAt:     l.now(),
	}
}

func (l *Loop) notifyGameOver(record structs.GameRecord) {
	if l.onGameOver != nil {
		l.onGameOver(record)
	}
}

func (l *Loop) updateTexts() {
	l.renderer.SetText(TextScore, strconv.Itoa(l.score))
	l.renderer.SetText(TextSpeed, strconv.FormatFloat(l.snake.Speed, 'f', -1, 64))
}

// HandleKeyPress 方向键改变方向，只在运行时生效，其它按键忽略
func (l *Loop) HandleKeyPress(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != structs.StateRunning {
		return
	}
	if dir, ok := directionForKey(key); ok {
		l.snake.Direction = dir
	}
}

// HandleFormSubmit 隐藏菜单并开始新的一局
func (l *Loop) HandleFormSubmit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.beginFrame()()

	l.renderer.SetOverlayVisible(OverlayMenu, false)
	l.resetGame()
	l.startGame()
}

// HandleGameOverClick 点击游戏结束提示后回到菜单
func (l *Loop) HandleGameOverClick() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.beginFrame()()

	l.renderer.SetOverlayVisible(OverlayMenu, true)
}

// View 返回当前状态的快照
func (l *Loop) View() structs.GameView {
	l.mu.Lock()
	defer l.mu.Unlock()

	return structs.GameView{
		State:     l.state,
		Board:     l.board,
		Snake:     l.snake,
		Food:      l.food,
		Score:     l.score,
		Ticks:     l.ticks,
		BlockSize: l.blockSize,
	}
}

// State 当前游戏状态
func (l *Loop) State() structs.State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}
