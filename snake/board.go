package snake

import (
	"sync"

	"github.com/hoshinonyaruko/snake-loop/structs"
)

// Viewport 提供可视区域的像素尺寸
type Viewport interface {
	Size() (width, height int)
}

// FixedViewport 固定尺寸的可视区域
type FixedViewport struct {
	Width  int
	Height int
}

func (v FixedViewport) Size() (int, int) {
	return v.Width, v.Height
}

// WindowViewport 可以在运行中改变尺寸，新尺寸在下一次重置时生效
type WindowViewport struct {
	mu     sync.RWMutex
	width  int
	height int
}

func NewWindowViewport(width, height int) *WindowViewport {
	return &WindowViewport{width: width, height: height}
}

func (v *WindowViewport) Size() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

func (v *WindowViewport) Resize(width, height int) {
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
}

// BoardPixels 根据可视区域计算地图像素尺寸：
// 左右各留一格边距，下方留一格，上方去掉标题栏高度，再向下取整到格子大小的倍数。
func BoardPixels(viewportW, viewportH, header, blockSize int) (int, int) {
	pxW := viewportW - 2*blockSize
	pxH := viewportH - header - blockSize
	if pxW < 0 {
		pxW = 0
	}
	if pxH < 0 {
		pxH = 0
	}
	pxW -= pxW % blockSize
	pxH -= pxH % blockSize
	return pxW, pxH
}

// OutOfBounds 位置是否超出地图
func OutOfBounds(board structs.Board, pos structs.Position) bool {
	return pos.X < 0 || pos.Y < 0 || pos.X >= board.Width || pos.Y >= board.Height
}

// MovePosition 按方向移动一格，未知方向原地不动
func MovePosition(pos structs.Position, dir structs.Direction) structs.Position {
	switch dir {
	case structs.Right:
		pos.X++
	case structs.Left:
		pos.X--
	case structs.Up:
		pos.Y--
	case structs.Down:
		pos.Y++
	}
	return pos
}

// MsPerTick 以给定速度（格/秒）移动时每个tick的毫秒数
func MsPerTick(speed float64) float64 {
	return 1000.0 / speed
}

// directionForKey 方向键到方向的映射
func directionForKey(key string) (structs.Direction, bool) {
	switch key {
	case "ArrowUp":
		return structs.Up, true
	case "ArrowDown":
		return structs.Down, true
	case "ArrowLeft":
		return structs.Left, true
	case "ArrowRight":
		return structs.Right, true
	}
	return "", false
}
