package snake

// 渲染边界上使用的实体、文本和浮层名称
const (
	EntitySnake = "snake"
	EntityFood  = "food"

	TextScore = "score"
	TextSpeed = "speed"

	OverlayMenu     = "menu"
	OverlayGameOver = "game-over"
)

// Renderer 游戏循环唯一依赖的表现层接口，坐标单位为像素。
type Renderer interface {
	// ResizeBoard 设置地图的像素尺寸
	ResizeBoard(widthPx, heightPx int)
	// PlaceEntity 创建或移动一个实体
	PlaceEntity(id string, xPx, yPx int)
	// HideEntity 实体保留但不可见
	HideEntity(id string)
	RemoveAllEntities()
	SetText(field, value string)
	SetOverlayVisible(name string, visible bool)
}

// FrameRenderer 可选接口，循环在一次操作的所有更新前后调用，
// 实现方在 CommitFrame 之前不得画出中间状态。
type FrameRenderer interface {
	BeginFrame()
	CommitFrame()
}
