package api

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-loop/memimg"
	"github.com/hoshinonyaruko/snake-loop/snake"
)

const (
	snakeColor = "#721745"
	foodColor  = "#008000"
	borderHex  = "#333333"
)

type entity struct {
	x, y    int
	visible bool
}

// BoardRenderer 实现 snake.Renderer，把地图画成一张图片。
// 地图外围有半格的边框，上方一格高的标题栏显示分数和速度。
type BoardRenderer struct {
	// frameMu 在 BeginFrame 和 CommitFrame 之间持有，Draw 等待整帧提交
	frameMu   sync.Mutex
	mu        sync.Mutex
	blockSize int
	widthPx   int
	heightPx  int
	entities  map[string]entity
	texts     map[string]string
	overlays  map[string]bool
	sprites   *memimg.Sprites
}

func NewBoardRenderer(blockSize int, sprites *memimg.Sprites) *BoardRenderer {
	if blockSize <= 0 {
		blockSize = snake.DefaultBlockSize
	}
	return &BoardRenderer{
		blockSize: blockSize,
		entities:  make(map[string]entity),
		texts:     make(map[string]string),
		overlays:  make(map[string]bool),
		sprites:   sprites,
	}
}

// BeginFrame 实现 snake.FrameRenderer
func (r *BoardRenderer) BeginFrame() {
	r.frameMu.Lock()
}

func (r *BoardRenderer) CommitFrame() {
	r.frameMu.Unlock()
}

func (r *BoardRenderer) ResizeBoard(widthPx, heightPx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widthPx, r.heightPx = widthPx, heightPx
}

func (r *BoardRenderer) PlaceEntity(id string, xPx, yPx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[id] = entity{x: xPx, y: yPx, visible: true}
}

func (r *BoardRenderer) HideEntity(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entities[id]; ok {
		e.visible = false
		r.entities[id] = e
	}
}

func (r *BoardRenderer) RemoveAllEntities() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = make(map[string]entity)
}

func (r *BoardRenderer) SetText(field, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts[field] = value
}

func (r *BoardRenderer) SetOverlayVisible(name string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays[name] = visible
}

// Entity 返回实体的像素位置
func (r *BoardRenderer) Entity(id string) (x, y int, visible, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	return e.x, e.y, e.visible, ok
}

func (r *BoardRenderer) Text(field string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.texts[field]
}

func (r *BoardRenderer) OverlayVisible(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlays[name]
}

// border 半格宽，至少1像素，空地图也有非零画布
func (r *BoardRenderer) border() int {
	return max(1, r.blockSize/2)
}

func (r *BoardRenderer) header() int {
	return r.blockSize
}

// Origin 地图左上角在画布上的像素位置
func (r *BoardRenderer) Origin() (int, int) {
	return r.border(), r.header() + r.border()
}

// Draw 渲染当前画面
func (r *BoardRenderer) Draw() image.Image {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	border := r.border()
	canvasWidth := r.widthPx + 2*border
	canvasHeight := r.header() + r.heightPx + 2*border
	ox, oy := border, r.header()+border

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// 边框
	dc.SetHexColor(borderHex)
	dc.DrawRectangle(0, float64(r.header()), float64(canvasWidth), float64(r.heightPx+2*border))
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(float64(ox), float64(oy), float64(r.widthPx), float64(r.heightPx))
	dc.Fill()

	renderGrid(dc, ox, oy, r.widthPx, r.heightPx, r.blockSize)

	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := r.entities[id]
		if !e.visible {
			continue
		}
		r.drawEntity(dc, id, ox+e.x, oy+e.y)
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("Score: %s   Speed: %s", r.texts[snake.TextScore], r.texts[snake.TextSpeed]),
		float64(border), float64(r.header())/2, 0, 0.5)

	img := dc.Image()
	switch {
	case r.overlays[snake.OverlayGameOver]:
		img = drawOverlay(imaging.Blur(img, 3), "GAME OVER")
	case r.overlays[snake.OverlayMenu]:
		img = drawOverlay(img, "Submit to start")
	}
	return img
}

func (r *BoardRenderer) drawEntity(dc *gg.Context, id string, x, y int) {
	if r.sprites != nil {
		if img, found := r.sprites.Get(id); found {
			dc.DrawImage(img, x, y)
			return
		}
	}

	size := float64(r.blockSize)
	switch id {
	case snake.EntityFood:
		dc.SetHexColor(foodColor)
		dc.DrawCircle(float64(x)+size/2, float64(y)+size/2, size/2)
	case snake.EntitySnake:
		dc.SetHexColor(snakeColor)
		dc.DrawRectangle(float64(x), float64(y), size, size)
	default:
		// 未知实体画成黑色方块
		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(float64(x), float64(y), size, size)
	}
	dc.Fill()
}

func drawOverlay(img image.Image, text string) image.Image {
	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, w/2, h/2, 0.5, 0.5)
	return dc.Image()
}

func renderGrid(dc *gg.Context, ox, oy, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(ox+x), float64(oy), float64(ox+x), float64(oy+height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(float64(ox), float64(oy+y), float64(ox+width), float64(oy+y))
		dc.Stroke()
	}
}

// SavePNG 渲染并保存为PNG
func (r *BoardRenderer) SavePNG(fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return gg.SavePNG(fileName, r.Draw())
}

// EncodePNG 渲染并编码为PNG字节
func (r *BoardRenderer) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Draw()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
