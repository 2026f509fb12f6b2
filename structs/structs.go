package structs

import "time"

// Direction 蛇的移动方向，沿用 R/L/U/D 编码
type Direction string

const (
	Right Direction = "R"
	Left  Direction = "L"
	Up    Direction = "U"
	Down  Direction = "D"
)

// State 游戏状态
type State string

const (
	StateIdle    State = "idle" // 尚未开始过
	StateRunning State = "running"
	StateOver    State = "over"
)

// Position 描述游戏地图上的一个坐标位置（以格子为单位）。
type Position struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Board 游戏地图尺寸，单位为格子。一局游戏内不变。
type Board struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Snake 只有一个蛇头，没有身体。
type Snake struct {
	Position  Position  `json:"position"`
	Direction Direction `json:"direction"`
	Speed     float64   `json:"speed"` // 每秒移动的格子数
}

// GameView 当前游戏状态的快照，用于接口返回。
type GameView struct {
	State     State    `json:"state"`
	Board     Board    `json:"board"`
	Snake     Snake    `json:"snake"`
	Food      Position `json:"food"`
	Score     int      `json:"score"`
	Ticks     int      `json:"ticks"`
	BlockSize int      `json:"block_size"`
}

// GameRecord 一局结束的游戏，写入数据库。
type GameRecord struct {
	ID          int64     `json:"id"`
	Score       int       `json:"score"`
	FinalSpeed  float64   `json:"final_speed"`
	BoardWidth  int       `json:"board_width"`
	BoardHeight int       `json:"board_height"`
	Ticks       int       `json:"ticks"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}
