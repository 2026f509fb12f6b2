package snake

import "time"

// Timer 一次性定时任务
type Timer interface {
	Stop() bool
}

// Scheduler 在 d 之后执行一次 f
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// ClockScheduler 基于 time.AfterFunc 的真实调度器
type ClockScheduler struct{}

func (ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
