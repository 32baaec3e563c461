package components

// TimerComponent 通用计时器组件
// 用于处理需要时间延迟的行为（如复活等待、延迟结束）
type TimerComponent struct {
	Name        string  // 计时器名称，如 "respawn_p0"
	TargetTime  float64 // 目标时间（秒）
	CurrentTime float64 // 当前已过时间（秒）
	IsReady     bool    // 计时器是否已完成
}

// TaskComponent 挂在计时器实体上的延迟回调
// Generation 与调度器当前代数不一致时回调被丢弃（重新开局后的陈旧任务）
type TaskComponent struct {
	Generation uint64
	Callback   func()
}
