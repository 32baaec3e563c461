package components

// StreamStateComponent 车道流式生成状态
//
// 不变量：
//   - FrontierPosition 只会因普通车道生成而增加其宽度（胜利车道不推进）
//   - 每次生成调用（包括胜利车道）LanesCreated 恰好加 1
type StreamStateComponent struct {
	FrontierPosition float64 // 下一条车道的位置
	LanesCreated     int     // 本局已生成车道数
	CurrentDropIndex int     // 顺序掉落游标，初始 -1，循环 0..池长度-1
}

// LaneComponent 已生成的车道实例
type LaneComponent struct {
	TemplateID string
	Position   float64 // 车道沿前进方向的位置
	Width      float64 // 胜利车道为 0
	Index      int     // 本局第几条车道（从 0 开始）
	IsVictory  bool
}

// DropItemComponent 放置在车道上的掉落物
type DropItemComponent struct {
	TemplateID string
	X          float64 // 等于所在车道位置
	Z          float64 // 车道内的横向偏移（已取整）
	LaneEntity uint64  // 所在车道实体ID，车道回收时一并回收
}
