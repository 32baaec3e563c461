package game

import "fmt"

// RunState 一局游戏的顶层状态
type RunState int

const (
	// StatePaused 暂停（初始状态），车道生成与死亡线都不更新
	StatePaused RunState = iota
	// StateRunning 运行中，每帧更新
	StateRunning
	// StateGameOver 生命耗尽
	StateGameOver
	// StateVictory 到达终点
	StateVictory
)

var runStateNames = map[RunState]string{
	StatePaused:   "Paused",
	StateRunning:  "Running",
	StateGameOver: "GameOver",
	StateVictory:  "Victory",
}

// String 返回状态名称
func (s RunState) String() string {
	if name, ok := runStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// IsFinished 是否已结束（游戏结束或胜利）
func (s RunState) IsFinished() bool {
	return s == StateGameOver || s == StateVictory
}

// IntentKind 输入意图类型
// 核心不解析原始设备输入，只接收离散意图
type IntentKind int

const (
	// IntentMove 移动 | Direction: left / right / forward / backward
	IntentMove IntentKind = iota
	// IntentPauseToggle 暂停键：运行中切换暂停，结束后返回主菜单
	IntentPauseToggle
	// IntentConfirm 确认键：暂停时开始，结束后重新开始
	IntentConfirm
)

// Intent 一条输入意图
type Intent struct {
	Kind      IntentKind
	Player    int
	Direction string
}
