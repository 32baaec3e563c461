// Package events 提供一局游戏内的生命周期通知和效果派发
//
// 两条通道：
//   - EventBus: 核心向外广播"发生了什么"（车道生成、死亡、升级、结束……）
//   - EffectDispatcher: 核心向指定目标发送"去做什么"（播放音效、移动玩家……）
//
// 二者都是同步、单线程的，在游戏循环内调用。
package events

// EventType 生命周期事件类型
type EventType int

const (
	// EventLaneMaterialized 新车道已生成 | Payload: LaneMaterializedPayload
	EventLaneMaterialized EventType = iota
	// EventItemDropped 车道上放置了掉落物 | Payload: ItemDroppedPayload
	EventItemDropped
	// EventLaneRecycled 车道被回收 | Payload: LaneMaterializedPayload
	EventLaneRecycled

	// EventPlayerDeath 玩家失去一条生命 | Payload: PlayerPayload
	EventPlayerDeath
	// EventRespawnBegin 复活标记出现 | Payload: PlayerPayload
	EventRespawnBegin
	// EventRespawnEnd 玩家在复活标记处重新激活 | Payload: PlayerPayload
	EventRespawnEnd
	// EventDeathLineContact 死亡线追上玩家 | Payload: PlayerPayload
	EventDeathLineContact

	// EventPowerupActivated 道具激活（续时不会再次触发）| Payload: PowerupPayload
	EventPowerupActivated
	// EventPowerupExpired 道具到期或被强制结束 | Payload: PowerupPayload
	EventPowerupExpired

	// EventScoreChanged 分数变化 | Payload: ScorePayload
	EventScoreChanged
	// EventLivesChanged 生命数变化 | Payload: LivesPayload
	EventLivesChanged
	// EventLevelUp 升级（死亡线加速）| Payload: LevelUpPayload
	EventLevelUp

	// EventPaused 进入暂停 | Payload: nil
	EventPaused
	// EventResumed 恢复运行 | Payload: nil
	EventResumed
	// EventGameOver 游戏结束 | Payload: RunResultPayload
	EventGameOver
	// EventVictory 胜利 | Payload: RunResultPayload
	EventVictory
	// EventRestarted 新一局已初始化 | Payload: nil
	EventRestarted
	// EventMainMenuRequested 请求返回主菜单（本核心的终止出口）| Payload: nil
	EventMainMenuRequested
)

var eventTypeNames = map[EventType]string{
	EventLaneMaterialized:  "LaneMaterialized",
	EventItemDropped:       "ItemDropped",
	EventLaneRecycled:      "LaneRecycled",
	EventPlayerDeath:       "PlayerDeath",
	EventRespawnBegin:      "RespawnBegin",
	EventRespawnEnd:        "RespawnEnd",
	EventDeathLineContact:  "DeathLineContact",
	EventPowerupActivated:  "PowerupActivated",
	EventPowerupExpired:    "PowerupExpired",
	EventScoreChanged:      "ScoreChanged",
	EventLivesChanged:      "LivesChanged",
	EventLevelUp:           "LevelUp",
	EventPaused:            "Paused",
	EventResumed:           "Resumed",
	EventGameOver:          "GameOver",
	EventVictory:           "Victory",
	EventRestarted:         "Restarted",
	EventMainMenuRequested: "MainMenuRequested",
}

// String 返回事件类型名称（用于日志）
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// GameEvent 一条生命周期事件
type GameEvent struct {
	Type    EventType
	Payload any
	Frame   int64 // 产生事件时的帧号
}

// LaneMaterializedPayload 车道生成/回收
type LaneMaterializedPayload struct {
	EntityID   uint64
	TemplateID string
	Position   float64
	Width      float64
	IsVictory  bool
	Index      int // 本局第几条车道（从 0 开始）
}

// ItemDroppedPayload 掉落物放置
type ItemDroppedPayload struct {
	EntityID   uint64
	TemplateID string
	X, Z       float64
}

// PlayerPayload 与单个玩家相关的事件
type PlayerPayload struct {
	Player int
	X, Z   float64
}

// PowerupPayload 道具事件
type PowerupPayload struct {
	ID     string
	Forced bool // 是否由死亡/游戏结束强制结束
}

// ScorePayload 分数事件
type ScorePayload struct {
	Score      int
	Delta      int
	Multiplier int
}

// LivesPayload 生命事件
type LivesPayload struct {
	Lives int
	Delta int
}

// LevelUpPayload 升级事件
type LevelUpPayload struct {
	Level          int
	DeathLineSpeed float64
}

// RunResultPayload 一局结束时的结算
type RunResultPayload struct {
	Score      int
	HighScore  int
	TotalCoins int
	NewRecord  bool
}

// EventHandler 事件处理函数
type EventHandler func(ev GameEvent)

// EventBus 同步事件总线
//
// 订阅者按注册顺序被调用；在处理函数中再次 Publish 是允许的（深度优先）。
type EventBus struct {
	handlers map[EventType][]EventHandler
	frame    int64
}

// NewEventBus 创建事件总线
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

// Subscribe 订阅指定类型的事件
func (b *EventBus) Subscribe(t EventType, handler EventHandler) {
	b.handlers[t] = append(b.handlers[t], handler)
}

// SubscribeAll 订阅全部事件类型
func (b *EventBus) SubscribeAll(handler EventHandler) {
	for t := range eventTypeNames {
		b.Subscribe(t, handler)
	}
}

// SetFrame 设置当前帧号，之后发布的事件都带上该帧号
func (b *EventBus) SetFrame(frame int64) {
	b.frame = frame
}

// Publish 发布事件
func (b *EventBus) Publish(t EventType, payload any) {
	if b == nil {
		return
	}
	ev := GameEvent{Type: t, Payload: payload, Frame: b.frame}
	for _, h := range b.handlers[t] {
		h(ev)
	}
}

// HandlerCount 返回某类型的订阅者数量
func (b *EventBus) HandlerCount(t EventType) int {
	return len(b.handlers[t])
}
