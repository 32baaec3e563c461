package events

import (
	"errors"
	"fmt"
	"log"
)

// ErrMissingCollaborator 目标上没有注册对应效果的处理者
// 非致命：调用方继续执行，只是缺少该副作用
var ErrMissingCollaborator = errors.New("missing collaborator")

// EffectKind 效果类型
type EffectKind int

const (
	// EffectNone 空效果（配置中未填写）
	EffectNone EffectKind = iota

	// ---- 由运行控制器自身处理 ----

	// EffectChangeScore 加分 | Value: 分数增量
	EffectChangeScore
	// EffectChangeLives 改变生命 | Value: 生命增量
	EffectChangeLives
	// EffectSetScoreMultiplier 设置分数倍率 | Value: 倍率
	EffectSetScoreMultiplier
	// EffectActivatePowerup 激活道具 | Name: 道具ID
	EffectActivatePowerup
	// EffectSetGameSpeed 设置游戏速度 | Value: 时间倍率
	EffectSetGameSpeed
	// EffectSetPlayerSpeed 设置玩家移动速度 | Target.Index: 玩家, Value: 速度
	EffectSetPlayerSpeed
	// EffectResetDeathLine 将死亡线目标位置重置到镜头
	EffectResetDeathLine
	// EffectVictory 触发胜利（终点线等外部协作者调用）
	EffectVictory

	// ---- 由外部实体处理 ----

	// EffectSpawn 实体出现/复活动画
	EffectSpawn
	// EffectMove 移动 | Name: "left" / "right" / "forward" / "backward"
	EffectMove
	// EffectSetActive 显示/隐藏实体 | Value: 1 显示, 0 隐藏
	EffectSetActive
	// EffectPlaceAt 放置实体 | X, Z, Rotation
	EffectPlaceAt
	// EffectSetSpeed 设置实体移动速度 | Value: 速度
	EffectSetSpeed

	// ---- 由音效/界面处理 ----

	// EffectPlaySound 播放音效 | Name: 音效ID
	EffectPlaySound
	// EffectShowCanvas 显示/隐藏界面 | Name: 界面ID, Value: 1 显示, 0 隐藏
	EffectShowCanvas
	// EffectSetText 更新文本 | Name: 字段, Value: 数值
	EffectSetText
	// EffectShowIcon 显示/隐藏道具图标 | Name: 道具ID, Value: 1/0
	EffectShowIcon
	// EffectIconFill 道具图标剩余时间比例 | Name: 道具ID, Value: [0,1]
	EffectIconFill
)

var effectKindNames = map[EffectKind]string{
	EffectNone:               "",
	EffectChangeScore:        "ChangeScore",
	EffectChangeLives:        "ChangeLives",
	EffectSetScoreMultiplier: "SetScoreMultiplier",
	EffectActivatePowerup:    "ActivatePowerup",
	EffectSetGameSpeed:       "SetGameSpeed",
	EffectSetPlayerSpeed:     "SetPlayerSpeed",
	EffectResetDeathLine:     "ResetDeathLine",
	EffectVictory:            "Victory",
	EffectSpawn:              "Spawn",
	EffectMove:               "Move",
	EffectSetActive:          "SetActive",
	EffectPlaceAt:            "PlaceAt",
	EffectSetSpeed:           "SetSpeed",
	EffectPlaySound:          "PlaySound",
	EffectShowCanvas:         "ShowCanvas",
	EffectSetText:            "SetText",
	EffectShowIcon:           "ShowIcon",
	EffectIconFill:           "IconFill",
}

// String 返回效果名称
func (k EffectKind) String() string {
	if name, ok := effectKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EffectKind(%d)", int(k))
}

// ParseEffectKind 将配置中的效果名称解析为 EffectKind
func ParseEffectKind(name string) (EffectKind, error) {
	for k, n := range effectKindNames {
		if n == name {
			return k, nil
		}
	}
	return EffectNone, fmt.Errorf("unknown effect %q", name)
}

// TargetKind 效果目标类别
type TargetKind int

const (
	// TargetController 运行控制器本身
	TargetController TargetKind = iota
	// TargetPlayer 玩家实体（Index 为玩家序号）
	TargetPlayer
	// TargetRespawnMarker 复活标记（Index 为玩家序号）
	TargetRespawnMarker
	// TargetSound 音效播放者
	TargetSound
	// TargetCanvas 界面
	TargetCanvas
	// TargetTouchSource 触碰方块的那个实体（Index 为玩家序号）
	TargetTouchSource
)

var targetKindNames = map[TargetKind]string{
	TargetController:    "Controller",
	TargetPlayer:        "Player",
	TargetRespawnMarker: "RespawnMarker",
	TargetSound:         "Sound",
	TargetCanvas:        "Canvas",
	TargetTouchSource:   "TouchTarget",
}

// String 返回目标类别名称
func (k TargetKind) String() string {
	if name, ok := targetKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

// ParseTargetKind 解析配置中的目标名称，空字符串视为控制器
func ParseTargetKind(name string) (TargetKind, error) {
	if name == "" {
		return TargetController, nil
	}
	for k, n := range targetKindNames {
		if n == name {
			return k, nil
		}
	}
	return TargetController, fmt.Errorf("unknown target %q", name)
}

// Target 效果目标
type Target struct {
	Kind  TargetKind
	Index int
}

// Controller 控制器目标的简写
var Controller = Target{Kind: TargetController}

// PlayerTarget 返回第 i 个玩家目标
func PlayerTarget(i int) Target {
	return Target{Kind: TargetPlayer, Index: i}
}

// RespawnTarget 返回第 i 个复活标记目标
func RespawnTarget(i int) Target {
	return Target{Kind: TargetRespawnMarker, Index: i}
}

// Effect 一条效果指令
type Effect struct {
	Kind     EffectKind
	Name     string
	Value    float64
	X, Z     float64
	Rotation float64
}

// EffectHandler 效果处理函数
type EffectHandler func(target Target, effect Effect)

type handlerKey struct {
	target TargetKind
	kind   EffectKind
}

// EffectDispatcher 按 (目标类别, 效果类型) 注册的效果派发器
//
// 替代按字符串名称反射调用：只有显式注册过的组合才会被处理。
type EffectDispatcher struct {
	handlers map[handlerKey]EffectHandler
	fallback map[TargetKind]EffectHandler
	warned   map[handlerKey]bool
}

// NewEffectDispatcher 创建效果派发器
func NewEffectDispatcher() *EffectDispatcher {
	return &EffectDispatcher{
		handlers: make(map[handlerKey]EffectHandler),
		fallback: make(map[TargetKind]EffectHandler),
		warned:   make(map[handlerKey]bool),
	}
}

// Register 为目标类别上的某个效果注册处理者（后注册的覆盖先注册的）
func (d *EffectDispatcher) Register(target TargetKind, kind EffectKind, handler EffectHandler) {
	d.handlers[handlerKey{target, kind}] = handler
}

// RegisterTarget 为整个目标类别注册兜底处理者
func (d *EffectDispatcher) RegisterTarget(target TargetKind, handler EffectHandler) {
	d.fallback[target] = handler
}

// Has 检查是否有处理者能接收该效果
func (d *EffectDispatcher) Has(target TargetKind, kind EffectKind) bool {
	if _, ok := d.handlers[handlerKey{target, kind}]; ok {
		return true
	}
	_, ok := d.fallback[target]
	return ok
}

// Send 同步派发一条效果
//
// 没有处理者时返回 ErrMissingCollaborator，并对每个组合只记录一次警告。
func (d *EffectDispatcher) Send(target Target, effect Effect) error {
	if effect.Kind == EffectNone {
		return nil
	}

	key := handlerKey{target.Kind, effect.Kind}
	if h, ok := d.handlers[key]; ok {
		h(target, effect)
		return nil
	}
	if h, ok := d.fallback[target.Kind]; ok {
		h(target, effect)
		return nil
	}

	if !d.warned[key] {
		d.warned[key] = true
		log.Printf("[EffectDispatcher] Warning: no handler for %s on %s[%d]", effect.Kind, target.Kind, target.Index)
	}
	return fmt.Errorf("%s on %s: %w", effect.Kind, target.Kind, ErrMissingCollaborator)
}
