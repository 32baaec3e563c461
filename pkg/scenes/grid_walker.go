package scenes

import (
	"log"
	"math"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
	"github.com/decker502/crossroad/pkg/game"
	"github.com/decker502/crossroad/pkg/systems"
)

// DefaultWalkerHalfWidth 玩家横向可走的最大格数（向左右各）
const DefaultWalkerHalfWidth = 4

// RunReporter 网格行走者向运行控制器回报位置与触碰
// *game.RunController 实现此接口
type RunReporter interface {
	ReportContact(player int, entity ecs.EntityID)
	ReportPlayerTransform(player int, x, z, rotation float64)
	ReportMarkerTransform(player int, x, z, rotation float64)
	Snapshot() game.RunSnapshot
}

// WalkerBody 一个可在网格上移动的实体（玩家或复活标记）
type WalkerBody struct {
	X, Z      float64
	Rotation  float64
	Visible   bool
	Character string
	Speed     float64
}

// GridWalker 玩家与复活标记的网格移动实现
//
// 每次 Move 走一整格，移动后回报新位置，并检查所在格子上的方块
// （掉落物，以及配置了触碰效果的车道）。
type GridWalker struct {
	reporter  RunReporter
	blocks    map[string]bool
	halfWidth float64

	players []WalkerBody
	markers []WalkerBody
}

// NewGridWalker 创建网格行走者并注册到效果派发器
// 必须在创建运行控制器之前注册，才能收到开局时的 SetActive
func NewGridWalker(d *events.EffectDispatcher, bus *events.EventBus, cfg *config.RunConfig) *GridWalker {
	w := &GridWalker{
		blocks:    make(map[string]bool, len(cfg.Blocks)),
		halfWidth: DefaultWalkerHalfWidth,
		players:   make([]WalkerBody, cfg.Players.Count),
		markers:   make([]WalkerBody, cfg.Players.Count),
	}
	for _, b := range cfg.Blocks {
		w.blocks[b.TemplateID] = true
	}

	for _, kind := range []events.TargetKind{events.TargetPlayer, events.TargetRespawnMarker} {
		d.Register(kind, events.EffectMove, w.onMove)
		d.Register(kind, events.EffectPlaceAt, w.onPlaceAt)
		d.Register(kind, events.EffectSetActive, w.onSetActive)
		d.Register(kind, events.EffectSetSpeed, w.onSetSpeed)
		d.Register(kind, events.EffectSpawn, w.onSpawn)
	}

	bus.Subscribe(events.EventRestarted, func(events.GameEvent) { w.Reset() })

	return w
}

// Bind 绑定回报对象（通常是运行控制器）
func (w *GridWalker) Bind(reporter RunReporter) {
	w.reporter = reporter
}

// Reset 新一局开始时所有实体回到原点
// 角色外观保留（新一局会重新发送 SetActive）
func (w *GridWalker) Reset() {
	for i := range w.players {
		w.players[i] = WalkerBody{Character: w.players[i].Character, Visible: w.players[i].Visible}
		w.markers[i] = WalkerBody{}
	}
}

// Player 返回玩家 i 的网格状态
func (w *GridWalker) Player(i int) (WalkerBody, bool) {
	if i < 0 || i >= len(w.players) {
		return WalkerBody{}, false
	}
	return w.players[i], true
}

// Marker 返回复活标记 i 的网格状态
func (w *GridWalker) Marker(i int) (WalkerBody, bool) {
	if i < 0 || i >= len(w.markers) {
		return WalkerBody{}, false
	}
	return w.markers[i], true
}

func (w *GridWalker) body(target events.Target) *WalkerBody {
	if target.Index < 0 || target.Index >= len(w.players) {
		return nil
	}
	if target.Kind == events.TargetRespawnMarker {
		return &w.markers[target.Index]
	}
	return &w.players[target.Index]
}

func (w *GridWalker) onMove(target events.Target, effect events.Effect) {
	b := w.body(target)
	if b == nil || !b.Visible {
		return
	}

	switch effect.Name {
	case systems.DirectionForward:
		b.X++
		b.Rotation = 0
	case systems.DirectionBackward:
		b.X--
		b.Rotation = 180
	case systems.DirectionLeft:
		b.Z = math.Max(b.Z-1, -w.halfWidth)
		b.Rotation = 270
	case systems.DirectionRight:
		b.Z = math.Min(b.Z+1, w.halfWidth)
		b.Rotation = 90
	default:
		log.Printf("[GridWalker] Warning: unknown direction %q", effect.Name)
		return
	}

	w.report(target, b)
	if target.Kind == events.TargetPlayer {
		w.checkContacts(target.Index, b.X, b.Z)
	}
}

func (w *GridWalker) onPlaceAt(target events.Target, effect events.Effect) {
	b := w.body(target)
	if b == nil {
		return
	}
	b.X, b.Z, b.Rotation = effect.X, effect.Z, effect.Rotation
	w.report(target, b)
}

// onSetActive 带角色名时为换装（只响应被选中的角色），否则为显示/隐藏
func (w *GridWalker) onSetActive(target events.Target, effect events.Effect) {
	b := w.body(target)
	if b == nil {
		return
	}
	if effect.Name != "" {
		if effect.Value != 0 {
			b.Character = effect.Name
			b.Visible = true
		}
		return
	}
	b.Visible = effect.Value != 0
}

func (w *GridWalker) onSetSpeed(target events.Target, effect events.Effect) {
	if b := w.body(target); b != nil {
		b.Speed = effect.Value
	}
}

func (w *GridWalker) onSpawn(target events.Target, _ events.Effect) {
	if b := w.body(target); b != nil {
		log.Printf("[GridWalker] %s %d spawned at (%.0f, %.0f)", target.Kind, target.Index, b.X, b.Z)
	}
}

func (w *GridWalker) report(target events.Target, b *WalkerBody) {
	if w.reporter == nil {
		return
	}
	if target.Kind == events.TargetRespawnMarker {
		w.reporter.ReportMarkerTransform(target.Index, b.X, b.Z, b.Rotation)
		return
	}
	w.reporter.ReportPlayerTransform(target.Index, b.X, b.Z, b.Rotation)
}

// checkContacts 回报玩家所在格子上的方块
// 胜利车道宽度为 0，越过即算触碰
func (w *GridWalker) checkContacts(player int, x, z float64) {
	if w.reporter == nil {
		return
	}
	snap := w.reporter.Snapshot()

	for _, lane := range snap.Lanes {
		if !w.blocks[lane.TemplateID] || x < lane.Position {
			continue
		}
		if x < lane.Position+lane.Width || lane.IsVictory {
			w.reporter.ReportContact(player, lane.Entity)
		}
	}
	for _, drop := range snap.Drops {
		if w.blocks[drop.TemplateID] && sameCell(drop.X, x) && sameCell(drop.Z, z) {
			w.reporter.ReportContact(player, drop.Entity)
		}
	}
}

func sameCell(a, b float64) bool {
	return math.Abs(a-b) < 0.5
}
