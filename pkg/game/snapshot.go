package game

import (
	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/ecs"
)

// LaneView 快照中的车道
type LaneView struct {
	Entity     ecs.EntityID
	TemplateID string
	Position   float64
	Width      float64
	IsVictory  bool
}

// DropView 快照中的掉落物
type DropView struct {
	Entity     ecs.EntityID
	TemplateID string
	X, Z       float64
}

// PowerupView 快照中的道具
type PowerupView struct {
	ID        string
	Remaining float64
	Max       float64
}

// RunSnapshot 一帧结束时的只读状态副本
// 供渲染、物理等其他线程读取
type RunSnapshot struct {
	State      RunState
	Frame      int64
	Seed       uint64
	GameSpeed  float64
	HighScore  int
	TotalCoins int

	LevelUpThreshold int  // 0 表示不升级
	GameOverPending  bool // 生命已耗尽，正在等待结束

	Score  components.RunScore
	Lives  components.LivesState
	Stream components.StreamStateComponent
	Chase  components.ChaseStateComponent

	Players  []components.PlayerComponent
	Markers  []components.RespawnMarkerComponent
	Cameras  []components.CameraComponent
	Lanes    []LaneView
	Drops    []DropView
	Powerups []PowerupView
}

// buildSnapshot 从当前状态构建快照
func (rc *RunController) buildSnapshot() RunSnapshot {
	sys := rc.sys
	snap := RunSnapshot{
		State:      rc.state,
		Frame:      rc.frame,
		Seed:       sys.seed,
		GameSpeed:  rc.gameSpeed,
		HighScore:  rc.highScore,
		TotalCoins: rc.totalCoins,

		LevelUpThreshold: sys.score.Threshold(),
		GameOverPending:  sys.lives.GameOverPending(),

		Score:      sys.score.Score(),
		Lives:      sys.lives.State(),
		Stream:     *sys.stream.State(),
		Chase:      sys.chase.State(),
	}

	for i := 0; i < sys.players.Count(); i++ {
		if p, ok := sys.players.Player(i); ok {
			snap.Players = append(snap.Players, *p)
		}
		if m, ok := sys.players.Marker(i); ok {
			snap.Markers = append(snap.Markers, *m)
		}
		if c, ok := sys.cameras.Camera(i); ok {
			snap.Cameras = append(snap.Cameras, *c)
		}
	}

	for _, id := range ecs.GetEntitiesWith1[*components.LaneComponent](sys.em) {
		lane, _ := ecs.GetComponent[*components.LaneComponent](sys.em, id)
		snap.Lanes = append(snap.Lanes, LaneView{
			Entity:     id,
			TemplateID: lane.TemplateID,
			Position:   lane.Position,
			Width:      lane.Width,
			IsVictory:  lane.IsVictory,
		})
	}
	for _, id := range ecs.GetEntitiesWith1[*components.DropItemComponent](sys.em) {
		item, _ := ecs.GetComponent[*components.DropItemComponent](sys.em, id)
		snap.Drops = append(snap.Drops, DropView{Entity: id, TemplateID: item.TemplateID, X: item.X, Z: item.Z})
	}
	for _, id := range sys.powerups.IDs() {
		if p, ok := sys.powerups.Get(id); ok {
			snap.Powerups = append(snap.Powerups, PowerupView{ID: p.ID, Remaining: p.DurationRemaining, Max: p.DurationMax})
		}
	}

	return snap
}
