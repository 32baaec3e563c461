package systems

import (
	"fmt"
	"log"

	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
)

// LifeSystem 生命、死亡与复活
//
// 失去生命后：
//   - 生命 ≤ 0：立即强制结束所有道具，延迟 GameOverDelay 秒后回调 onGameOver
//   - 否则：隐藏玩家，复活标记出现在其最后位置，RespawnTime 秒后玩家回到标记处
//
// 复活期间同一玩家的扣命会被忽略，加命不受影响。
// 游戏结束排期后，尚未完成的复活全部取消。
type LifeSystem struct {
	cfg        config.LivesConfig
	state      components.LivesState
	respawning []bool
	respawns   []ecs.EntityID // 每个玩家在途的复活任务
	pending    bool           // 游戏结束已排期

	players    *PlayerSystem
	powerups   *PowerupSystem
	scheduler  *TaskScheduler
	dispatcher *events.EffectDispatcher
	bus        *events.EventBus
	onGameOver func()
}

// NewLifeSystem 创建生命系统
func NewLifeSystem(cfg config.LivesConfig, players *PlayerSystem, powerups *PowerupSystem, scheduler *TaskScheduler,
	dispatcher *events.EffectDispatcher, bus *events.EventBus, onGameOver func()) *LifeSystem {
	s := &LifeSystem{
		cfg:        cfg,
		state:      components.LivesState{Lives: cfg.Initial},
		respawning: make([]bool, players.Count()),
		respawns:   make([]ecs.EntityID, players.Count()),
		players:    players,
		powerups:   powerups,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		bus:        bus,
		onGameOver: onGameOver,
	}
	send(dispatcher, canvasTarget, events.Effect{Kind: events.EffectSetText, Name: "lives", Value: float64(cfg.Initial)})
	return s
}

// State 返回当前生命状态
func (s *LifeSystem) State() components.LivesState {
	return s.state
}

// IsRespawning 玩家 i 是否处于复活过程中
func (s *LifeSystem) IsRespawning(i int) bool {
	return i >= 0 && i < len(s.respawning) && s.respawning[i]
}

// GameOverPending 游戏结束是否已排期
func (s *LifeSystem) GameOverPending() bool {
	return s.pending
}

// ChangeLives 改变生命数，player 为受影响的玩家
// 返回 false 表示本次改变被忽略（复活中扣命或游戏结束已排期）
func (s *LifeSystem) ChangeLives(delta, player int) bool {
	if s.pending {
		return false
	}
	if delta < 0 && s.IsRespawning(player) {
		return false
	}

	s.state.Lives += delta
	send(s.dispatcher, canvasTarget, events.Effect{Kind: events.EffectSetText, Name: "lives", Value: float64(s.state.Lives)})
	s.bus.Publish(events.EventLivesChanged, events.LivesPayload{Lives: s.state.Lives, Delta: delta})

	if delta < 0 {
		s.die(player)
	}

	if s.state.Lives <= 0 {
		s.scheduleGameOver()
		return true
	}

	if delta < 0 {
		s.beginRespawn(player)
	}
	return true
}

func (s *LifeSystem) die(player int) {
	p, ok := s.players.Player(player)
	if !ok {
		return
	}
	s.players.Hide(player)
	s.bus.Publish(events.EventPlayerDeath, events.PlayerPayload{Player: player, X: p.X, Z: p.Z})
}

func (s *LifeSystem) scheduleGameOver() {
	s.pending = true
	// 道具在延迟开始前就被清零
	s.powerups.ForceExpireAll(s.cfg.SkipExpiryOnForce)
	for i, task := range s.respawns {
		if task != 0 {
			s.scheduler.Cancel(task)
			s.respawns[i] = 0
		}
	}
	log.Printf("[LifeSystem] Out of lives, game over in %.2fs", s.cfg.GameOverDelay())
	s.scheduler.Schedule("game_over", s.cfg.GameOverDelay(), func() {
		if s.onGameOver != nil {
			s.onGameOver()
		}
	})
}

func (s *LifeSystem) beginRespawn(player int) {
	if _, ok := s.players.Player(player); !ok {
		log.Printf("[LifeSystem] Warning: life lost for unknown player %d, no respawn", player)
		return
	}

	if s.cfg.StopPowerupsOnDeath {
		s.powerups.ForceExpireAll(s.cfg.SkipExpiryOnForce)
	}

	s.respawning[player] = true
	s.state.IsRespawning = true
	s.players.ShowMarker(player)
	if m, ok := s.players.Marker(player); ok {
		s.bus.Publish(events.EventRespawnBegin, events.PlayerPayload{Player: player, X: m.X, Z: m.Z})
	}

	s.respawns[player] = s.scheduler.Schedule(fmt.Sprintf("respawn_p%d", player), s.cfg.RespawnTime, func() {
		s.finishRespawn(player)
	})
}

func (s *LifeSystem) finishRespawn(player int) {
	s.players.RespawnAtMarker(player)
	s.respawning[player] = false
	s.respawns[player] = 0

	s.state.IsRespawning = false
	for _, r := range s.respawning {
		if r {
			s.state.IsRespawning = true
		}
	}

	if p, ok := s.players.Player(player); ok {
		s.bus.Publish(events.EventRespawnEnd, events.PlayerPayload{Player: player, X: p.X, Z: p.Z})
	}
}
