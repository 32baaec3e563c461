package systems

import (
	"fmt"

	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
)

// Move 方向
const (
	DirectionLeft     = "left"
	DirectionRight    = "right"
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

// PlayerSystem 管理玩家与复活标记实体
//
// 玩家的实际移动由外部协作者完成，核心只负责：
//   - 把移动意图转发给当前可控的实体（玩家或复活标记）
//   - 记录外部回报的位置，供镜头与死亡线使用
type PlayerSystem struct {
	entityManager *ecs.EntityManager
	dispatcher    *events.EffectDispatcher
	characters    []string
	players       []ecs.EntityID
	markers       []ecs.EntityID
}

// NewPlayerSystem 为每个玩家创建玩家实体与复活标记实体
func NewPlayerSystem(em *ecs.EntityManager, dispatcher *events.EffectDispatcher, count int, characters []string) *PlayerSystem {
	s := &PlayerSystem{
		entityManager: em,
		dispatcher:    dispatcher,
		characters:    characters,
	}
	for i := 0; i < count; i++ {
		p := em.CreateEntity()
		ecs.AddComponent(em, p, &components.PlayerComponent{Index: i, IsActive: true})
		s.players = append(s.players, p)

		m := em.CreateEntity()
		ecs.AddComponent(em, m, &components.RespawnMarkerComponent{Player: i})
		s.markers = append(s.markers, m)
	}
	return s
}

// Count 玩家数量
func (s *PlayerSystem) Count() int {
	return len(s.players)
}

// Player 获取第 i 个玩家
func (s *PlayerSystem) Player(i int) (*components.PlayerComponent, bool) {
	if i < 0 || i >= len(s.players) {
		return nil, false
	}
	return ecs.GetComponent[*components.PlayerComponent](s.entityManager, s.players[i])
}

// Marker 获取第 i 个玩家的复活标记
func (s *PlayerSystem) Marker(i int) (*components.RespawnMarkerComponent, bool) {
	if i < 0 || i >= len(s.markers) {
		return nil, false
	}
	return ecs.GetComponent[*components.RespawnMarkerComponent](s.entityManager, s.markers[i])
}

// SetPlayer 为玩家 i 选择角色：隐藏复活标记，只显示所选角色
func (s *PlayerSystem) SetPlayer(i, character int) error {
	p, ok := s.Player(i)
	if !ok {
		return fmt.Errorf("player %d: %w", i, config.ErrIndexOutOfRange)
	}
	if character < 0 || character >= len(s.characters) {
		return fmt.Errorf("player %d character %d: %w", i, character, config.ErrIndexOutOfRange)
	}

	if m, ok := s.Marker(i); ok && m.IsActive {
		m.IsActive = false
		send(s.dispatcher, events.RespawnTarget(i), events.Effect{Kind: events.EffectSetActive, Value: 0})
	}

	p.Character = character
	p.IsActive = true
	for c, name := range s.characters {
		visible := 0.0
		if c == character {
			visible = 1
		}
		send(s.dispatcher, events.PlayerTarget(i), events.Effect{Kind: events.EffectSetActive, Name: name, Value: visible})
	}
	return nil
}

// Move 将移动意图发给当前可控的实体
// 玩家激活时发给玩家，否则发给可见的复活标记，都不可用时忽略
func (s *PlayerSystem) Move(i int, direction string) {
	effect := events.Effect{Kind: events.EffectMove, Name: direction}
	if p, ok := s.Player(i); ok && p.IsActive {
		send(s.dispatcher, events.PlayerTarget(i), effect)
		return
	}
	if m, ok := s.Marker(i); ok && m.IsActive {
		send(s.dispatcher, events.RespawnTarget(i), effect)
	}
}

// SetPlayerSpeed 设置玩家 i 的移动速度（路由规则同 Move）
func (s *PlayerSystem) SetPlayerSpeed(i int, speed float64) {
	effect := events.Effect{Kind: events.EffectSetSpeed, Value: speed}
	p, ok := s.Player(i)
	if !ok {
		return
	}
	p.Speed = speed
	if p.IsActive {
		send(s.dispatcher, events.PlayerTarget(i), effect)
		return
	}
	if m, ok := s.Marker(i); ok && m.IsActive {
		send(s.dispatcher, events.RespawnTarget(i), effect)
	}
}

// ReportPlayer 外部回报玩家位置
func (s *PlayerSystem) ReportPlayer(i int, x, z, rotation float64) {
	if p, ok := s.Player(i); ok {
		p.X, p.Z, p.Rotation = x, z, rotation
	}
}

// ReportMarker 外部回报复活标记位置
func (s *PlayerSystem) ReportMarker(i int, x, z, rotation float64) {
	if m, ok := s.Marker(i); ok {
		m.X, m.Z, m.Rotation = x, z, rotation
	}
}

// FollowPoint 镜头跟随点：激活的玩家，其次是可见的复活标记
func (s *PlayerSystem) FollowPoint(i int) (x, z float64, ok bool) {
	if p, found := s.Player(i); found && p.IsActive {
		return p.X, p.Z, true
	}
	if m, found := s.Marker(i); found && m.IsActive {
		return m.X, m.Z, true
	}
	return 0, 0, false
}

// Hide 隐藏玩家（死亡）
func (s *PlayerSystem) Hide(i int) {
	p, ok := s.Player(i)
	if !ok || !p.IsActive {
		return
	}
	p.IsActive = false
	send(s.dispatcher, events.PlayerTarget(i), events.Effect{Kind: events.EffectSetActive, Value: 0})
}

// ShowMarker 在玩家最后位置显示复活标记
func (s *PlayerSystem) ShowMarker(i int) {
	p, ok := s.Player(i)
	if !ok {
		return
	}
	m, ok := s.Marker(i)
	if !ok {
		return
	}
	m.IsActive = true
	m.X, m.Z, m.Rotation = p.X, p.Z, p.Rotation

	target := events.RespawnTarget(i)
	send(s.dispatcher, target, events.Effect{Kind: events.EffectSetActive, Value: 1})
	send(s.dispatcher, target, events.Effect{Kind: events.EffectPlaceAt, X: m.X, Z: m.Z, Rotation: m.Rotation})
	send(s.dispatcher, target, events.Effect{Kind: events.EffectSpawn})
}

// RespawnAtMarker 在复活标记处重新激活玩家并隐藏标记
// 玩家已经是激活状态时不做任何事
func (s *PlayerSystem) RespawnAtMarker(i int) bool {
	p, ok := s.Player(i)
	if !ok || p.IsActive {
		return false
	}

	p.IsActive = true
	target := events.PlayerTarget(i)
	send(s.dispatcher, target, events.Effect{Kind: events.EffectSetActive, Value: 1})
	send(s.dispatcher, target, events.Effect{Kind: events.EffectSpawn})

	if m, ok := s.Marker(i); ok && m.IsActive {
		p.X, p.Z, p.Rotation = m.X, m.Z, m.Rotation
		send(s.dispatcher, target, events.Effect{Kind: events.EffectPlaceAt, X: p.X, Z: p.Z, Rotation: p.Rotation})
		m.IsActive = false
		send(s.dispatcher, events.RespawnTarget(i), events.Effect{Kind: events.EffectSetActive, Value: 0})
	}
	return true
}

// ActivePositions 返回激活玩家的序号及其前进方向位置
func (s *PlayerSystem) ActivePositions() (indices []int, positions []float64) {
	for i := range s.players {
		if p, ok := s.Player(i); ok && p.IsActive {
			indices = append(indices, i)
			positions = append(positions, p.X)
		}
	}
	return indices, positions
}
