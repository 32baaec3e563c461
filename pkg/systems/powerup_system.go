package systems

import (
	"fmt"
	"log"

	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
)

// PowerupSystem 管理限时道具
//
// 激活规则：
//   - 未激活：补满时间，执行激活效果，显示图标
//   - 已激活：只补满时间，不重复执行激活效果
//
// 到期时执行结束效果并隐藏图标。
type PowerupSystem struct {
	entityManager *ecs.EntityManager
	dispatcher    *events.EffectDispatcher
	bus           *events.EventBus
	byID          map[string]ecs.EntityID
	order         []string
}

// NewPowerupSystem 根据配置为每个道具创建一个实体
func NewPowerupSystem(em *ecs.EntityManager, dispatcher *events.EffectDispatcher, bus *events.EventBus, specs []config.PowerupSpec) (*PowerupSystem, error) {
	s := &PowerupSystem{
		entityManager: em,
		dispatcher:    dispatcher,
		bus:           bus,
		byID:          make(map[string]ecs.EntityID, len(specs)),
	}

	for _, spec := range specs {
		onActivate, err := resolveEffects(spec.OnActivate)
		if err != nil {
			return nil, fmt.Errorf("powerup %s onActivate: %w", spec.ID, err)
		}
		onExpire, err := resolveEffects(spec.OnExpire)
		if err != nil {
			return nil, fmt.Errorf("powerup %s onExpire: %w", spec.ID, err)
		}

		id := em.CreateEntity()
		ecs.AddComponent(em, id, &components.PowerupComponent{
			ID:          spec.ID,
			DurationMax: spec.Duration,
			OnActivate:  onActivate,
			OnExpire:    onExpire,
		})
		s.byID[spec.ID] = id
		s.order = append(s.order, spec.ID)

		// 开局时图标全部隐藏
		send(dispatcher, canvasTarget, events.Effect{Kind: events.EffectShowIcon, Name: spec.ID, Value: 0})
	}

	return s, nil
}

// Get 获取道具组件
func (s *PowerupSystem) Get(id string) (*components.PowerupComponent, bool) {
	entity, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return ecs.GetComponent[*components.PowerupComponent](s.entityManager, entity)
}

// IDs 按配置顺序返回道具ID
func (s *PowerupSystem) IDs() []string {
	return s.order
}

// Activate 激活或续时道具
func (s *PowerupSystem) Activate(id string) error {
	p, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("powerup %q: %w", id, config.ErrIndexOutOfRange)
	}

	if p.IsActive() {
		p.DurationRemaining = p.DurationMax
		return nil
	}

	p.DurationRemaining = p.DurationMax
	sendAll(s.dispatcher, p.OnActivate)
	send(s.dispatcher, canvasTarget, events.Effect{Kind: events.EffectShowIcon, Name: p.ID, Value: 1})
	send(s.dispatcher, canvasTarget, events.Effect{Kind: events.EffectIconFill, Name: p.ID, Value: 1})
	s.bus.Publish(events.EventPowerupActivated, events.PowerupPayload{ID: p.ID})
	return nil
}

// Update 倒计时所有激活的道具
func (s *PowerupSystem) Update(deltaTime float64) {
	for _, id := range s.order {
		p, ok := s.Get(id)
		if !ok || !p.IsActive() {
			continue
		}

		p.DurationRemaining -= deltaTime
		if p.DurationRemaining > 0 {
			send(s.dispatcher, canvasTarget, events.Effect{Kind: events.EffectIconFill, Name: p.ID, Value: p.FillRatio()})
			continue
		}

		s.expire(p, false, false)
	}
}

// ForceExpireAll 立即结束所有激活的道具（死亡、游戏结束时调用）
// skipEffects 为 true 时不执行结束效果
func (s *PowerupSystem) ForceExpireAll(skipEffects bool) {
	for _, id := range s.order {
		p, ok := s.Get(id)
		if !ok || !p.IsActive() {
			continue
		}
		s.expire(p, true, skipEffects)
	}
}

// ActiveCount 激活中的道具数量
func (s *PowerupSystem) ActiveCount() int {
	n := 0
	for _, id := range s.order {
		if p, ok := s.Get(id); ok && p.IsActive() {
			n++
		}
	}
	return n
}

func (s *PowerupSystem) expire(p *components.PowerupComponent, forced, skipEffects bool) {
	p.DurationRemaining = 0
	if !skipEffects {
		sendAll(s.dispatcher, p.OnExpire)
	}
	send(s.dispatcher, canvasTarget, events.Effect{Kind: events.EffectShowIcon, Name: p.ID, Value: 0})
	if forced {
		log.Printf("[PowerupSystem] Powerup %s force-expired (skipEffects=%v)", p.ID, skipEffects)
	}
	s.bus.Publish(events.EventPowerupExpired, events.PowerupPayload{ID: p.ID, Forced: forced})
}
