package systems

import (
	"fmt"

	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
)

// BlockTouchSystem 玩家触碰方块时派发其效果
//
// 碰撞检测由外部完成，这里只处理"玩家 p 碰到了实体 e"。
// 目标为 TouchTarget 的效果发给触碰者本身，控制器效果带上触碰者序号。
type BlockTouchSystem struct {
	entityManager *ecs.EntityManager
	dispatcher    *events.EffectDispatcher
	templates     map[string]components.BlockComponent
}

// NewBlockTouchSystem 解析所有方块模板
func NewBlockTouchSystem(em *ecs.EntityManager, dispatcher *events.EffectDispatcher, specs []config.BlockSpec) (*BlockTouchSystem, error) {
	s := &BlockTouchSystem{
		entityManager: em,
		dispatcher:    dispatcher,
		templates:     make(map[string]components.BlockComponent, len(specs)),
	}
	for _, spec := range specs {
		touches, err := resolveEffects(spec.Touches)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", spec.TemplateID, err)
		}
		s.templates[spec.TemplateID] = components.BlockComponent{
			TemplateID:         spec.TemplateID,
			Touches:            touches,
			RemoveAfterTouches: spec.RemoveAfterTouches,
			IsRemovable:        spec.RemoveAfterTouches > 0,
			HitSound:           spec.HitSound,
		}
	}
	return s, nil
}

// Attach 模板配置了方块时为实体挂上方块组件
func (s *BlockTouchSystem) Attach(entity ecs.EntityID, templateID string) bool {
	tpl, ok := s.templates[templateID]
	if !ok {
		return false
	}
	block := tpl
	block.Touches = append([]components.EffectRef(nil), tpl.Touches...)
	ecs.AddComponent(s.entityManager, entity, &block)
	return true
}

// HandleContact 处理玩家与方块的一次接触
// 实体已不存在（被拾取、回收或属于上一局）时静默忽略
func (s *BlockTouchSystem) HandleContact(player int, entity ecs.EntityID) error {
	if !s.entityManager.Exists(entity) {
		return nil
	}
	block, ok := ecs.GetComponent[*components.BlockComponent](s.entityManager, entity)
	if !ok {
		return fmt.Errorf("entity %d is not a block: %w", entity, config.ErrIndexOutOfRange)
	}
	if block.IsRemovable && block.RemoveAfterTouches <= 0 {
		return nil
	}

	for _, ref := range block.Touches {
		target := ref.Target
		switch target.Kind {
		case events.TargetTouchSource:
			target = events.PlayerTarget(player)
		case events.TargetController:
			target.Index = player
		}
		send(s.dispatcher, target, ref.Effect)
	}

	if block.HitSound != "" {
		send(s.dispatcher, soundTarget, events.Effect{Kind: events.EffectPlaySound, Name: block.HitSound})
	}

	if block.IsRemovable {
		block.RemoveAfterTouches--
		if block.RemoveAfterTouches <= 0 {
			ecs.RemoveComponent[*components.BlockComponent](s.entityManager, entity)
			s.entityManager.DestroyEntity(entity)
		}
	}
	return nil
}
