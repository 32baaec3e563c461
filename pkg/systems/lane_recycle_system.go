package systems

import (
	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
)

// LaneRecycleSystem 回收远远落在后方的车道
//
// 车道远端落后于基准线 RecycleDistance 以上时销毁车道及其上的掉落物，
// 基准线是死亡线（未启用时取最靠后的镜头）。
type LaneRecycleSystem struct {
	entityManager *ecs.EntityManager
	bus           *events.EventBus
	distance      float64
}

// NewLaneRecycleSystem 创建车道回收系统
func NewLaneRecycleSystem(em *ecs.EntityManager, bus *events.EventBus, distance float64) *LaneRecycleSystem {
	return &LaneRecycleSystem{
		entityManager: em,
		bus:           bus,
		distance:      distance,
	}
}

// Update 回收落后于 baseline 的车道，返回回收数量
func (s *LaneRecycleSystem) Update(baseline float64) int {
	limit := baseline - s.distance
	recycled := make(map[uint64]bool)

	for _, id := range ecs.GetEntitiesWith1[*components.LaneComponent](s.entityManager) {
		lane, _ := ecs.GetComponent[*components.LaneComponent](s.entityManager, id)
		if lane.Position+lane.Width >= limit {
			continue
		}

		recycled[uint64(id)] = true
		// 移除组件，避免同一帧内被再次查询到
		ecs.RemoveComponent[*components.LaneComponent](s.entityManager, id)
		s.entityManager.DestroyEntity(id)

		s.bus.Publish(events.EventLaneRecycled, events.LaneMaterializedPayload{
			EntityID:   uint64(id),
			TemplateID: lane.TemplateID,
			Position:   lane.Position,
			Width:      lane.Width,
			IsVictory:  lane.IsVictory,
			Index:      lane.Index,
		})
	}

	if len(recycled) == 0 {
		return 0
	}

	for _, id := range ecs.GetEntitiesWith1[*components.DropItemComponent](s.entityManager) {
		item, _ := ecs.GetComponent[*components.DropItemComponent](s.entityManager, id)
		if recycled[item.LaneEntity] {
			ecs.RemoveComponent[*components.DropItemComponent](s.entityManager, id)
			s.entityManager.DestroyEntity(id)
		}
	}

	return len(recycled)
}
