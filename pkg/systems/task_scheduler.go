package systems

import (
	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/ecs"
)

// TaskScheduler 帧驱动的延迟任务调度器
//
// 每个任务是一个带 TimerComponent + TaskComponent 的实体，每帧累加时间，
// 到点后执行回调并销毁。复活等待、延迟结束都走这里。
//
// 取消：CancelAll 递增代数，所有旧代任务即使已到点也不会执行，
// 保证重新开局后陈旧回调不会修改新一局的状态。
type TaskScheduler struct {
	entityManager *ecs.EntityManager
	generation    uint64
}

// NewTaskScheduler 创建任务调度器
func NewTaskScheduler(em *ecs.EntityManager) *TaskScheduler {
	return &TaskScheduler{
		entityManager: em,
		generation:    1,
	}
}

// Schedule 在 delay 秒（缩放后的游戏时间）后执行 callback
func (s *TaskScheduler) Schedule(name string, delay float64, callback func()) ecs.EntityID {
	id := s.entityManager.CreateEntity()
	ecs.AddComponent(s.entityManager, id, &components.TimerComponent{
		Name:       name,
		TargetTime: delay,
	})
	ecs.AddComponent(s.entityManager, id, &components.TaskComponent{
		Generation: s.generation,
		Callback:   callback,
	})
	return id
}

// Cancel 取消单个任务
func (s *TaskScheduler) Cancel(id ecs.EntityID) {
	if !ecs.HasComponent[*components.TaskComponent](s.entityManager, id) {
		return
	}
	ecs.RemoveComponent[*components.TaskComponent](s.entityManager, id)
	s.entityManager.DestroyEntity(id)
}

// CancelAll 取消所有在途任务
func (s *TaskScheduler) CancelAll() {
	s.generation++
	for _, id := range ecs.GetEntitiesWith1[*components.TaskComponent](s.entityManager) {
		ecs.RemoveComponent[*components.TaskComponent](s.entityManager, id)
		s.entityManager.DestroyEntity(id)
	}
}

// Count 在途任务数量
func (s *TaskScheduler) Count() int {
	return len(ecs.GetEntitiesWith1[*components.TaskComponent](s.entityManager))
}

// Update 推进所有任务的计时
func (s *TaskScheduler) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith2[*components.TimerComponent, *components.TaskComponent](s.entityManager)

	for _, id := range entities {
		timer, ok := ecs.GetComponent[*components.TimerComponent](s.entityManager, id)
		if !ok || timer.IsReady {
			continue
		}
		// 回调中可能取消了后续任务
		task, ok := ecs.GetComponent[*components.TaskComponent](s.entityManager, id)
		if !ok || task.Generation != s.generation {
			continue
		}

		timer.CurrentTime += deltaTime
		if timer.CurrentTime < timer.TargetTime {
			continue
		}

		timer.IsReady = true
		ecs.RemoveComponent[*components.TaskComponent](s.entityManager, id)
		s.entityManager.DestroyEntity(id)

		if task.Callback != nil {
			task.Callback()
		}
	}
}
