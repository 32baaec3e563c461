package systems

import (
	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/utils"
)

// CameraFollowSystem 镜头代理跟随
//
// 每个玩家一个镜头：玩家激活时跟随玩家，否则跟随其复活标记；
// 两者都不可见时镜头保持不动。
type CameraFollowSystem struct {
	entityManager *ecs.EntityManager
	cameras       []ecs.EntityID
}

// NewCameraFollowSystem 为每个玩家创建一个镜头实体
func NewCameraFollowSystem(em *ecs.EntityManager, players int, followRate float64) *CameraFollowSystem {
	s := &CameraFollowSystem{entityManager: em}
	for i := 0; i < players; i++ {
		id := em.CreateEntity()
		ecs.AddComponent(em, id, &components.CameraComponent{
			Player:     i,
			FollowRate: followRate,
		})
		s.cameras = append(s.cameras, id)
	}
	return s
}

// Camera 获取第 i 个玩家的镜头
func (s *CameraFollowSystem) Camera(i int) (*components.CameraComponent, bool) {
	if i < 0 || i >= len(s.cameras) {
		return nil, false
	}
	return ecs.GetComponent[*components.CameraComponent](s.entityManager, s.cameras[i])
}

// Update 镜头向跟随目标插值
func (s *CameraFollowSystem) Update(deltaTime float64, players *PlayerSystem) {
	for i := range s.cameras {
		cam, ok := s.Camera(i)
		if !ok {
			continue
		}

		x, z, ok := players.FollowPoint(cam.Player)
		if !ok {
			continue
		}

		t := deltaTime * cam.FollowRate
		cam.X = utils.Lerp(cam.X, x, t)
		cam.Z = utils.Lerp(cam.Z, z, t)
	}
}

// LeadingEdges 各镜头的前沿位置（按玩家序号）
func (s *CameraFollowSystem) LeadingEdges() []float64 {
	edges := make([]float64, 0, len(s.cameras))
	for i := range s.cameras {
		if cam, ok := s.Camera(i); ok {
			edges = append(edges, cam.X)
		}
	}
	return edges
}
