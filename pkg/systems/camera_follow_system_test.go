package systems

import (
	"testing"

	"github.com/decker502/crossroad/pkg/ecs"
)

func TestCameraFollowsPlayer(t *testing.T) {
	em := ecs.NewEntityManager()
	players := NewPlayerSystem(em, nil, 1, []string{"chicken"})
	cameras := NewCameraFollowSystem(em, 1, 3)

	players.ReportPlayer(0, 10, 2, 0)
	cameras.Update(0.1, players)

	cam, _ := cameras.Camera(0)
	// lerp(0, 10, 0.3) = 3
	if cam.X < 2.999 || cam.X > 3.001 || cam.Z < 0.599 || cam.Z > 0.601 {
		t.Errorf("unexpected camera position (%v, %v)", cam.X, cam.Z)
	}
}

func TestCameraFollowsMarkerWhenPlayerHidden(t *testing.T) {
	em := ecs.NewEntityManager()
	players := NewPlayerSystem(em, nil, 1, []string{"chicken"})
	cameras := NewCameraFollowSystem(em, 1, 3)

	players.ReportPlayer(0, 5, 0, 0)
	players.Hide(0)
	players.ShowMarker(0)
	players.ReportMarker(0, 8, 0, 0)

	cameras.Update(1, players)
	cam, _ := cameras.Camera(0)
	if cam.X != 8 {
		t.Errorf("camera should snap to marker with t >= 1, got %v", cam.X)
	}

	// 玩家与标记都不可见时镜头不动
	m, _ := players.Marker(0)
	m.IsActive = false
	players.ReportMarker(0, 20, 0, 0)
	cameras.Update(1, players)
	if cam.X != 8 {
		t.Errorf("camera should hold position, got %v", cam.X)
	}
}

func TestCameraLeadingEdges(t *testing.T) {
	em := ecs.NewEntityManager()
	players := NewPlayerSystem(em, nil, 2, []string{"chicken"})
	cameras := NewCameraFollowSystem(em, 2, 3)

	players.ReportPlayer(0, 2, 0, 0)
	players.ReportPlayer(1, 6, 0, 0)
	cameras.Update(1, players)

	edges := cameras.LeadingEdges()
	if len(edges) != 2 || edges[0] != 2 || edges[1] != 6 {
		t.Errorf("unexpected edges %v", edges)
	}
}
