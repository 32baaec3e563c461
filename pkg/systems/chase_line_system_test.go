package systems

import (
	"testing"

	"github.com/decker502/crossroad/pkg/config"
)

func testChaseConfig() config.ChaseConfig {
	start, speed := -5.0, 1.0
	return config.ChaseConfig{
		StartX:         &start,
		InitialSpeed:   &speed,
		SpeedIncrement: 1,
		SpeedMax:       1.5,
		SmoothingRate:  0.5,
	}
}

func TestChaseLineMonotonic(t *testing.T) {
	s := NewChaseLineSystem(testChaseConfig(), true)

	edges := [][]float64{{0}, {0}, {2}, {2}, {3.5}, {10}, {10}}
	prev := s.State().TargetX
	for i, e := range edges {
		s.Advance(e, 0.1, true)
		got := s.State().TargetX
		if got < prev {
			t.Fatalf("step %d: target retreated from %v to %v", i, prev, got)
		}
		prev = got
	}
}

func TestChaseLineCatchUp(t *testing.T) {
	tests := []struct {
		name       string
		edges      []float64
		running    bool
		wantTarget float64
	}{
		{"single edge ahead of line", []float64{3}, true, 4},
		{"uses furthest edge", []float64{3, 7}, true, 8},
		{"edge behind line only advances", []float64{-10}, true, -4},
		{"not running only catches up", []float64{3}, false, 3},
		{"not running and behind stays", []float64{-10}, false, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewChaseLineSystem(testChaseConfig(), true)
			s.Advance(tt.edges, 1, tt.running)
			if got := s.State().TargetX; got != tt.wantTarget {
				t.Errorf("expected target %v, got %v", tt.wantTarget, got)
			}
		})
	}
}

func TestChaseLineSmoothing(t *testing.T) {
	s := NewChaseLineSystem(testChaseConfig(), true)
	s.Reset(5)
	s.Advance(nil, 1, false)

	// lerp(-5, 5, 0.5) = 0
	if got := s.State().CurrentX; got != 0 {
		t.Errorf("expected smoothed position 0, got %v", got)
	}
}

func TestChaseLineLevelUpCapped(t *testing.T) {
	s := NewChaseLineSystem(testChaseConfig(), true)

	if got := s.LevelUp(); got != 1.5 {
		t.Errorf("expected speed capped at 1.5, got %v", got)
	}
	if got := s.LevelUp(); got != 1.5 {
		t.Errorf("expected speed to stay at cap, got %v", got)
	}
}

func TestChaseLineContacts(t *testing.T) {
	s := NewChaseLineSystem(testChaseConfig(), true)
	s.Reset(10)
	for i := 0; i < 200; i++ {
		s.Advance(nil, 0.1, false)
	}

	// 显示位置渐近 10
	hit := s.Contacts([]float64{12, 9, 3})
	if len(hit) != 2 || hit[0] != 1 || hit[1] != 2 {
		t.Errorf("expected players 1 and 2 caught, got %v", hit)
	}
}

func TestChaseLineDisabled(t *testing.T) {
	s := NewChaseLineSystem(testChaseConfig(), false)
	s.Advance([]float64{100}, 1, true)

	if s.State().TargetX != -5 {
		t.Errorf("disabled chase line should not move, got %v", s.State().TargetX)
	}
	if hit := s.Contacts([]float64{-100}); hit != nil {
		t.Errorf("disabled chase line should report no contacts, got %v", hit)
	}
}
