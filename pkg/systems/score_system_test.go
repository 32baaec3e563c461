package systems

import (
	"testing"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/events"
)

func levelUpEvery(n int) config.ScoreConfig {
	return config.ScoreConfig{LevelUpEvery: &n}
}

func TestChangeScoreLevelUp(t *testing.T) {
	d, rec := newRecordingDispatcher()
	bus, evs := newRecordingBus()
	chase := NewChaseLineSystem(testChaseConfig(), true)
	s := NewScoreSystem(levelUpEvery(5), "levelup", chase, d, bus)

	s.SetScoreMultiplier(2)
	s.ChangeScore(4) // score 8, progress 4
	if s.Score().Score != 8 || s.Score().LevelProgress != 4 {
		t.Fatalf("unexpected state after first change: %+v", s.Score())
	}

	s.ChangeScore(3)

	got := s.Score()
	if got.Score != 14 {
		t.Errorf("expected score 14 (8 + 3*2), got %d", got.Score)
	}
	if got.LevelProgress != 2 {
		t.Errorf("expected level progress 2, got %d", got.LevelProgress)
	}
	if n := evs.count(events.EventLevelUp); n != 1 {
		t.Errorf("expected exactly one level-up, got %d", n)
	}
	if speed := chase.State().Speed; speed != 1.5 {
		t.Errorf("expected death line speed capped at 1.5, got %v", speed)
	}
	if n := rec.count(events.TargetSound, events.EffectPlaySound); n != 1 {
		t.Errorf("expected level-up sound once, got %d", n)
	}
}

func TestChangeScoreMultipleLevelUps(t *testing.T) {
	bus, evs := newRecordingBus()
	s := NewScoreSystem(levelUpEvery(5), "", nil, nil, bus)

	s.ChangeScore(12)

	if s.Score().LevelProgress != 2 {
		t.Errorf("expected progress 2, got %d", s.Score().LevelProgress)
	}
	if s.Score().Level != 2 {
		t.Errorf("expected level 2, got %d", s.Score().Level)
	}
	if n := evs.count(events.EventLevelUp); n != 2 {
		t.Errorf("expected 2 level-ups, got %d", n)
	}
}

func TestSetScoreMultiplier(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  int
	}{
		{"double", 2, 2},
		{"reset", 1, 1},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScoreSystem(levelUpEvery(5), "", nil, nil, nil)
			s.SetScoreMultiplier(tt.value)
			if got := s.Score().Multiplier; got != tt.want {
				t.Errorf("expected multiplier %d, got %d", tt.want, got)
			}
		})
	}
}

func TestChangeScoreNegative(t *testing.T) {
	s := NewScoreSystem(levelUpEvery(5), "", nil, nil, nil)
	s.ChangeScore(-2)

	if s.Score().Score != -2 || s.Score().LevelProgress != -2 {
		t.Errorf("negative deltas are applied as-is, got %+v", s.Score())
	}
}

// TestChangeScoreLevelUpDisabled 阈值为 0 时只加分不升级
func TestChangeScoreLevelUpDisabled(t *testing.T) {
	bus, evs := newRecordingBus()
	chase := NewChaseLineSystem(testChaseConfig(), true)
	s := NewScoreSystem(levelUpEvery(0), "", chase, nil, bus)

	s.ChangeScore(5)
	s.ChangeScore(12)

	if got := s.Score(); got.Score != 17 || got.Level != 0 {
		t.Errorf("expected score 17 at level 0, got %+v", got)
	}
	if n := evs.count(events.EventLevelUp); n != 0 {
		t.Errorf("expected no level-ups, got %d", n)
	}
	if speed := chase.State().Speed; speed != 1 {
		t.Errorf("death line speed changed to %v", speed)
	}
}
