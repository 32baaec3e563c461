package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/decker502/crossroad/pkg/config"
)

// TestLoadDefaultRunConfig 校验仓库内置的默认关卡配置
func TestLoadDefaultRunConfig(t *testing.T) {
	cfg, err := LoadRunConfig(Config{ConfigPath: filepath.Join("..", "..", "data", "run_config.yaml")})
	if err != nil {
		t.Fatalf("default run config is invalid: %v", err)
	}

	if cfg.Level != "RoadCrossing" {
		t.Errorf("Level = %q", cfg.Level)
	}
	if len(cfg.Shop) != len(cfg.Players.Characters) {
		t.Errorf("every character needs a shop item: %d items, %d characters", len(cfg.Shop), len(cfg.Players.Characters))
	}
	if !cfg.ChaseEnabled() || cfg.Chase.Start() >= cfg.Stream.StartPosition {
		t.Errorf("death line should start behind the first lane, got %v", cfg.Chase.Start())
	}

	// 配置里引用的每个音效都要有合成参数
	sounds := []string{cfg.Sounds.LevelUp, cfg.Sounds.GameOver, cfg.Sounds.Victory}
	for _, b := range cfg.Blocks {
		sounds = append(sounds, b.HitSound)
	}
	for _, p := range cfg.Powerups {
		for _, e := range append(p.OnActivate, p.OnExpire...) {
			if e.Effect == "PlaySound" {
				sounds = append(sounds, e.Name)
			}
		}
	}
	for _, id := range sounds {
		if _, ok := cfg.Sounds.Tones[id]; id != "" && !ok {
			t.Errorf("sound %q has no tone", id)
		}
	}
}

func TestLoadRunConfigPlayerOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("lanes:\n  - {template: grass, weight: 1, width: 1}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRunConfig(Config{ConfigPath: path, Players: 2})
	if err != nil {
		t.Fatalf("LoadRunConfig failed: %v", err)
	}
	if cfg.Players.Count != 2 {
		t.Errorf("Players.Count = %d, want 2", cfg.Players.Count)
	}

	if _, err := LoadRunConfig(Config{ConfigPath: path, Players: 3}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for 3 players, got %v", err)
	}
}

func TestLoadRunConfigEmbeddedNotInitialized(t *testing.T) {
	if _, err := LoadRunConfig(Config{}); err == nil {
		t.Error("expected error when embedded resources are not initialized")
	}
}
