package scenes

import (
	"strings"
	"testing"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/game"
)

const menuTestYAML = `
level: MenuTest
players:
  characters: [chicken, cat]
lanes:
  - {template: grass, weight: 1, width: 1}
shop:
  - {id: chicken, cost: 0, unlockKey: Unlock_chicken, unlocked: true}
  - {id: cat, cost: 30, unlockKey: Unlock_cat}
`

func newTestMenu(t *testing.T, coins int) (*MenuScene, *game.CounterStore) {
	t.Helper()
	cfg, err := config.ParseRunConfig([]byte(menuTestYAML))
	if err != nil {
		t.Fatalf("ParseRunConfig failed: %v", err)
	}
	store := game.NewCounterStore(nil)
	store.Set(cfg.Storage.Coins, coins)
	return NewMenuScene(cfg, store, NewSceneManager()), store
}

func TestMenuScenePick(t *testing.T) {
	tests := []struct {
		name        string
		coins       int
		pick        int
		wantMessage string
		wantCurrent int
		wantCoins   int
	}{
		{"选择已解锁角色", 0, 0, "chicken selected", 0, 0},
		{"金币不足", 10, 1, "cat needs 30 coins", 0, 10},
		{"购买并选中", 45, 1, "cat unlocked", 1, 15},
		{"越界", 45, 5, "", 0, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			menu, store := newTestMenu(t, tt.coins)

			if got := menu.Pick(tt.pick); got != tt.wantMessage {
				t.Errorf("Pick(%d) = %q, want %q", tt.pick, got, tt.wantMessage)
			}
			if got := store.Get("CurrentPlayer", 0); got != tt.wantCurrent {
				t.Errorf("current = %d, want %d", got, tt.wantCurrent)
			}
			if got := store.Get("Coins", 0); got != tt.wantCoins {
				t.Errorf("coins = %d, want %d", got, tt.wantCoins)
			}
		})
	}
}

func TestMenuSceneLines(t *testing.T) {
	menu, store := newTestMenu(t, 12)
	store.Set("MenuTest_HighScore", 9)

	text := strings.Join(menu.Lines(), "\n")
	for _, want := range []string{"MENUTEST", "COINS 12   BEST 9", "chicken", "selected", "30 coins"} {
		if !strings.Contains(text, want) {
			t.Errorf("menu text missing %q:\n%s", want, text)
		}
	}
}
