package scenes

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/game"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var shopKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// MenuScene 标题界面：显示金币与最高分，数字键购买/选择角色，回车开始
type MenuScene struct {
	cfg          *config.RunConfig
	store        *game.CounterStore
	shop         *game.ShopManager
	sceneManager *SceneManager
	status       string
}

// NewMenuScene 创建标题界面
func NewMenuScene(cfg *config.RunConfig, store *game.CounterStore, sm *SceneManager) *MenuScene {
	return &MenuScene{
		cfg:          cfg,
		store:        store,
		shop:         game.NewShopManager(store, cfg.Shop, cfg.Storage),
		sceneManager: sm,
	}
}

// Pick 选择第 i 个商店条目：已解锁则选中，否则尝试购买
// 返回界面上显示的提示
func (s *MenuScene) Pick(i int) string {
	if i < 0 || i >= s.shop.Len() {
		return ""
	}
	item := s.cfg.Shop[i]

	if s.shop.IsUnlocked(i) {
		if err := s.shop.Select(i); err != nil {
			log.Printf("[MenuScene] Warning: failed to select %s: %v", item.ID, err)
			return fmt.Sprintf("cannot select %s", item.ID)
		}
		return fmt.Sprintf("%s selected", item.ID)
	}

	err := s.shop.Buy(i)
	switch {
	case err == nil:
		return fmt.Sprintf("%s unlocked", item.ID)
	case errors.Is(err, game.ErrNotEnoughCoins):
		return fmt.Sprintf("%s needs %d coins", item.ID, item.Cost)
	default:
		log.Printf("[MenuScene] Warning: failed to buy %s: %v", item.ID, err)
		return fmt.Sprintf("cannot buy %s", item.ID)
	}
}

// Update 处理商店按键与开始游戏
func (s *MenuScene) Update(deltaTime float64) {
	for i, key := range shopKeys {
		if inpututil.IsKeyJustPressed(key) {
			if msg := s.Pick(i); msg != "" {
				s.status = msg
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.sceneManager.Load(SceneRun)
	}
}

// Lines 标题界面的文本内容
func (s *MenuScene) Lines() []string {
	lines := []string{
		strings.ToUpper(s.cfg.Level),
		"",
		fmt.Sprintf("COINS %d   BEST %d", s.shop.Coins(), s.store.Get(s.cfg.HighScoreKey(), 0)),
		"",
	}
	for i, item := range s.cfg.Shop {
		state := fmt.Sprintf("%d coins", item.Cost)
		if s.shop.IsUnlocked(i) {
			state = "unlocked"
		}
		if i == s.shop.Current() {
			state = "selected"
		}
		lines = append(lines, fmt.Sprintf("%d. %-10s %s", i+1, item.ID, state))
	}
	lines = append(lines, "", "ENTER: start")
	if s.status != "" {
		lines = append(lines, "", s.status)
	}
	return lines
}

// Draw 绘制标题界面
func (s *MenuScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	ebitenutil.DebugPrintAt(screen, strings.Join(s.Lines(), "\n"), ScreenWidth/2-120, 120)
}
