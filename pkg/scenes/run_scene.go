package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/events"
	"github.com/decker502/crossroad/pkg/game"
	"github.com/decker502/crossroad/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// 逻辑屏幕尺寸
const (
	ScreenWidth  = 800
	ScreenHeight = 600
)

// 俯视图布局：前进方向朝屏幕上方
const (
	cellSize    = 40.0
	originY     = 450.0 // 镜头所在车道的屏幕Y
	originX     = ScreenWidth / 2
	victoryLine = 4.0
)

var (
	backgroundColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	deathLineColor  = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	overlayColor    = color.RGBA{A: 160}

	laneColors = map[string]color.RGBA{
		"grass":  {R: 80, G: 160, B: 70, A: 255},
		"road":   {R: 70, G: 70, B: 80, A: 255},
		"river":  {R: 50, G: 100, B: 200, A: 255},
		"rail":   {R: 110, G: 80, B: 60, A: 255},
		"finish": {R: 240, G: 240, B: 240, A: 255},
	}
	dropColors = map[string]color.RGBA{
		"coin":   {R: 250, G: 210, B: 40, A: 255},
		"car":    {R: 200, G: 40, B: 40, A: 255},
		"double": {R: 200, G: 60, B: 220, A: 255},
		"slowmo": {R: 60, G: 200, B: 220, A: 255},
	}
	playerColors = []color.RGBA{
		{R: 255, G: 255, B: 255, A: 255},
		{R: 255, G: 160, B: 40, A: 255},
	}
	defaultLaneColor = color.RGBA{R: 60, G: 120, B: 60, A: 255}
	defaultDropColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// keyBinding 按键到意图的映射
type keyBinding struct {
	key    ebiten.Key
	intent game.Intent
}

// runKeyBindings 玩家1 使用 WASD，玩家2 使用方向键（单人时方向键也控制玩家1）
var runKeyBindings = []keyBinding{
	{ebiten.KeyW, game.Intent{Kind: game.IntentMove, Player: 0, Direction: systems.DirectionForward}},
	{ebiten.KeyS, game.Intent{Kind: game.IntentMove, Player: 0, Direction: systems.DirectionBackward}},
	{ebiten.KeyA, game.Intent{Kind: game.IntentMove, Player: 0, Direction: systems.DirectionLeft}},
	{ebiten.KeyD, game.Intent{Kind: game.IntentMove, Player: 0, Direction: systems.DirectionRight}},
	{ebiten.KeyArrowUp, game.Intent{Kind: game.IntentMove, Player: 1, Direction: systems.DirectionForward}},
	{ebiten.KeyArrowDown, game.Intent{Kind: game.IntentMove, Player: 1, Direction: systems.DirectionBackward}},
	{ebiten.KeyArrowLeft, game.Intent{Kind: game.IntentMove, Player: 1, Direction: systems.DirectionLeft}},
	{ebiten.KeyArrowRight, game.Intent{Kind: game.IntentMove, Player: 1, Direction: systems.DirectionRight}},
	{ebiten.KeyEscape, game.Intent{Kind: game.IntentPauseToggle}},
	{ebiten.KeyP, game.Intent{Kind: game.IntentPauseToggle}},
	{ebiten.KeyEnter, game.Intent{Kind: game.IntentConfirm}},
	{ebiten.KeySpace, game.Intent{Kind: game.IntentConfirm}},
}

// RunScene 一局过马路游戏
//
// 核心状态全部在 RunController 中；场景只负责输入、绘制，
// 以及作为玩家/界面的外部协作者（GridWalker、HUD）。
type RunScene struct {
	cfg          *config.RunConfig
	store        *game.CounterStore
	sceneManager *SceneManager

	controller *game.RunController
	walker     *GridWalker
	hud        *HUD

	leaveRequested bool
}

// NewRunScene 创建一局游戏场景
// seed 为 0 时使用配置中的种子
func NewRunScene(cfg *config.RunConfig, store *game.CounterStore, sm *SceneManager, am *AudioManager, seed uint64) (*RunScene, error) {
	dispatcher := events.NewEffectDispatcher()
	bus := events.NewEventBus()

	s := &RunScene{
		cfg:          cfg,
		store:        store,
		sceneManager: sm,
		hud:          NewHUD(dispatcher, am),
		walker:       NewGridWalker(dispatcher, bus, cfg),
	}
	bus.Subscribe(events.EventMainMenuRequested, func(events.GameEvent) { s.leaveRequested = true })
	bus.Subscribe(events.EventGameOver, s.logResult)
	bus.Subscribe(events.EventVictory, s.logResult)

	controller, err := game.NewRunController(cfg, game.Options{
		Store:      store,
		Dispatcher: dispatcher,
		Bus:        bus,
		Seed:       seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	s.controller = controller
	s.walker.Bind(controller)

	log.Printf("[RunScene] Created (level=%s, players=%d, seed=%d)", cfg.Level, cfg.Players.Count, controller.Snapshot().Seed)
	return s, nil
}

// Controller 返回运行控制器
func (s *RunScene) Controller() *game.RunController {
	return s.controller
}

func (s *RunScene) logResult(ev events.GameEvent) {
	if result, ok := ev.Payload.(events.RunResultPayload); ok {
		log.Printf("[RunScene] %s: score=%d high=%d coins=%d new_record=%v",
			ev.Type, result.Score, result.HighScore, result.TotalCoins, result.NewRecord)
	}
}

// Update 读取输入并推进一帧
func (s *RunScene) Update(deltaTime float64) {
	for _, b := range runKeyBindings {
		if !inpututil.IsKeyJustPressed(b.key) {
			continue
		}
		intent := b.intent
		if intent.Kind == game.IntentMove && intent.Player >= s.cfg.Players.Count {
			intent.Player = 0
		}
		s.controller.SubmitIntent(intent)
	}

	s.controller.Tick(deltaTime)

	if s.leaveRequested {
		s.leaveRequested = false
		s.sceneManager.Load(SceneMenu)
	}
}

// SaveOnExit 退出时写回计数器
func (s *RunScene) SaveOnExit() bool {
	if err := s.store.Flush(); err != nil {
		log.Printf("[RunScene] Warning: failed to save counters: %v", err)
		return false
	}
	return true
}

// Draw 绘制车道、掉落物、玩家、死亡线和界面
func (s *RunScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	snap := s.controller.Snapshot()

	cameraX := 0.0
	if len(snap.Cameras) > 0 {
		cameraX = snap.Cameras[0].X
	}
	screenY := func(x float64) float32 {
		return float32(originY - (x-cameraX)*cellSize)
	}
	screenX := func(z float64) float32 {
		return float32(originX + z*cellSize - cellSize/2)
	}

	for _, lane := range snap.Lanes {
		clr, ok := laneColors[lane.TemplateID]
		if !ok {
			clr = defaultLaneColor
		}
		if lane.IsVictory {
			vector.DrawFilledRect(screen, 0, screenY(lane.Position)-victoryLine/2, ScreenWidth, victoryLine, clr, false)
			continue
		}
		top := screenY(lane.Position + lane.Width)
		vector.DrawFilledRect(screen, 0, top, ScreenWidth, float32(lane.Width*cellSize)-1, clr, false)
	}

	for _, drop := range snap.Drops {
		clr, ok := dropColors[drop.TemplateID]
		if !ok {
			clr = defaultDropColor
		}
		vector.DrawFilledRect(screen, screenX(drop.Z)+8, screenY(drop.X+1)+8, cellSize-16, cellSize-16, clr, true)
	}

	for i := 0; i < s.cfg.Players.Count; i++ {
		clr := playerColors[i%len(playerColors)]
		if m, ok := s.walker.Marker(i); ok && m.Visible {
			vector.StrokeRect(screen, screenX(m.Z)+4, screenY(m.X+1)+4, cellSize-8, cellSize-8, 2, clr, true)
		}
		if p, ok := s.walker.Player(i); ok && p.Visible {
			vector.DrawFilledRect(screen, screenX(p.Z)+6, screenY(p.X+1)+6, cellSize-12, cellSize-12, clr, true)
		}
	}

	if s.cfg.ChaseEnabled() {
		y := screenY(snap.Chase.CurrentX)
		vector.StrokeLine(screen, 0, y, ScreenWidth, y, 3, deathLineColor, true)
	}

	s.drawHUD(screen, snap)
}

func (s *RunScene) drawHUD(screen *ebiten.Image, snap game.RunSnapshot) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SCORE %d  x%d   LIVES %d   COINS %d   BEST %d",
		s.hud.Text("score"), snap.Score.Multiplier, s.hud.Text("lives"), snap.TotalCoins, snap.HighScore), 10, 10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("LEVEL %s  LANES %d  SPEED %.2f  %s",
		levelText(snap), snap.Stream.LanesCreated, snap.Chase.Speed, snap.State), 10, 26)

	for i, icon := range s.hud.Icons() {
		y := float32(50 + i*18)
		vector.DrawFilledRect(screen, 10, y, float32(100*icon.Fill), 12, dropColors[icon.ID], false)
		ebitenutil.DebugPrintAt(screen, icon.ID, 116, int(y)-2)
	}

	var message string
	switch {
	case s.hud.Visible(game.CanvasGameOver):
		message = fmt.Sprintf("GAME OVER  score %d\nENTER: restart  ESC: menu", s.hud.Text("final_score"))
	case s.hud.Visible(game.CanvasVictory):
		message = fmt.Sprintf("VICTORY!  score %d\nENTER: restart  ESC: menu", s.hud.Text("final_score"))
	case s.hud.Visible(game.CanvasPause):
		message = "PAUSED\nENTER: play  WASD / arrows: move"
	case snap.GameOverPending:
		message = "OUT OF LIVES"
	}
	if message != "" {
		vector.DrawFilledRect(screen, 0, ScreenHeight/2-40, ScreenWidth, 80, overlayColor, false)
		ebitenutil.DebugPrintAt(screen, message, ScreenWidth/2-100, ScreenHeight/2-16)
	}
}

// levelText 等级与升级进度，例如 "2 (3/5)"
func levelText(snap game.RunSnapshot) string {
	if snap.LevelUpThreshold <= 0 {
		return fmt.Sprintf("%d", snap.Score.Level)
	}
	return fmt.Sprintf("%d (%d/%d)", snap.Score.Level, snap.Score.LevelProgress, snap.LevelUpThreshold)
}
