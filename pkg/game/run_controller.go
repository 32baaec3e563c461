package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
	"github.com/decker502/crossroad/pkg/systems"
	"github.com/decker502/crossroad/pkg/utils"
)

// 界面ID
const (
	CanvasGame     = "game"
	CanvasPause    = "pause"
	CanvasGameOver = "game_over"
	CanvasVictory  = "victory"
)

// Options 运行控制器的可选协作者
type Options struct {
	Store      *CounterStore            // 为 nil 时使用内存计数器
	Dispatcher *events.EffectDispatcher // 为 nil 时新建（外部效果全部缺失）
	Bus        *events.EventBus         // 为 nil 时新建
	Seed       uint64                   // 非 0 时覆盖配置中的种子
}

// runSystems 一局游戏的全部状态，重新开局时整体替换
type runSystems struct {
	seed      uint64
	em        *ecs.EntityManager
	scheduler *systems.TaskScheduler
	players   *systems.PlayerSystem
	cameras   *systems.CameraFollowSystem
	stream    *systems.LaneStreamSystem
	recycle   *systems.LaneRecycleSystem
	chase     *systems.ChaseLineSystem
	score     *systems.ScoreSystem
	powerups  *systems.PowerupSystem
	lives     *systems.LifeSystem
	blocks    *systems.BlockTouchSystem
}

// RunController 一局游戏的顶层状态机
//
// 状态转换：
//   - Paused → Running（开始/继续）⇄ Running → Paused（暂停）
//   - Running → GameOver（生命耗尽，延迟后）
//   - Running → Victory（外部触发的胜利效果）
//   - GameOver/Victory → Running（重新开始，所有状态重建）
//   - GameOver/Victory → 主菜单（发布 EventMainMenuRequested）
//
// 线程模型：Tick 及所有状态转换方法只能在游戏循环中调用；
// Submit*/Report* 与 Snapshot 可以在任意线程调用。
type RunController struct {
	cfg        *config.RunConfig
	store      *CounterStore
	dispatcher *events.EffectDispatcher
	bus        *events.EventBus
	seed       uint64

	inbox inbox
	sys   *runSystems

	state      RunState
	frame      int64
	gameSpeed  float64
	highScore  int
	totalCoins int

	snapMu   sync.RWMutex
	snapshot RunSnapshot
}

// NewRunController 创建运行控制器并初始化第一局
// 配置或持久化数据非法时返回错误，此时不能开局
func NewRunController(cfg *config.RunConfig, opts Options) (*RunController, error) {
	if cfg == nil {
		return nil, fmt.Errorf("run config is nil: %w", config.ErrInvalidConfig)
	}

	rc := &RunController{
		cfg:        cfg,
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		bus:        opts.Bus,
		seed:       opts.Seed,
	}
	if rc.store == nil {
		rc.store = NewCounterStore(nil)
	}
	if rc.dispatcher == nil {
		rc.dispatcher = events.NewEffectDispatcher()
	}
	if rc.bus == nil {
		rc.bus = events.NewEventBus()
	}
	if rc.seed == 0 {
		rc.seed = cfg.Stream.Seed
	}

	rc.registerControllerEffects()

	if err := rc.startRun(); err != nil {
		return nil, err
	}
	rc.publishSnapshot()
	return rc, nil
}

// Bus 生命周期事件总线
func (rc *RunController) Bus() *events.EventBus {
	return rc.bus
}

// Dispatcher 效果派发器，外部协作者在此注册处理者
func (rc *RunController) Dispatcher() *events.EffectDispatcher {
	return rc.dispatcher
}

// Config 当前配置
func (rc *RunController) Config() *config.RunConfig {
	return rc.cfg
}

// State 当前状态
func (rc *RunController) State() RunState {
	return rc.state
}

// Snapshot 最近一帧结束时的状态副本（线程安全）
func (rc *RunController) Snapshot() RunSnapshot {
	rc.snapMu.RLock()
	defer rc.snapMu.RUnlock()
	return rc.snapshot
}

// SubmitIntent 提交输入意图（线程安全），在下一次 Tick 开始时处理
func (rc *RunController) SubmitIntent(intent Intent) {
	rc.inbox.pushIntent(intent)
}

// ReportContact 回报玩家与实体的接触（线程安全）
func (rc *RunController) ReportContact(player int, entity ecs.EntityID) {
	rc.inbox.pushContact(contactReport{player: player, entity: entity})
}

// ReportPlayerTransform 回报玩家位置（线程安全）
func (rc *RunController) ReportPlayerTransform(player int, x, z, rotation float64) {
	rc.inbox.pushTransform(transformReport{player: player, x: x, z: z, rotation: rotation})
}

// ReportMarkerTransform 回报复活标记位置（线程安全）
func (rc *RunController) ReportMarkerTransform(player int, x, z, rotation float64) {
	rc.inbox.pushTransform(transformReport{player: player, marker: true, x: x, z: z, rotation: rotation})
}

// startRun 构建一局新游戏，失败时保留原有状态
func (rc *RunController) startRun() error {
	cfg := rc.cfg
	seed := rc.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	em := ecs.NewEntityManager()
	if rc.sys != nil {
		em = rc.sys.em.Successor()
	}
	sys := &runSystems{seed: seed, em: em}
	sys.scheduler = systems.NewTaskScheduler(sys.em)

	var err error
	sys.blocks, err = systems.NewBlockTouchSystem(sys.em, rc.dispatcher, cfg.Blocks)
	if err != nil {
		return fmt.Errorf("blocks: %w", err)
	}
	sys.stream, err = systems.NewLaneStreamSystem(sys.em, rc.bus, cfg, utils.NewRand(seed), sys.blocks)
	if err != nil {
		return fmt.Errorf("lane stream: %w", err)
	}
	sys.powerups, err = systems.NewPowerupSystem(sys.em, rc.dispatcher, rc.bus, cfg.Powerups)
	if err != nil {
		return fmt.Errorf("powerups: %w", err)
	}

	sys.chase = systems.NewChaseLineSystem(cfg.Chase, cfg.ChaseEnabled())
	sys.score = systems.NewScoreSystem(cfg.Score, cfg.Sounds.LevelUp, sys.chase, rc.dispatcher, rc.bus)
	sys.players = systems.NewPlayerSystem(sys.em, rc.dispatcher, cfg.Players.Count, cfg.Players.Characters)
	sys.cameras = systems.NewCameraFollowSystem(sys.em, cfg.Players.Count, cfg.Camera.FollowRate)
	sys.recycle = systems.NewLaneRecycleSystem(sys.em, rc.bus, cfg.Stream.RecycleDistance)
	sys.lives = systems.NewLifeSystem(cfg.Lives, sys.players, sys.powerups, sys.scheduler, rc.dispatcher, rc.bus, rc.onGameOver)

	// 持久化计数器只在开局时读取
	current := rc.store.Get(cfg.Storage.CurrentPlayer, cfg.Players.Default[0])
	if err := sys.players.SetPlayer(0, current); err != nil {
		return fmt.Errorf("current player selection: %w", err)
	}
	for i := 1; i < cfg.Players.Count; i++ {
		if err := sys.players.SetPlayer(i, cfg.Players.Default[i]); err != nil {
			return fmt.Errorf("player %d selection: %w", i, err)
		}
	}

	if err := sys.stream.Precreate(cfg.Stream.Precreate); err != nil {
		return fmt.Errorf("precreate lanes: %w", err)
	}

	if rc.sys != nil {
		// 旧一局仍在运行时，道具的结束效果要先送达协作者
		rc.sys.scheduler.CancelAll()
		rc.sys.powerups.ForceExpireAll(cfg.Lives.SkipExpiryOnForce)
	}
	rc.inbox.clear()
	rc.sys = sys
	rc.highScore = rc.store.Get(cfg.HighScoreKey(), 0)
	rc.totalCoins = rc.store.Get(cfg.Storage.Coins, 0)
	rc.gameSpeed = cfg.Score.GameSpeed
	rc.state = StatePaused

	rc.showCanvas(CanvasGameOver, false)
	rc.showCanvas(CanvasVictory, false)
	rc.showCanvas(CanvasPause, true)
	rc.showCanvas(CanvasGame, false)

	log.Printf("[RunController] Run initialized: seed=%d, lanes=%d, players=%d", seed, sys.stream.State().LanesCreated, cfg.Players.Count)
	return nil
}

// Tick 推进一帧
//
// 帧内顺序：外部消息（位置、意图、接触）→ 道具倒计时 → 定时任务 →
// 镜头 → 车道生成 → 死亡线 → 车道回收。
func (rc *RunController) Tick(deltaTime float64) {
	rc.frame++
	rc.bus.SetFrame(rc.frame)

	intents, contacts, transforms := rc.inbox.drain()

	for _, t := range transforms {
		if t.marker {
			rc.sys.players.ReportMarker(t.player, t.x, t.z, t.rotation)
		} else {
			rc.sys.players.ReportPlayer(t.player, t.x, t.z, t.rotation)
		}
	}
	for _, intent := range intents {
		rc.handleIntent(intent)
	}

	if rc.state == StateRunning {
		rc.update(deltaTime*rc.gameSpeed, contacts)
	}

	rc.sys.em.RemoveMarkedEntities()
	rc.publishSnapshot()
}

func (rc *RunController) update(dt float64, contacts []contactReport) {
	sys := rc.sys

	// 分数、生命、道具激活先于倒计时生效
	for _, c := range contacts {
		if rc.state != StateRunning {
			return
		}
		if err := sys.blocks.HandleContact(c.player, c.entity); err != nil {
			log.Printf("[RunController] Ignoring contact of player %d: %v", c.player, err)
		}
	}
	if rc.state != StateRunning {
		return
	}

	sys.powerups.Update(dt)
	sys.scheduler.Update(dt)
	if rc.state != StateRunning {
		return
	}

	sys.cameras.Update(dt, sys.players)
	edges := sys.cameras.LeadingEdges()
	sys.stream.Update(edges)

	sys.chase.Advance(edges, dt, true)
	indices, positions := sys.players.ActivePositions()
	for _, hit := range sys.chase.Contacts(positions) {
		player := indices[hit]
		p, _ := sys.players.Player(player)
		rc.bus.Publish(events.EventDeathLineContact, events.PlayerPayload{Player: player, X: p.X, Z: p.Z})
		sys.lives.ChangeLives(-1, player)
	}

	baseline := sys.chase.State().CurrentX
	if !sys.chase.Enabled() {
		baseline = minOf(edges)
	}
	sys.recycle.Update(baseline)
}

func (rc *RunController) handleIntent(intent Intent) {
	switch intent.Kind {
	case IntentPauseToggle:
		if rc.state.IsFinished() {
			rc.RequestMainMenu()
			return
		}
		rc.TogglePause()

	case IntentConfirm:
		switch {
		case rc.state.IsFinished():
			if err := rc.Restart(); err != nil {
				log.Printf("[RunController] Warning: restart failed: %v", err)
			}
		case rc.state == StatePaused:
			rc.Unpause()
		}

	case IntentMove:
		if rc.state == StateRunning {
			rc.sys.players.Move(intent.Player, intent.Direction)
		}
	}
}

// Pause 暂停（仅运行中有效）
func (rc *RunController) Pause() bool {
	if rc.state != StateRunning {
		return false
	}
	rc.state = StatePaused
	rc.showCanvas(CanvasPause, true)
	rc.showCanvas(CanvasGame, false)
	rc.bus.Publish(events.EventPaused, nil)
	return true
}

// Unpause 继续（仅暂停时有效）
func (rc *RunController) Unpause() bool {
	if rc.state != StatePaused {
		return false
	}
	rc.state = StateRunning
	rc.showCanvas(CanvasPause, false)
	rc.showCanvas(CanvasGame, true)
	rc.bus.Publish(events.EventResumed, nil)
	return true
}

// TogglePause 在暂停与运行之间切换
func (rc *RunController) TogglePause() bool {
	if rc.state == StatePaused {
		return rc.Unpause()
	}
	return rc.Pause()
}

// Restart 取消所有在途任务并重建一局，直接进入运行状态
func (rc *RunController) Restart() error {
	if err := rc.startRun(); err != nil {
		return err
	}
	rc.bus.Publish(events.EventRestarted, nil)
	rc.Unpause()
	return nil
}

// RequestMainMenu 请求返回主菜单
func (rc *RunController) RequestMainMenu() {
	rc.sys.scheduler.CancelAll()
	rc.bus.Publish(events.EventMainMenuRequested, nil)
}

// TriggerVictory 胜利（仅运行中有效）
func (rc *RunController) TriggerVictory() bool {
	if rc.state != StateRunning {
		return false
	}
	rc.sys.scheduler.CancelAll()
	rc.sys.powerups.ForceExpireAll(rc.cfg.Lives.SkipExpiryOnForce)
	rc.state = StateVictory
	rc.finishRun(events.EventVictory, CanvasVictory, rc.cfg.Sounds.Victory)
	return true
}

// SetGameSpeed 设置时间倍率
func (rc *RunController) SetGameSpeed(speed float64) {
	if speed <= 0 {
		log.Printf("[RunController] Warning: ignoring non-positive game speed %v", speed)
		return
	}
	rc.gameSpeed = speed
}

func (rc *RunController) onGameOver() {
	if rc.state != StateRunning {
		return
	}
	rc.state = StateGameOver
	rc.finishRun(events.EventGameOver, CanvasGameOver, rc.cfg.Sounds.GameOver)
}

// finishRun 结算：本局分数计入金币总数，刷新最高分并持久化
func (rc *RunController) finishRun(eventType events.EventType, canvas, sound string) {
	score := rc.sys.score.Score().Score

	rc.totalCoins = rc.store.Add(rc.cfg.Storage.Coins, score)
	newRecord := score > rc.highScore
	if newRecord {
		rc.highScore = score
		rc.store.Set(rc.cfg.HighScoreKey(), score)
	}
	if err := rc.store.Flush(); err != nil {
		log.Printf("[RunController] Warning: failed to persist counters: %v", err)
	}

	rc.showCanvas(CanvasPause, false)
	rc.showCanvas(CanvasGame, false)
	rc.showCanvas(canvas, true)
	rc.setText("final_score", score)
	rc.setText("high_score", rc.highScore)
	if sound != "" {
		rc.send(events.Target{Kind: events.TargetSound}, events.Effect{Kind: events.EffectPlaySound, Name: sound})
	}

	log.Printf("[RunController] Run finished (%s): score=%d, highScore=%d, coins=%d", rc.state, score, rc.highScore, rc.totalCoins)
	rc.bus.Publish(eventType, events.RunResultPayload{
		Score:      score,
		HighScore:  rc.highScore,
		TotalCoins: rc.totalCoins,
		NewRecord:  newRecord,
	})
}

// registerControllerEffects 注册由控制器自身处理的效果
// 处理函数总是作用于当前这一局（rc.sys 在重新开局时被替换）
func (rc *RunController) registerControllerEffects() {
	on := func(kind events.EffectKind, h events.EffectHandler) {
		rc.dispatcher.Register(events.TargetController, kind, h)
	}

	on(events.EffectChangeScore, func(_ events.Target, e events.Effect) {
		rc.sys.score.ChangeScore(int(e.Value))
	})
	on(events.EffectChangeLives, func(t events.Target, e events.Effect) {
		rc.sys.lives.ChangeLives(int(e.Value), t.Index)
	})
	on(events.EffectSetScoreMultiplier, func(_ events.Target, e events.Effect) {
		rc.sys.score.SetScoreMultiplier(int(e.Value))
	})
	on(events.EffectActivatePowerup, func(_ events.Target, e events.Effect) {
		id := e.Name
		if id == "" {
			// 按下标激活
			ids := rc.sys.powerups.IDs()
			if idx := int(e.Value); idx >= 0 && idx < len(ids) {
				id = ids[idx]
			}
		}
		if err := rc.sys.powerups.Activate(id); err != nil {
			log.Printf("[RunController] Warning: %v", err)
		}
	})
	on(events.EffectSetGameSpeed, func(_ events.Target, e events.Effect) {
		rc.SetGameSpeed(e.Value)
	})
	on(events.EffectSetPlayerSpeed, func(t events.Target, e events.Effect) {
		rc.sys.players.SetPlayerSpeed(t.Index, e.Value)
	})
	on(events.EffectResetDeathLine, func(_ events.Target, _ events.Effect) {
		if cam, ok := rc.sys.cameras.Camera(0); ok {
			rc.sys.chase.Reset(cam.X)
		}
	})
	on(events.EffectVictory, func(_ events.Target, _ events.Effect) {
		rc.TriggerVictory()
	})
}

func (rc *RunController) send(target events.Target, effect events.Effect) {
	if err := rc.dispatcher.Send(target, effect); err != nil && !errors.Is(err, events.ErrMissingCollaborator) {
		log.Printf("[RunController] Warning: %v", err)
	}
}

func (rc *RunController) showCanvas(name string, visible bool) {
	value := 0.0
	if visible {
		value = 1
	}
	rc.send(events.Target{Kind: events.TargetCanvas}, events.Effect{Kind: events.EffectShowCanvas, Name: name, Value: value})
}

func (rc *RunController) setText(field string, value int) {
	rc.send(events.Target{Kind: events.TargetCanvas}, events.Effect{Kind: events.EffectSetText, Name: field, Value: float64(value)})
}

func (rc *RunController) publishSnapshot() {
	snap := rc.buildSnapshot()
	rc.snapMu.Lock()
	rc.snapshot = snap
	rc.snapMu.Unlock()
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
