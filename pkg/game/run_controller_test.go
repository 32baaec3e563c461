package game

import (
	"errors"
	"sync"
	"testing"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
)

const testRunYAML = `
level: TestRoad
players:
  characters: [chicken, cat]
lanes:
  - template: grass
    weight: 1
    width: 1
  - template: road
    weight: 3
    width: 1
drops:
  - template: coin
    weight: 1
stream:
  seed: 42
  precreate: 10
powerups:
  - id: double
    duration: 5
    onActivate:
      - effect: SetScoreMultiplier
        value: 2
    onExpire:
      - effect: SetScoreMultiplier
        value: 1
blocks:
  - template: coin
    removeAfterTouches: 1
    touches:
      - effect: ChangeScore
        value: 1
  - template: car
    touches:
      - effect: ChangeLives
        value: -1
  - template: finish
    touches:
      - effect: Victory
  - template: star
    touches:
      - effect: ActivatePowerup
        name: double
sounds:
  gameOver: lose
`

func testRunConfig(t *testing.T) *config.RunConfig {
	t.Helper()
	cfg, err := config.ParseRunConfig([]byte(testRunYAML))
	if err != nil {
		t.Fatalf("ParseRunConfig failed: %v", err)
	}
	return cfg
}

func newTestController(t *testing.T, cfg *config.RunConfig, store *CounterStore) (*RunController, map[events.EventType]int) {
	t.Helper()
	bus := events.NewEventBus()
	counts := make(map[events.EventType]int)
	bus.SubscribeAll(func(ev events.GameEvent) { counts[ev.Type]++ })

	rc, err := NewRunController(cfg, Options{Store: store, Bus: bus})
	if err != nil {
		t.Fatalf("NewRunController failed: %v", err)
	}
	return rc, counts
}

// spawnBlock 在当前这一局中放置一个方块实体
func spawnBlock(t *testing.T, rc *RunController, template string) ecs.EntityID {
	t.Helper()
	id := rc.sys.em.CreateEntity()
	if !rc.sys.blocks.Attach(id, template) {
		t.Fatalf("template %s has no block", template)
	}
	return id
}

func start(t *testing.T, rc *RunController) {
	t.Helper()
	rc.SubmitIntent(Intent{Kind: IntentConfirm})
	rc.Tick(0)
	if rc.State() != StateRunning {
		t.Fatalf("expected Running after confirm, got %s", rc.State())
	}
}

func TestRunControllerStartsPaused(t *testing.T) {
	rc, _ := newTestController(t, testRunConfig(t), nil)

	snap := rc.Snapshot()
	if snap.State != StatePaused {
		t.Fatalf("expected initial state Paused, got %s", snap.State)
	}
	if len(snap.Lanes) != 10 || snap.Stream.LanesCreated != 10 {
		t.Errorf("expected 10 precreated lanes, got %d", len(snap.Lanes))
	}

	chase := snap.Chase
	for i := 0; i < 5; i++ {
		rc.Tick(0.1)
	}

	snap = rc.Snapshot()
	if snap.Chase != chase {
		t.Errorf("death line moved while paused: %+v -> %+v", chase, snap.Chase)
	}
	if snap.Stream.LanesCreated != 10 {
		t.Errorf("lanes created while paused: %d", snap.Stream.LanesCreated)
	}
	if snap.Frame != 5 {
		t.Errorf("expected frame 5, got %d", snap.Frame)
	}
}

func TestRunControllerPauseToggle(t *testing.T) {
	rc, counts := newTestController(t, testRunConfig(t), nil)
	start(t, rc)

	rc.Tick(0.1)
	if got := rc.Snapshot().Chase.TargetX; got <= 0 {
		t.Errorf("death line should advance while running, target=%v", got)
	}

	rc.SubmitIntent(Intent{Kind: IntentPauseToggle})
	rc.Tick(0.1)
	if rc.State() != StatePaused {
		t.Fatalf("expected Paused, got %s", rc.State())
	}
	target := rc.Snapshot().Chase.TargetX
	rc.Tick(0.1)
	if rc.Snapshot().Chase.TargetX != target {
		t.Error("death line advanced while paused")
	}

	rc.SubmitIntent(Intent{Kind: IntentPauseToggle})
	rc.Tick(0)
	if rc.State() != StateRunning {
		t.Fatalf("expected Running, got %s", rc.State())
	}
	if counts[events.EventPaused] != 1 || counts[events.EventResumed] != 2 {
		t.Errorf("unexpected pause/resume counts: %v", counts)
	}
}

func TestRunControllerGameOverPersists(t *testing.T) {
	store := NewCounterStore(nil)
	store.Set("Coins", 10)
	store.Set("TestRoad_HighScore", 1)

	rc, counts := newTestController(t, testRunConfig(t), store)
	var result events.RunResultPayload
	rc.Bus().Subscribe(events.EventGameOver, func(ev events.GameEvent) {
		result = ev.Payload.(events.RunResultPayload)
	})
	start(t, rc)

	rc.ReportContact(0, spawnBlock(t, rc, "coin"))
	rc.ReportContact(0, spawnBlock(t, rc, "coin"))
	rc.ReportContact(0, spawnBlock(t, rc, "star"))
	rc.ReportContact(0, spawnBlock(t, rc, "car"))
	rc.Tick(0.1)

	snap := rc.Snapshot()
	if snap.Score.Score != 2 {
		t.Errorf("expected score 2, got %d", snap.Score.Score)
	}
	if snap.Lives.Lives != 0 {
		t.Errorf("expected 0 lives, got %d", snap.Lives.Lives)
	}
	if snap.State != StateRunning {
		t.Fatalf("game over must wait for the delay, got %s", snap.State)
	}
	for _, p := range snap.Powerups {
		if p.Remaining != 0 {
			t.Errorf("powerup %s should be force-expired before the delay, has %v", p.ID, p.Remaining)
		}
	}

	rc.Tick(0.3)
	if rc.State() != StateRunning {
		t.Fatalf("game over fired early")
	}
	rc.Tick(0.3)
	if rc.State() != StateGameOver {
		t.Fatalf("expected GameOver after delay, got %s", rc.State())
	}

	if counts[events.EventGameOver] != 1 {
		t.Errorf("expected one game over event, got %d", counts[events.EventGameOver])
	}
	if !result.NewRecord || result.Score != 2 || result.HighScore != 2 || result.TotalCoins != 12 {
		t.Errorf("unexpected result %+v", result)
	}
	if got := store.Get("Coins", 0); got != 12 {
		t.Errorf("coins: got %d, want 12", got)
	}
	if got := store.Get("TestRoad_HighScore", 0); got != 2 {
		t.Errorf("high score: got %d, want 2", got)
	}

	// 结束后不再更新
	frozen := rc.Snapshot().Chase
	rc.Tick(1)
	if rc.Snapshot().Chase != frozen {
		t.Error("death line should not move after game over")
	}
}

func TestRunControllerRestartFromGameOver(t *testing.T) {
	rc, counts := newTestController(t, testRunConfig(t), nil)
	start(t, rc)

	rc.ReportContact(0, spawnBlock(t, rc, "coin"))
	rc.ReportContact(0, spawnBlock(t, rc, "car"))
	rc.Tick(0.1)
	rc.Tick(1)
	if rc.State() != StateGameOver {
		t.Fatalf("expected GameOver, got %s", rc.State())
	}

	rc.SubmitIntent(Intent{Kind: IntentConfirm})
	rc.Tick(0)

	snap := rc.Snapshot()
	if snap.State != StateRunning {
		t.Fatalf("expected Running after restart, got %s", snap.State)
	}
	if snap.Score.Score != 0 || snap.Lives.Lives != 1 || snap.Score.Multiplier != 1 {
		t.Errorf("state should be reset, got score=%+v lives=%+v", snap.Score, snap.Lives)
	}
	if snap.TotalCoins != 1 {
		t.Errorf("coins from the previous run should carry over, got %d", snap.TotalCoins)
	}
	if counts[events.EventRestarted] != 1 {
		t.Errorf("expected one restart event, got %d", counts[events.EventRestarted])
	}
}

func TestRunControllerRestartCancelsRespawn(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Lives.Initial = 2
	rc, counts := newTestController(t, cfg, nil)
	start(t, rc)

	rc.ReportContact(0, spawnBlock(t, rc, "car"))
	rc.Tick(0.1)
	if !rc.Snapshot().Lives.IsRespawning {
		t.Fatal("expected respawn in progress")
	}

	if err := rc.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		rc.Tick(0.5)
	}

	if counts[events.EventRespawnEnd] != 0 {
		t.Errorf("stale respawn fired %d times after restart", counts[events.EventRespawnEnd])
	}
	if rc.Snapshot().Lives.Lives != 2 {
		t.Errorf("expected fresh lives, got %d", rc.Snapshot().Lives.Lives)
	}
}

// TestRunControllerRestartWhileRunningExpiresPowerups 运行中重新开局时道具先正常结束
func TestRunControllerRestartWhileRunningExpiresPowerups(t *testing.T) {
	d := events.NewEffectDispatcher()
	endSounds := 0
	d.Register(events.TargetSound, events.EffectPlaySound, func(_ events.Target, e events.Effect) {
		if e.Name == "double_end" {
			endSounds++
		}
	})
	bus := events.NewEventBus()
	expired := 0
	bus.Subscribe(events.EventPowerupExpired, func(ev events.GameEvent) {
		if p, ok := ev.Payload.(events.PowerupPayload); ok && p.Forced {
			expired++
		}
	})

	cfg := testRunConfig(t)
	disabled := false
	cfg.Chase.Enabled = &disabled
	cfg.Powerups[0].OnExpire = append(cfg.Powerups[0].OnExpire,
		config.EffectSpec{Target: "Sound", Effect: "PlaySound", Name: "double_end"})
	rc, err := NewRunController(cfg, Options{Dispatcher: d, Bus: bus})
	if err != nil {
		t.Fatalf("NewRunController failed: %v", err)
	}
	start(t, rc)

	rc.ReportContact(0, spawnBlock(t, rc, "star"))
	rc.Tick(0.1)
	if len(rc.Snapshot().Powerups) == 0 || rc.Snapshot().Score.Multiplier != 2 {
		t.Fatalf("expected double to be active, got %+v", rc.Snapshot().Score)
	}

	if err := rc.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if expired != 1 || endSounds != 1 {
		t.Errorf("expected the active powerup to expire once, got expired=%d endSounds=%d", expired, endSounds)
	}
}

// TestRunControllerRestartKeepsEntityIDsUnique 上一局的实体回报在新一局被忽略
func TestRunControllerRestartKeepsEntityIDsUnique(t *testing.T) {
	cfg := testRunConfig(t)
	disabled := false
	cfg.Chase.Enabled = &disabled
	rc, _ := newTestController(t, cfg, nil)
	start(t, rc)

	oldCoin := spawnBlock(t, rc, "coin")
	var oldMax ecs.EntityID
	for _, lane := range rc.Snapshot().Lanes {
		oldMax = max(oldMax, lane.Entity)
	}

	if err := rc.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	rc.Tick(0)
	for _, lane := range rc.Snapshot().Lanes {
		if lane.Entity <= oldMax || lane.Entity == oldCoin {
			t.Fatalf("lane entity %d reuses an id from the previous run (max %d)", lane.Entity, oldMax)
		}
	}

	rc.ReportContact(0, oldCoin)
	rc.Tick(0.1)
	if got := rc.Snapshot().Score.Score; got != 0 {
		t.Errorf("contact with a previous-run coin scored %d", got)
	}
}

func TestRunControllerVictory(t *testing.T) {
	store := NewCounterStore(nil)
	rc, counts := newTestController(t, testRunConfig(t), store)

	// 暂停时不受理胜利
	if rc.TriggerVictory() {
		t.Error("victory should only trigger while running")
	}

	start(t, rc)
	rc.ReportContact(0, spawnBlock(t, rc, "coin"))
	rc.ReportContact(0, spawnBlock(t, rc, "finish"))
	rc.ReportContact(0, spawnBlock(t, rc, "car"))
	rc.Tick(0.1)

	if rc.State() != StateVictory {
		t.Fatalf("expected Victory, got %s", rc.State())
	}
	if counts[events.EventVictory] != 1 {
		t.Errorf("expected one victory event, got %d", counts[events.EventVictory])
	}
	if rc.Snapshot().Lives.Lives != 1 {
		t.Error("contacts after victory should be dropped")
	}
	if store.Get("Coins", 0) != 1 {
		t.Errorf("victory should persist coins, got %d", store.Get("Coins", 0))
	}

	rc.SubmitIntent(Intent{Kind: IntentPauseToggle})
	rc.Tick(0)
	if counts[events.EventMainMenuRequested] != 1 {
		t.Error("pause after victory should request the main menu")
	}
}

func TestRunControllerPowerupMultiplier(t *testing.T) {
	cfg := testRunConfig(t)
	disabled := false
	cfg.Chase.Enabled = &disabled
	rc, _ := newTestController(t, cfg, nil)
	start(t, rc)

	rc.ReportContact(0, spawnBlock(t, rc, "star"))
	rc.ReportContact(0, spawnBlock(t, rc, "coin"))
	rc.Tick(0.1)

	if got := rc.Snapshot().Score; got.Multiplier != 2 || got.Score != 2 {
		t.Errorf("expected doubled coin, got %+v", got)
	}

	rc.Tick(5)
	if got := rc.Snapshot().Score.Multiplier; got != 1 {
		t.Errorf("multiplier should reset when the powerup expires, got %d", got)
	}
}

func TestRunControllerDeathLineCatchesIdlePlayer(t *testing.T) {
	rc, counts := newTestController(t, testRunConfig(t), nil)
	start(t, rc)

	for i := 0; i < 600 && rc.State() == StateRunning; i++ {
		rc.Tick(0.1)
	}

	if counts[events.EventDeathLineContact] == 0 {
		t.Fatal("expected the death line to reach an idle player")
	}
	if rc.State() != StateGameOver {
		t.Errorf("expected GameOver, got %s", rc.State())
	}
}

func TestRunControllerMoveIntent(t *testing.T) {
	d := events.NewEffectDispatcher()
	var moves []string
	d.Register(events.TargetPlayer, events.EffectMove, func(_ events.Target, e events.Effect) {
		moves = append(moves, e.Name)
	})

	rc, err := NewRunController(testRunConfig(t), Options{Dispatcher: d})
	if err != nil {
		t.Fatalf("NewRunController failed: %v", err)
	}

	rc.SubmitIntent(Intent{Kind: IntentMove, Direction: "forward"})
	rc.Tick(0.1)
	if len(moves) != 0 {
		t.Errorf("moves should be ignored while paused, got %v", moves)
	}

	start(t, rc)
	rc.SubmitIntent(Intent{Kind: IntentMove, Direction: "forward"})
	rc.SubmitIntent(Intent{Kind: IntentMove, Direction: "left"})
	rc.Tick(0.1)

	if len(moves) != 2 || moves[0] != "forward" || moves[1] != "left" {
		t.Errorf("unexpected moves %v", moves)
	}
}

func TestRunControllerInvalidSelection(t *testing.T) {
	store := NewCounterStore(nil)
	store.Set("CurrentPlayer", 5)

	_, err := NewRunController(testRunConfig(t), Options{Store: store})
	if !errors.Is(err, config.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestRunControllerDeterministicLayout(t *testing.T) {
	templates := func() []string {
		rc, _ := newTestController(t, testRunConfig(t), nil)
		var ids []string
		for _, lane := range rc.Snapshot().Lanes {
			ids = append(ids, lane.TemplateID)
		}
		return ids
	}

	a, b := templates(), templates()
	if len(a) != len(b) {
		t.Fatalf("lane counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("lane %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestRunControllerConcurrentSnapshots(t *testing.T) {
	rc, _ := newTestController(t, testRunConfig(t), nil)
	start(t, rc)

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				_ = rc.Snapshot()
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			rc.ReportPlayerTransform(0, float64(i)*0.1, 0, 0)
		}
	}()

	for i := 0; i < 100; i++ {
		rc.Tick(1.0 / 60)
	}
	close(done)
	wg.Wait()

	if rc.Snapshot().Frame != 101 {
		t.Errorf("expected frame 101, got %d", rc.Snapshot().Frame)
	}
}
