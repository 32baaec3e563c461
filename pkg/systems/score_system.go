package systems

import (
	"log"

	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/events"
)

// ScoreSystem 分数、倍率与升级
//
// 每拾取 LevelUpEveryCoins 个金币升级一次，升级使死亡线加速。
// 一次加分跨过多个阈值时会连续升级；阈值为 0 时不升级。
type ScoreSystem struct {
	score        components.RunScore
	threshold    int
	chase        *ChaseLineSystem
	dispatcher   *events.EffectDispatcher
	bus          *events.EventBus
	levelUpSound string
}

// NewScoreSystem 创建分数系统
func NewScoreSystem(cfg config.ScoreConfig, levelUpSound string, chase *ChaseLineSystem, dispatcher *events.EffectDispatcher, bus *events.EventBus) *ScoreSystem {
	return &ScoreSystem{
		score:        components.RunScore{Multiplier: 1},
		threshold:    cfg.LevelUpEveryCoins(),
		chase:        chase,
		dispatcher:   dispatcher,
		bus:          bus,
		levelUpSound: levelUpSound,
	}
}

// Score 返回当前分数状态
func (s *ScoreSystem) Score() components.RunScore {
	return s.score
}

// Threshold 升级阈值
func (s *ScoreSystem) Threshold() int {
	return s.threshold
}

// ChangeScore 加分（乘以倍率），并累计升级进度
// 负数增量按原样计算，分数不做下限截断
func (s *ScoreSystem) ChangeScore(delta int) {
	s.score.Score += delta * s.score.Multiplier
	s.score.LevelProgress += delta

	send(s.dispatcher, canvasTarget, events.Effect{Kind: events.EffectSetText, Name: "score", Value: float64(s.score.Score)})
	s.bus.Publish(events.EventScoreChanged, events.ScorePayload{
		Score:      s.score.Score,
		Delta:      delta,
		Multiplier: s.score.Multiplier,
	})

	if s.threshold <= 0 {
		return
	}
	for s.score.LevelProgress >= s.threshold {
		s.score.LevelProgress -= s.threshold
		s.levelUp()
	}
}

// SetScoreMultiplier 设置倍率，小于 1 时按 1 处理
func (s *ScoreSystem) SetScoreMultiplier(multiplier int) {
	if multiplier < 1 {
		log.Printf("[ScoreSystem] Warning: score multiplier %d < 1, using 1", multiplier)
		multiplier = 1
	}
	s.score.Multiplier = multiplier
}

func (s *ScoreSystem) levelUp() {
	s.score.Level++

	speed := 0.0
	if s.chase != nil {
		speed = s.chase.LevelUp()
	}

	if s.levelUpSound != "" {
		send(s.dispatcher, soundTarget, events.Effect{Kind: events.EffectPlaySound, Name: s.levelUpSound})
	}
	s.bus.Publish(events.EventLevelUp, events.LevelUpPayload{Level: s.score.Level, DeathLineSpeed: speed})
}
