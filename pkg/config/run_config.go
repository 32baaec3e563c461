package config

import (
	"fmt"
	"log"
	"os"

	"github.com/decker502/crossroad/pkg/events"
	"github.com/decker502/crossroad/pkg/utils"
	"gopkg.in/yaml.v3"
)

// 默认值（与原版一致）
const (
	DefaultPrecreateLanes     = 20
	DefaultStartPosition      = 1.0
	DefaultDropOffsetRange    = 4
	DefaultDeathLineSpeed     = 1.0
	DefaultDeathLineIncrement = 1.0
	DefaultDeathLineMax       = 1.5
	DefaultDeathLineSmoothing = 0.5
	DefaultDeathLineStartX    = -3.0
	DefaultCameraFollowRate   = 3.0
	DefaultLives              = 1
	DefaultRespawnTime        = 1.2
	DefaultGameOverDelay      = 0.5
	DefaultLevelUpEveryCoins  = 5
	DefaultGameSpeed          = 1.0
	DefaultRecycleDistance    = 10.0
	DefaultLevelName          = "RoadCrossing"
	MaxPlayers                = 2
)

// RunConfig 一局游戏的完整配置
// 开局前一次性加载并校验，运行期间只读
type RunConfig struct {
	Level    string         `yaml:"level"` // 关卡名，用作最高分存储键前缀
	Players  PlayersConfig  `yaml:"players"`
	Lanes    []LaneSpec     `yaml:"lanes"`
	Drops    []DropSpec     `yaml:"drops"`
	Victory  VictoryConfig  `yaml:"victory"`
	Stream   StreamConfig   `yaml:"stream"`
	Chase    ChaseConfig    `yaml:"chase"`
	Camera   CameraConfig   `yaml:"camera"`
	Lives    LivesConfig    `yaml:"lives"`
	Score    ScoreConfig    `yaml:"score"`
	Powerups []PowerupSpec  `yaml:"powerups"`
	Blocks   []BlockSpec    `yaml:"blocks"`
	Shop     []ShopItemSpec `yaml:"shop"`
	Sounds   SoundsConfig   `yaml:"sounds"`
	Storage  StorageKeys    `yaml:"storage"`
}

// LaneSpec 车道模板
type LaneSpec struct {
	TemplateID  string  `yaml:"template"`
	SpawnWeight int     `yaml:"weight"`     // 出现权重（正整数）
	Width       float64 `yaml:"width"`      // 车道宽度（正数）
	ItemChance  float64 `yaml:"itemChance"` // 掉落物概率 [0,1]
}

// DropSpec 掉落物模板
type DropSpec struct {
	TemplateID string `yaml:"template"`
	DropWeight int    `yaml:"weight"`
}

// PlayersConfig 玩家配置
type PlayersConfig struct {
	Count      int      `yaml:"count"`      // 1 或 2
	Characters []string `yaml:"characters"` // 可选角色列表（商店解锁项与之一一对应）
	Default    []int    `yaml:"default"`    // 每个玩家的默认角色下标
}

// VictoryConfig 胜利车道配置（仅随机生成关卡）
type VictoryConfig struct {
	Lane           string `yaml:"lane"`           // 胜利车道模板，空表示无尽模式
	LanesToVictory int    `yaml:"lanesToVictory"` // 0 = 关闭
}

// StreamConfig 车道流式生成配置
type StreamConfig struct {
	Precreate       int     `yaml:"precreate"`       // 开局预生成数量，同时作为前瞻距离
	Lookahead       float64 `yaml:"lookahead"`       // 前瞻距离，默认等于 precreate
	StartPosition   float64 `yaml:"startPosition"`   // 第一条车道的位置
	DropOffset      *int    `yaml:"dropOffsetRange"` // 掉落物沿车道方向的随机偏移范围，0 表示不偏移
	SequentialDrop  bool    `yaml:"sequentialDrop"`  // 按顺序而非随机掉落
	RecycleDistance float64 `yaml:"recycleDistance"` // 落后死亡线多远的车道被回收
	Seed            uint64  `yaml:"seed"`            // 随机种子，0 表示按时间取种
}

// DropOffsetRange 掉落物偏移范围，未配置时取默认值
func (c StreamConfig) DropOffsetRange() int {
	if c.DropOffset == nil {
		return DefaultDropOffsetRange
	}
	return *c.DropOffset
}

// ChaseConfig 死亡线配置
type ChaseConfig struct {
	Enabled        *bool    `yaml:"enabled"` // 默认开启
	StartX         *float64 `yaml:"startX"`  // 默认在起点车道之后
	InitialSpeed   *float64 `yaml:"speed"`   // 0 表示开局静止，只靠升级加速
	SpeedIncrement float64  `yaml:"speedIncrement"`
	SpeedMax       float64  `yaml:"speedMax"`
	SmoothingRate  float64  `yaml:"smoothingRate"`
}

// Start 死亡线起始位置
func (c ChaseConfig) Start() float64 {
	if c.StartX == nil {
		return DefaultDeathLineStartX
	}
	return *c.StartX
}

// Speed 死亡线初始速度
func (c ChaseConfig) Speed() float64 {
	if c.InitialSpeed == nil {
		return DefaultDeathLineSpeed
	}
	return *c.InitialSpeed
}

// CameraConfig 镜头跟随配置
type CameraConfig struct {
	FollowRate float64 `yaml:"followRate"`
}

// LivesConfig 生命/复活配置
type LivesConfig struct {
	Initial             int      `yaml:"initial"`
	RespawnTime         float64  `yaml:"respawnTime"`
	GameOverWait        *float64 `yaml:"gameOverDelay"` // 0 表示立即结束
	StopPowerupsOnDeath bool     `yaml:"stopPowerupsOnDeath"`
	SkipExpiryOnForce   bool     `yaml:"skipExpiryOnForce"` // 强制结束道具时不执行结束效果
}

// GameOverDelay 生命耗尽到游戏结束的延迟
func (c LivesConfig) GameOverDelay() float64 {
	if c.GameOverWait == nil {
		return DefaultGameOverDelay
	}
	return *c.GameOverWait
}

// ScoreConfig 分数/升级配置
type ScoreConfig struct {
	LevelUpEvery *int    `yaml:"levelUpEveryCoins"` // 0 表示关闭升级
	GameSpeed    float64 `yaml:"gameSpeed"`
}

// LevelUpEveryCoins 升级阈值，0 表示不升级
func (c ScoreConfig) LevelUpEveryCoins() int {
	if c.LevelUpEvery == nil {
		return DefaultLevelUpEveryCoins
	}
	return *c.LevelUpEvery
}

// SoundsConfig 音效ID
type SoundsConfig struct {
	LevelUp  string              `yaml:"levelUp"`
	GameOver string              `yaml:"gameOver"`
	Victory  string              `yaml:"victory"`
	Tones    map[string]ToneSpec `yaml:"tones"` // 音效ID -> 合成参数，未列出的音效不发声
}

// ToneSpec 合成音效参数（正弦波）
type ToneSpec struct {
	Frequency float64 `yaml:"frequency"` // Hz
	Duration  float64 `yaml:"duration"`  // 秒
}

// StorageKeys 持久化计数器键名
type StorageKeys struct {
	Coins         string `yaml:"coins"`
	CurrentPlayer string `yaml:"currentPlayer"`
}

// EffectSpec 配置中的一条效果
type EffectSpec struct {
	Target string  `yaml:"target"` // 目标类别，空表示控制器
	Index  int     `yaml:"index"`
	Effect string  `yaml:"effect"`
	Name   string  `yaml:"name"`
	Value  float64 `yaml:"value"`
}

// PowerupSpec 道具配置
type PowerupSpec struct {
	ID         string       `yaml:"id"`
	Duration   float64      `yaml:"duration"`
	OnActivate []EffectSpec `yaml:"onActivate"` // 最多 2 个
	OnExpire   []EffectSpec `yaml:"onExpire"`   // 最多 2 个
}

// BlockSpec 可触碰方块（金币、障碍、终点线……）
type BlockSpec struct {
	TemplateID         string       `yaml:"template"`
	RemoveAfterTouches int          `yaml:"removeAfterTouches"` // 0 = 永不移除
	Touches            []EffectSpec `yaml:"touches"`
	HitSound           string       `yaml:"hitSound"`
}

// ShopItemSpec 商店条目
type ShopItemSpec struct {
	ID        string `yaml:"id"`
	Cost      int    `yaml:"cost"`
	UnlockKey string `yaml:"unlockKey"`
	Unlocked  bool   `yaml:"unlocked"` // 默认已解锁（初始角色）
}

// LoadRunConfig 从 YAML 文件加载运行配置
func LoadRunConfig(filePath string) (*RunConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config file %s: %w", filePath, err)
	}

	cfg, err := ParseRunConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// ParseRunConfig 解析 YAML 数据、应用默认值并校验
func ParseRunConfig(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config YAML: %w", err)
	}

	applyRunDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	return &cfg, nil
}

// applyRunDefaults 为缺省字段填入默认值
func applyRunDefaults(cfg *RunConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLevelName
	}
	if cfg.Players.Count == 0 {
		cfg.Players.Count = 1
	}
	if len(cfg.Players.Characters) == 0 {
		cfg.Players.Characters = []string{"player"}
	}
	for len(cfg.Players.Default) < cfg.Players.Count {
		// 第二个玩家默认使用第二个角色（若存在）
		idx := len(cfg.Players.Default)
		if idx >= len(cfg.Players.Characters) {
			idx = 0
		}
		cfg.Players.Default = append(cfg.Players.Default, idx)
	}

	if cfg.Stream.Precreate == 0 {
		cfg.Stream.Precreate = DefaultPrecreateLanes
	}
	if cfg.Stream.Lookahead == 0 {
		cfg.Stream.Lookahead = float64(cfg.Stream.Precreate)
	}
	if cfg.Stream.StartPosition == 0 {
		cfg.Stream.StartPosition = DefaultStartPosition
	}
	if cfg.Stream.RecycleDistance == 0 {
		cfg.Stream.RecycleDistance = DefaultRecycleDistance
	}

	if cfg.Chase.Enabled == nil {
		enabled := true
		cfg.Chase.Enabled = &enabled
	}
	if cfg.Chase.SpeedIncrement == 0 {
		cfg.Chase.SpeedIncrement = DefaultDeathLineIncrement
	}
	if cfg.Chase.SpeedMax == 0 {
		cfg.Chase.SpeedMax = DefaultDeathLineMax
	}
	if cfg.Chase.SmoothingRate == 0 {
		cfg.Chase.SmoothingRate = DefaultDeathLineSmoothing
	}

	if cfg.Camera.FollowRate == 0 {
		cfg.Camera.FollowRate = DefaultCameraFollowRate
	}

	if cfg.Lives.Initial == 0 {
		cfg.Lives.Initial = DefaultLives
	}
	if cfg.Lives.RespawnTime == 0 {
		cfg.Lives.RespawnTime = DefaultRespawnTime
	}

	if cfg.Score.GameSpeed == 0 {
		cfg.Score.GameSpeed = DefaultGameSpeed
	}

	if cfg.Storage.Coins == "" {
		cfg.Storage.Coins = "Coins"
	}
	if cfg.Storage.CurrentPlayer == "" {
		cfg.Storage.CurrentPlayer = "CurrentPlayer"
	}
}

// SetPlayerCount 覆盖玩家数量（命令行参数）并重新校验
func (cfg *RunConfig) SetPlayerCount(n int) error {
	cfg.Players.Count = n
	applyRunDefaults(cfg)
	return Validate(cfg)
}

// ChaseEnabled 是否启用死亡线
func (cfg *RunConfig) ChaseEnabled() bool {
	return cfg.Chase.Enabled == nil || *cfg.Chase.Enabled
}

// HasVictoryLane 是否配置了胜利车道且胜利条件开启
func (cfg *RunConfig) HasVictoryLane() bool {
	return cfg.Victory.Lane != "" && cfg.Victory.LanesToVictory > 0
}

// HighScoreKey 当前关卡的最高分存储键
func (cfg *RunConfig) HighScoreKey() string {
	return cfg.Level + "_HighScore"
}

// Validate 校验配置，任何错误都阻止开局
func Validate(cfg *RunConfig) error {
	if cfg.Players.Count < 1 || cfg.Players.Count > MaxPlayers {
		return fmt.Errorf("players.count must be 1 or 2, got %d: %w", cfg.Players.Count, ErrInvalidConfig)
	}
	for i := 0; i < cfg.Players.Count; i++ {
		if err := CheckCharacterIndex(cfg, cfg.Players.Default[i]); err != nil {
			return fmt.Errorf("players.default[%d]: %w", i, err)
		}
	}

	if len(cfg.Lanes) == 0 {
		return fmt.Errorf("lanes: at least one lane is required: %w", utils.ErrEmptyPool)
	}
	needsDrops := false
	for i, lane := range cfg.Lanes {
		if lane.TemplateID == "" {
			return fmt.Errorf("lanes[%d]: template is required: %w", i, ErrInvalidConfig)
		}
		if lane.SpawnWeight <= 0 {
			return fmt.Errorf("lanes[%d] %s: weight %d: %w", i, lane.TemplateID, lane.SpawnWeight, utils.ErrInvalidWeight)
		}
		if lane.Width <= 0 {
			return fmt.Errorf("lanes[%d] %s: width must be positive, got %v: %w", i, lane.TemplateID, lane.Width, ErrInvalidConfig)
		}
		if lane.ItemChance < 0 || lane.ItemChance > 1 {
			return fmt.Errorf("lanes[%d] %s: itemChance must be in [0,1], got %v: %w", i, lane.TemplateID, lane.ItemChance, ErrInvalidConfig)
		}
		if lane.ItemChance > 0 {
			needsDrops = true
		}
	}

	for i, drop := range cfg.Drops {
		if drop.TemplateID == "" {
			return fmt.Errorf("drops[%d]: template is required: %w", i, ErrInvalidConfig)
		}
		if drop.DropWeight <= 0 {
			return fmt.Errorf("drops[%d] %s: weight %d: %w", i, drop.TemplateID, drop.DropWeight, utils.ErrInvalidWeight)
		}
	}
	if needsDrops && len(cfg.Drops) == 0 {
		return fmt.Errorf("drops: lanes have itemChance > 0 but no drops are configured: %w", utils.ErrEmptyPool)
	}

	if cfg.Victory.LanesToVictory < 0 {
		return fmt.Errorf("victory.lanesToVictory must be >= 0, got %d: %w", cfg.Victory.LanesToVictory, ErrInvalidConfig)
	}
	if cfg.Stream.Precreate < 0 || cfg.Stream.DropOffsetRange() < 0 {
		return fmt.Errorf("stream: precreate and dropOffsetRange must be >= 0: %w", ErrInvalidConfig)
	}
	if cfg.Chase.Speed() < 0 || cfg.Chase.SpeedMax < cfg.Chase.Speed() {
		return fmt.Errorf("chase: need 0 <= speed <= speedMax, got %v / %v: %w", cfg.Chase.Speed(), cfg.Chase.SpeedMax, ErrInvalidConfig)
	}
	// 升级只能让死亡线变快
	if cfg.Chase.SpeedIncrement < 0 {
		return fmt.Errorf("chase.speedIncrement must be >= 0, got %v: %w", cfg.Chase.SpeedIncrement, ErrInvalidConfig)
	}
	if cfg.Lives.Initial < 1 {
		return fmt.Errorf("lives.initial must be >= 1, got %d: %w", cfg.Lives.Initial, ErrInvalidConfig)
	}
	if cfg.Lives.GameOverDelay() < 0 {
		return fmt.Errorf("lives.gameOverDelay must be >= 0, got %v: %w", cfg.Lives.GameOverDelay(), ErrInvalidConfig)
	}
	if cfg.Score.LevelUpEveryCoins() < 0 {
		return fmt.Errorf("score.levelUpEveryCoins must be >= 0, got %d: %w", cfg.Score.LevelUpEveryCoins(), ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(cfg.Powerups))
	for i, p := range cfg.Powerups {
		if p.ID == "" || seen[p.ID] {
			return fmt.Errorf("powerups[%d]: id must be unique and non-empty, got %q: %w", i, p.ID, ErrInvalidConfig)
		}
		seen[p.ID] = true
		if p.Duration <= 0 {
			return fmt.Errorf("powerups[%d] %s: duration must be positive: %w", i, p.ID, ErrInvalidConfig)
		}
		if len(p.OnActivate) > 2 || len(p.OnExpire) > 2 {
			return fmt.Errorf("powerups[%d] %s: at most 2 activate and 2 expire effects: %w", i, p.ID, ErrInvalidConfig)
		}
		if err := validateEffects(p.OnActivate, p.OnExpire); err != nil {
			return fmt.Errorf("powerups[%d] %s: %w", i, p.ID, err)
		}
	}
	for i, b := range cfg.Blocks {
		if b.TemplateID == "" {
			return fmt.Errorf("blocks[%d]: template is required: %w", i, ErrInvalidConfig)
		}
		if err := validateEffects(b.Touches); err != nil {
			return fmt.Errorf("blocks[%d] %s: %w", i, b.TemplateID, err)
		}
	}
	for id, tone := range cfg.Sounds.Tones {
		if tone.Frequency <= 0 || tone.Duration <= 0 {
			return fmt.Errorf("sounds.tones.%s: frequency and duration must be positive: %w", id, ErrInvalidConfig)
		}
	}
	for i, item := range cfg.Shop {
		if item.ID == "" || item.UnlockKey == "" || item.Cost < 0 {
			return fmt.Errorf("shop[%d]: id, unlockKey and non-negative cost are required: %w", i, ErrInvalidConfig)
		}
	}

	warnVictoryConfig(cfg)
	return nil
}

// CheckCharacterIndex 检查角色下标是否在配置范围内
func CheckCharacterIndex(cfg *RunConfig, idx int) error {
	if idx < 0 || idx >= len(cfg.Players.Characters) {
		return fmt.Errorf("character %d not in [0,%d): %w", idx, len(cfg.Players.Characters), ErrIndexOutOfRange)
	}
	return nil
}

func validateEffects(groups ...[]EffectSpec) error {
	for _, group := range groups {
		for j, spec := range group {
			if _, _, err := spec.Resolve(); err != nil {
				return fmt.Errorf("effect %d: %v: %w", j, err, ErrInvalidConfig)
			}
		}
	}
	return nil
}

// warnVictoryConfig 胜利条件只配置了一半时给出警告（不阻止开局）
func warnVictoryConfig(cfg *RunConfig) {
	if cfg.Victory.Lane != "" && cfg.Victory.LanesToVictory <= 0 {
		log.Printf("[RunConfig] Warning: victory lane %q set but lanesToVictory <= 0, the victory lane will never appear", cfg.Victory.Lane)
	}
	if cfg.Victory.Lane == "" && cfg.Victory.LanesToVictory > 0 {
		log.Printf("[RunConfig] Warning: lanesToVictory = %d but no victory lane is set", cfg.Victory.LanesToVictory)
	}
}

// Resolve 将配置效果解析为派发目标与效果
func (s EffectSpec) Resolve() (events.Target, events.Effect, error) {
	kind, err := events.ParseEffectKind(s.Effect)
	if err != nil {
		return events.Target{}, events.Effect{}, err
	}
	targetKind, err := events.ParseTargetKind(s.Target)
	if err != nil {
		return events.Target{}, events.Effect{}, err
	}
	return events.Target{Kind: targetKind, Index: s.Index},
		events.Effect{Kind: kind, Name: s.Name, Value: s.Value},
		nil
}
