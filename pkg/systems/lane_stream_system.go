package systems

import (
	"fmt"
	"log"

	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/ecs"
	"github.com/decker502/crossroad/pkg/events"
	"github.com/decker502/crossroad/pkg/utils"
)

// BlockAttacher 为新生成的车道/掉落物挂上可触碰方块
type BlockAttacher interface {
	Attach(entity ecs.EntityID, templateID string) bool
}

// LaneStreamSystem 车道流式生成
//
// 前沿（下一条车道的位置）与镜头距离小于前瞻距离时生成下一条车道，每帧最多一条。
// 配置了胜利车道时，生成 LanesToVictory 条普通车道后生成胜利车道：
// 胜利车道不推进前沿，之后再生成一次即停止。
type LaneStreamSystem struct {
	entityManager *ecs.EntityManager
	bus           *events.EventBus
	blocks        BlockAttacher
	rng           utils.Rand

	lanePool *utils.WeightedPool[config.LaneSpec]
	dropPool *utils.WeightedPool[config.DropSpec] // 没有配置掉落物时为 nil

	victoryLane     string
	lanesToVictory  int
	lookahead       float64
	dropOffsetRange int
	sequentialDrop  bool

	stateEntity ecs.EntityID
}

// NewLaneStreamSystem 构建车道池与掉落池并创建流式生成状态
// 任何权重非法或车道池为空都会返回错误，阻止开局
func NewLaneStreamSystem(em *ecs.EntityManager, bus *events.EventBus, cfg *config.RunConfig, rng utils.Rand, blocks BlockAttacher) (*LaneStreamSystem, error) {
	laneEntries := make([]utils.WeightedEntry[config.LaneSpec], 0, len(cfg.Lanes))
	for _, lane := range cfg.Lanes {
		laneEntries = append(laneEntries, utils.WeightedEntry[config.LaneSpec]{Item: lane, Weight: lane.SpawnWeight})
	}
	lanePool, err := utils.BuildWeightedPool(laneEntries)
	if err != nil {
		return nil, fmt.Errorf("lane pool: %w", err)
	}

	var dropPool *utils.WeightedPool[config.DropSpec]
	if len(cfg.Drops) > 0 {
		dropEntries := make([]utils.WeightedEntry[config.DropSpec], 0, len(cfg.Drops))
		for _, drop := range cfg.Drops {
			dropEntries = append(dropEntries, utils.WeightedEntry[config.DropSpec]{Item: drop, Weight: drop.DropWeight})
		}
		dropPool, err = utils.BuildWeightedPool(dropEntries)
		if err != nil {
			return nil, fmt.Errorf("drop pool: %w", err)
		}
	}

	s := &LaneStreamSystem{
		entityManager:   em,
		bus:             bus,
		blocks:          blocks,
		rng:             rng,
		lanePool:        lanePool,
		dropPool:        dropPool,
		victoryLane:     cfg.Victory.Lane,
		lanesToVictory:  cfg.Victory.LanesToVictory,
		lookahead:       cfg.Stream.Lookahead,
		dropOffsetRange: cfg.Stream.DropOffsetRange(),
		sequentialDrop:  cfg.Stream.SequentialDrop,
	}

	s.stateEntity = em.CreateEntity()
	ecs.AddComponent(em, s.stateEntity, &components.StreamStateComponent{
		FrontierPosition: cfg.Stream.StartPosition,
		CurrentDropIndex: -1,
	})

	return s, nil
}

// ShouldSpawn 前沿与镜头的距离是否小于前瞻距离
func ShouldSpawn(frontier, leadingEdge, lookahead float64) bool {
	return frontier-leadingEdge < lookahead
}

// State 返回流式生成状态
func (s *LaneStreamSystem) State() *components.StreamStateComponent {
	state, _ := ecs.GetComponent[*components.StreamStateComponent](s.entityManager, s.stateEntity)
	return state
}

func (s *LaneStreamSystem) victoryEnabled() bool {
	return s.victoryLane != "" && s.lanesToVictory > 0
}

// CanStream 是否允许继续生成
// 生成数超过胜利阈值后停止（胜利车道之后不会再有车道）
func (s *LaneStreamSystem) CanStream() bool {
	return !(s.victoryEnabled() && s.State().LanesCreated > s.lanesToVictory)
}

// Precreate 开局预生成 n 条车道
func (s *LaneStreamSystem) Precreate(n int) error {
	for i := 0; i < n && s.CanStream(); i++ {
		if _, err := s.MaterializeNext(); err != nil {
			return err
		}
	}
	return nil
}

// Update 任一前沿满足条件时生成一条车道
func (s *LaneStreamSystem) Update(edges []float64) {
	state := s.State()
	spawn := false
	for _, edge := range edges {
		if ShouldSpawn(state.FrontierPosition, edge, s.lookahead) {
			spawn = true
			break
		}
	}
	if !spawn || !s.CanStream() {
		return
	}

	if _, err := s.MaterializeNext(); err != nil {
		log.Printf("[LaneStreamSystem] Warning: failed to materialize lane: %v", err)
	}
}

// MaterializeNext 在前沿生成下一条车道
func (s *LaneStreamSystem) MaterializeNext() (ecs.EntityID, error) {
	state := s.State()

	if s.victoryEnabled() && state.LanesCreated >= s.lanesToVictory {
		id := s.spawnLane(s.victoryLane, state.FrontierPosition, 0, state.LanesCreated, true)
		state.LanesCreated++
		log.Printf("[LaneStreamSystem] Victory lane %s placed at %.2f after %d lanes", s.victoryLane, state.FrontierPosition, state.LanesCreated-1)
		return id, nil
	}

	spec, err := s.lanePool.SampleUniform(s.rng)
	if err != nil {
		return 0, err
	}

	position := state.FrontierPosition
	id := s.spawnLane(spec.TemplateID, position, spec.Width, state.LanesCreated, false)

	if s.rng.Float64() < spec.ItemChance {
		if err := s.dropItem(state, id, position); err != nil {
			return id, err
		}
	}

	state.FrontierPosition += spec.Width
	state.LanesCreated++
	return id, nil
}

func (s *LaneStreamSystem) spawnLane(templateID string, position, width float64, index int, victory bool) ecs.EntityID {
	id := s.entityManager.CreateEntity()
	ecs.AddComponent(s.entityManager, id, &components.LaneComponent{
		TemplateID: templateID,
		Position:   position,
		Width:      width,
		Index:      index,
		IsVictory:  victory,
	})
	if s.blocks != nil {
		s.blocks.Attach(id, templateID)
	}

	s.bus.Publish(events.EventLaneMaterialized, events.LaneMaterializedPayload{
		EntityID:   uint64(id),
		TemplateID: templateID,
		Position:   position,
		Width:      width,
		IsVictory:  victory,
		Index:      index,
	})
	return id
}

func (s *LaneStreamSystem) dropItem(state *components.StreamStateComponent, lane ecs.EntityID, position float64) error {
	if s.dropPool == nil {
		return fmt.Errorf("lane has item chance but no drops: %w", utils.ErrEmptyPool)
	}

	var (
		drop config.DropSpec
		err  error
	)
	if s.sequentialDrop {
		drop, err = s.dropPool.NextSequential(&state.CurrentDropIndex)
	} else {
		drop, err = s.dropPool.SampleUniform(s.rng)
	}
	if err != nil {
		return err
	}

	// 整数偏移，范围 [-r, r]
	offset := 0
	if s.dropOffsetRange > 0 {
		offset = s.rng.IntN(2*s.dropOffsetRange+1) - s.dropOffsetRange
	}

	id := s.entityManager.CreateEntity()
	item := &components.DropItemComponent{
		TemplateID: drop.TemplateID,
		X:          position,
		Z:          float64(offset),
		LaneEntity: uint64(lane),
	}
	ecs.AddComponent(s.entityManager, id, item)
	if s.blocks != nil {
		s.blocks.Attach(id, drop.TemplateID)
	}

	s.bus.Publish(events.EventItemDropped, events.ItemDroppedPayload{
		EntityID:   uint64(id),
		TemplateID: item.TemplateID,
		X:          item.X,
		Z:          item.Z,
	})
	return nil
}
